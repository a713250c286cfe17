package format

import (
	"strings"
	"testing"

	"github.com/orizon-lang/quasi/internal/ast"
	"github.com/orizon-lang/quasi/internal/astbridge"
	"github.com/orizon-lang/quasi/internal/parser"
)

func convertDecl(t *testing.T, src string) ast.Decl {
	t.Helper()
	d, err := parser.ParseDeclaration(src)
	if err != nil {
		t.Fatalf("ParseDeclaration(%q): %v", src, err)
	}
	out, err := astbridge.FromDecl(d)
	if err != nil {
		t.Fatalf("FromDecl(%q): %v", src, err)
	}
	return out
}

func TestWriteFunctionBody(t *testing.T) {
	fn := convertDecl(t, "fun f() = x + 1").(*ast.Func)
	if got := Source(fn.Body.(*ast.ExprBody).Expr); got != "x + 1" {
		t.Errorf("body = %q", got)
	}
	if got := Source(fn); got != "fun f() = x + 1" {
		t.Errorf("function = %q", got)
	}
}

func TestWriteReparses(t *testing.T) {
	decls := []string{
		"@Double(2) data class A(val n: Int) : B(n), C {\n    fun g() {}\n}",
		"fun <T : Comparable<T>> List<T>.top(n: Int): List<T> = sorted().take(n)",
		"enum class Color(val rgb: Int) { RED(1), GREEN(2); fun hex() = rgb }",
		"fun h(xs: List<String>) {\n    for (x in xs) {\n        if (x.isEmpty()) continue else println(\"$x!\\n\")\n    }\n}",
		"fun w(v: Any) = when (v) {\n    1, 2 -> \"small\"\n    is String -> v.length\n    else -> null\n}",
		"val l = listOf(1, 2).map { x -> x * 2 }",
		"typealias F = suspend (Int) -> Unit",
		"fun t() {\n    try {\n        a()\n    } catch (e: Exception) {\n        b()\n    } finally {\n        c()\n    }\n}",
		"fun r() = String::length",
	}
	for _, src := range decls {
		want := convertDecl(t, src)
		text := Source(want)
		got := convertDecl(t, text)
		if !ast.Equal(want, got) {
			t.Errorf("rewritten %q as %q, which reads back differently", src, text)
		}
	}
}

func TestWriteFileWithComments(t *testing.T) {
	src := "package p\n\nimport a.b.C\n\n/** Doc. */\nfun f() {}\n\nfun g() = 1\n"
	f, err := parser.ParseFile("c.kt", src)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	entry, extras, err := astbridge.FromFile(f)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	got := Node(entry, extras)
	if got != src {
		t.Errorf("file = %q, want %q", got, src)
	}
}

func TestWriteBlocksIndent(t *testing.T) {
	fn := convertDecl(t, "fun f() { if (a) { b() } }")
	got := NewWriter(WriterOptions{PreferTabs: true}).Write(fn)
	want := "fun f() {\n\tif (a) {\n\t\tb()\n\t}\n}"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if strings.Contains(Source(fn), "\t") {
		t.Error("space indentation produced tabs")
	}
}
