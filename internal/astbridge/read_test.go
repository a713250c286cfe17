package astbridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/orizon-lang/quasi/internal/ast"
	p "github.com/orizon-lang/quasi/internal/parser"
)

const roundTripFile = `package demo.app

import demo.lib.B
import demo.lib.*
import demo.other.C as D

@Double(2)
class A<T : Any>(val n: Int, var m: String = "x$n") : B(n), C by d where T : Comparable<T> {
    init {
        println(n)
    }

    constructor() : this(1) {}

    fun f(x: Int?): Int = x ?: -1

    val p: Int
        get() = n * 2

    companion object {
        const val K = 'k'
    }
}

enum class E { X, Y(1) }

typealias F = suspend (Int) -> Unit

fun g(items: List<Pair<Int, String>>) {
    for ((i, s) in items) {
        when (val v = i % 3) {
            0 -> println(s)
            in 1..2 -> println("${v}\n")
            else -> throw IllegalStateException()
        }
    }
    val h = { a: Int, b: Int -> a + b }
    try {
        h(1, 2)
    } catch (e: Exception) {
        return
    } finally {
        println()
    }
    outer@ while (true) {
        break@outer
    }
    do {
        x++
    } while (x < 10)
    val r = String::length
    val l = listOf(1, 2).map { it * 2 }
}
`

func roundTrip(t *testing.T, n ast.Node) {
	t.Helper()
	text := ast.Serialize(n)
	back, err := Read(text)
	if err != nil {
		t.Fatalf("Read: %v\n%s", err, text)
	}
	if !ast.Equal(n, back) {
		t.Fatalf("round trip changed the tree:\n%s\n%s", text, ast.Serialize(back))
	}
}

func TestReadRoundTripFile(t *testing.T) {
	f, err := p.ParseFile("a.kt", roundTripFile)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	entry, _, err := FromFile(f)
	if err != nil {
		t.Fatalf("FromFile: %v", err)
	}
	roundTrip(t, entry)
}

func TestReadRoundTripFragments(t *testing.T) {
	exprs := []string{
		"a?.b!!.c[1, 2]",
		"if (a is String && b !is Int) a as? String else null",
		"x === y || x !== z",
		"fun(a: Int): Int { return a }",
		"object : Runnable { override fun run() {} }",
		`"""raw ${x.y} text"""`,
		"'\\n'",
		"a shl 2 until b",
		"-1.5e3",
	}
	for _, src := range exprs {
		e, err := p.ParseExpression(src)
		if err != nil {
			t.Fatalf("ParseExpression(%q): %v", src, err)
		}
		out, err := FromExpr(e)
		if err != nil {
			t.Fatalf("FromExpr(%q): %v", src, err)
		}
		roundTrip(t, out)
	}

	typ, err := p.ParseType("Map<in K, *>?")
	if err != nil {
		t.Fatalf("ParseType: %v", err)
	}
	out, err := NewConverter().ConvertType(typ)
	if err != nil {
		t.Fatalf("ConvertType: %v", err)
	}
	roundTrip(t, out)
}

func TestReadExternalNames(t *testing.T) {
	n, err := Read(`meta.Node.ValueArg(name=null, asterisk=false, expr=a + b)`)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	arg := n.(*ast.ValueArg)
	ext, ok := arg.Expr.(*ast.ExternalName)
	if !ok || ext.Name != "a + b" {
		t.Errorf("expr = %#v", arg.Expr)
	}
}

func TestReadNamedAndPositional(t *testing.T) {
	named, err := Read(`meta.Node.Expr.Name(name="x")`)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	positional, err := Read(`meta.Node.Expr.Name("x")`)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !ast.Equal(named, positional) {
		t.Errorf("named and positional forms differ")
	}
}

func TestReadErrors(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{`meta.Node.Expr.Nope(name="x")`, "unknown variant"},
		{`meta.Node.Expr.Name()`, "missing field"},
		{`meta.Node.Expr.Name(name="x", name="y")`, "given twice"},
		{`meta.Node.Expr.Name(label="x")`, "no field"},
		{`meta.Node.Expr.Const(value="1", form=meta.Node.Expr.BinaryOp.Token.ADD)`, "expected a Expr.Const.Form value"},
		{`meta.Node.Expr.Name(name=null)`, "required string"},
		{`meta.Node.Expr.Name(name="${x}")`, "interpolation"},
	}
	for _, tc := range cases {
		_, err := Read(tc.text)
		var re *ReadError
		if !errors.As(err, &re) {
			t.Errorf("Read(%q) = %v, want a ReadError", tc.text, err)
			continue
		}
		if !strings.Contains(re.Message, tc.want) {
			t.Errorf("Read(%q) message %q, want %q", tc.text, re.Message, tc.want)
		}
	}
}
