package lexer

import "testing"

func TestBasicTokens(t *testing.T) {
	input := `fun main() {
	println("Hello, $name!") // greet
}`

	tests := []struct {
		expectedType  TokenType
		expectedValue string
		newline       bool
	}{
		{TokenFun, "fun", false},
		{TokenIdentifier, "main", false},
		{TokenLParen, "(", false},
		{TokenRParen, ")", false},
		{TokenLBrace, "{", false},
		{TokenIdentifier, "println", true},
		{TokenLParen, "(", false},
		{TokenString, `"Hello, $name!"`, false},
		{TokenRParen, ")", false},
		{TokenRBrace, "}", true},
		{TokenEOF, "", false},
	}

	l := New(input)
	tokens, err := l.Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if len(tokens) != len(tests) {
		t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(tests), tokens)
	}

	for i, tt := range tests {
		tok := tokens[i]
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q", i, tt.expectedType, tok.Type)
		}
		if tok.Literal != tt.expectedValue {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedValue, tok.Literal)
		}
		if tok.NewlineBefore != tt.newline {
			t.Fatalf("tests[%d] - newline wrong. expected=%v, got=%v", i, tt.newline, tok.NewlineBefore)
		}
	}

	comments := l.Comments()
	if len(comments) != 1 || comments[0].Text != "// greet" || comments[0].StartsLine || !comments[0].EndsLine {
		t.Fatalf("unexpected comments %+v", comments)
	}
}

func TestOperators(t *testing.T) {
	input := `a?.b ?: c !is D !in e as? F x!! 1..2 a === b ::class`
	want := []TokenType{
		TokenIdentifier, TokenSafeDot, TokenIdentifier, TokenElvis, TokenIdentifier,
		TokenNotIs, TokenIdentifier, TokenNotIn, TokenIdentifier, TokenAsSafe, TokenIdentifier,
		TokenIdentifier, TokenNotNull, TokenInteger, TokenRange, TokenInteger,
		TokenIdentifier, TokenIdentEq, TokenIdentifier, TokenColonColon, TokenClass, TokenEOF,
	}

	tokens, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(want), tokens)
	}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Errorf("token %d = %s, want %s", i, tokens[i].Type, typ)
		}
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		input string
		typ   TokenType
	}{
		{"42", TokenInteger},
		{"1_000L", TokenInteger},
		{"0xFF", TokenInteger},
		{"3.14", TokenFloat},
		{"1e10", TokenFloat},
		{"2.5f", TokenFloat},
	}
	for _, tt := range tests {
		tokens, err := New(tt.input).Tokenize()
		if err != nil {
			t.Fatalf("%q: %v", tt.input, err)
		}
		if tokens[0].Type != tt.typ || tokens[0].Literal != tt.input {
			t.Errorf("%q lexed as %s %q", tt.input, tokens[0].Type, tokens[0].Literal)
		}
	}
}

func TestLabels(t *testing.T) {
	tokens, err := New("loop@ for (x in xs) break@loop").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != TokenLabel || tokens[0].Literal != "loop" {
		t.Fatalf("first token = %v", tokens[0])
	}
	brk := tokens[len(tokens)-3]
	lbl := tokens[len(tokens)-2]
	if brk.Type != TokenBreak || lbl.Type != TokenAtLabel || lbl.Literal != "loop" {
		t.Fatalf("break label lexed as %v %v", brk, lbl)
	}

	tokens, err = New("@Ann fun f() = this@Outer").Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if tokens[0].Type != TokenAt {
		t.Fatalf("annotation lexed as %v", tokens[0])
	}
	last := tokens[len(tokens)-2]
	if last.Type != TokenAtLabel || last.Literal != "Outer" {
		t.Fatalf("this label lexed as %v", last)
	}
}

func TestQuotation(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		tag      string
		preserve bool
		content  string
	}{
		{"trimmed", "val q = ` x + 1 `", "", false, "x + 1"},
		{"tagged", "val q = decl`fun f() = 1`", "decl", false, "fun f() = 1"},
		{"preserving", "val q = ```\n  x\n```", "", true, "\n  x\n"},
		{"inner indentation kept", "val q = `\n\n  a\n    b\n  `", "", false, "a\n    b"},
		{"interpolated", "val q = `f(${a.b}, $c)`", "", false, "f(${a.b}, $c)"},
		{"escaped", "val q = `a \\` b`", "", false, "a \\` b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := New(tt.input).Tokenize()
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			q := tokens[3]
			if q.Type != TokenQuotation || q.Quote == nil {
				t.Fatalf("expected quotation, got %v", q)
			}
			if q.Quote.Tag != tt.tag || q.Quote.Preserve != tt.preserve {
				t.Errorf("quote = %+v", q.Quote)
			}
			if got := tt.input[q.Quote.Content.Start:q.Quote.Content.End]; got != tt.content {
				t.Errorf("content = %q, want %q", got, tt.content)
			}
		})
	}
}

func TestErrors(t *testing.T) {
	for _, input := range []string{`"abc`, "`abc", "/* open", "1e", "'a"} {
		if _, err := New(input).Tokenize(); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}
