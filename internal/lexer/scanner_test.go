package lexer

import "testing"

// collect runs a Lexer to TokenEOF and returns every Type/Lexeme pair
// produced, TokenEOF excluded.
func collect(t *testing.T, src string) []Token {
	t.Helper()
	l := NewLexer(src, "test")
	var toks []Token
	for {
		tok := l.Next()
		if tok.Type == TokenEOF {
			return toks
		}
		if tok.Type == TokenErr {
			t.Fatalf("lex error: %s", tok.Lexeme)
		}
		toks = append(toks, tok)
	}
}

func types(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func assertTypes(t *testing.T, src string, want []TokenType) {
	t.Helper()
	got := types(collect(t, src))
	if len(got) != len(want) {
		t.Fatalf("%q: got %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%q: token %d: got %s, want %s", src, i, got[i], want[i])
		}
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []TokenType
	}{
		{"def keyword", "def foo", []TokenType{TokenDef, TokenName}},
		{"class and is", "class Foo is Bar", []TokenType{TokenClass, TokenName, TokenIs, TokenName}},
		{"for in", "for x in y", []TokenType{TokenFor, TokenName, TokenIn, TokenName}},
		{"plain identifier not a keyword prefix", "definitely", []TokenType{TokenName}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTypes(t, tt.src, tt.want)
		})
	}
}

func TestNumberLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want float64
	}{
		{"decimal", "42", 42},
		{"float", "3.14", 3.14},
		{"hex", "0xFF", 255},
		{"binary", "0b1010", 10},
		{"scientific", "1e3", 1000},
		{"scientific with fraction", "2.5e2", 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := collect(t, tt.src)
			if len(toks) != 1 || toks[0].Type != TokenNumber {
				t.Fatalf("%q: got %v", tt.src, toks)
			}
			if toks[0].Num != tt.want {
				t.Errorf("%q: got %v, want %v", tt.src, toks[0].Num, tt.want)
			}
		})
	}
}

func TestCompoundAssignmentOperators(t *testing.T) {
	tests := []struct {
		src  string
		want TokenType
	}{
		{"+=", TokenPlusEq}, {"-=", TokenMinusEq}, {"*=", TokenStarEq},
		{"/=", TokenSlashEq}, {"%=", TokenPercentEq}, {"&=", TokenAmpEq},
		{"|=", TokenPipeEq}, {"^=", TokenCaretEq},
		{">>=", TokenRShiftEq}, {"<<=", TokenLShiftEq},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assertTypes(t, tt.src, []TokenType{tt.want})
		})
	}
}

func TestRangeAndArrow(t *testing.T) {
	assertTypes(t, "1..10", []TokenType{TokenNumber, TokenRange, TokenNumber})
	assertTypes(t, "->", []TokenType{TokenArrow})
}

func TestNewlineIsLineToken(t *testing.T) {
	assertTypes(t, "x\ny", []TokenType{TokenName, TokenLine, TokenName})
}

func TestCommentsAreSkipped(t *testing.T) {
	assertTypes(t, "x # a comment\ny", []TokenType{TokenName, TokenLine, TokenName})
}

func TestPlainStringLiteral(t *testing.T) {
	toks := collect(t, `"hello world"`)
	if len(toks) != 1 || toks[0].Type != TokenString || toks[0].Lexeme != "hello world" {
		t.Fatalf("got %+v", toks)
	}
}

func TestStringEscapes(t *testing.T) {
	toks := collect(t, `"a\nb\tc\\d\"e"`)
	if len(toks) != 1 {
		t.Fatalf("got %+v", toks)
	}
	want := "a\nb\tc\\d\"e"
	if toks[0].Lexeme != want {
		t.Fatalf("got %q, want %q", toks[0].Lexeme, want)
	}
}

func TestSingleQuotedStringsDoNotInterpolate(t *testing.T) {
	toks := collect(t, `'a$b'`)
	if len(toks) != 1 || toks[0].Type != TokenString || toks[0].Lexeme != "a$b" {
		t.Fatalf("got %+v", toks)
	}
}

// TestBareInterpolation exercises the three-call state machine that
// stitches a `$name` interpolation back into a single logical string:
// STRING_INTERP("a "), NAME(b), STRING(" c").
func TestBareInterpolation(t *testing.T) {
	toks := collect(t, `"a $b c"`)
	want := []TokenType{TokenStringInterp, TokenName, TokenString}
	if len(toks) != len(want) {
		t.Fatalf("got %v", toks)
	}
	for i := range want {
		if toks[i].Type != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, toks[i].Type, want[i])
		}
	}
	if toks[0].Lexeme != "a " {
		t.Errorf("prefix: got %q", toks[0].Lexeme)
	}
	if toks[1].Lexeme != "b" {
		t.Errorf("name: got %q", toks[1].Lexeme)
	}
	if toks[2].Lexeme != " c" {
		t.Errorf("suffix: got %q", toks[2].Lexeme)
	}
}

// TestBracedInterpolation exercises the `${expr}` form, which can
// contain arbitrary sub-expressions including nested braces.
func TestBracedInterpolation(t *testing.T) {
	toks := collect(t, `"sum: ${a + b}!"`)
	// The '}' that closes the interpolation frame is consumed internally
	// and the rest of the literal comes back as the trailing STRING token,
	// so no RBrace token appears in the output.
	var got []TokenType
	for _, tok := range toks {
		got = append(got, tok.Type)
	}
	wantTypes := []TokenType{TokenStringInterp, TokenName, TokenPlus, TokenName, TokenString}
	if len(got) != len(wantTypes) {
		t.Fatalf("got %v, want %v", got, wantTypes)
	}
	for i := range wantTypes {
		if got[i] != wantTypes[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], wantTypes[i])
		}
	}
	if toks[0].Lexeme != "sum: " {
		t.Errorf("prefix: got %q", toks[0].Lexeme)
	}
	if toks[len(toks)-1].Lexeme != "!" {
		t.Errorf("suffix: got %q", toks[len(toks)-1].Lexeme)
	}
}

func TestNestedBracesInsideInterpolation(t *testing.T) {
	// The map literal's braces must not be mistaken for the closing
	// brace of the interpolation frame.
	toks := collect(t, `"m: ${ {1: 2} }"`)
	var got []TokenType
	for _, tok := range toks {
		got = append(got, tok.Type)
	}
	want := []TokenType{
		TokenStringInterp, TokenLBrace, TokenNumber, TokenColon, TokenNumber, TokenRBrace, TokenString,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestInterpolationNestingLimit(t *testing.T) {
	src := `"`
	for i := 0; i < maxInterpDepth+1; i++ {
		src += "${"
	}
	l := NewLexer(src, "test")
	var last Token
	for i := 0; i < 64; i++ {
		last = l.Next()
		if last.Type == TokenErr || last.Type == TokenEOF {
			break
		}
	}
	if last.Type != TokenErr {
		t.Fatalf("expected nesting-depth error, got %v", last)
	}
}

func TestUnterminatedStringIsError(t *testing.T) {
	l := NewLexer(`"abc`, "test")
	tok := l.Next()
	if tok.Type != TokenErr {
		t.Fatalf("got %v, want TokenErr", tok)
	}
}

func TestBOMIsStripped(t *testing.T) {
	src := "\xEF\xBB\xBFx"
	toks := collect(t, src)
	if len(toks) != 1 || toks[0].Type != TokenName || toks[0].Lexeme != "x" {
		t.Fatalf("got %+v", toks)
	}
}



func TestSemicolonIsStatementTerminator(t *testing.T) {
	toks := collect(t, "a = 1; b = 2")
	found := 0
	for _, tok := range toks {
		if tok.Type == TokenLine {
			found++
		}
	}
	if found == 0 {
		t.Fatal("';' must lex as a statement-terminator LINE token")
	}
}

func TestAtPrefixedIdentifier(t *testing.T) {
	toks := collect(t, "@getter")
	if len(toks) == 0 || toks[0].Type != TokenName || toks[0].Lexeme != "@getter" {
		t.Fatalf("@getter should lex as one NAME token, got %v", toks)
	}
}
