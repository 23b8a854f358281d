package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qorcc/qorcc/lang/scanner"
	"github.com/qorcc/qorcc/lang/token"
)

func kinds(toks []scanner.TokenAndValue) []token.Token {
	out := make([]token.Token, len(toks))
	for i, t := range toks {
		out[i] = t.Token
	}
	return out
}

func TestScanBasic(t *testing.T) {
	src := `int main() { return 42; }`
	toks := scanner.ScanAll("t.c", []byte(src))
	require.True(t, len(toks) > 0)
	assert.Equal(t, token.EOF, toks[len(toks)-1].Token)
	assert.Equal(t,
		[]token.Token{token.INTKW, token.IDENT, token.LPAREN, token.RPAREN,
			token.LBRACE, token.RETURN, token.INT, token.SEMI, token.RBRACE, token.EOF},
		kinds(toks))
}

func TestScanIntegerLiteral(t *testing.T) {
	toks := scanner.ScanAll("t.c", []byte("12345"))
	require.Equal(t, token.INT, toks[0].Token)
	assert.EqualValues(t, 12345, toks[0].Value.Int)
}

func TestScanStringEscapes(t *testing.T) {
	toks := scanner.ScanAll("t.c", []byte(`"a\nb\"c"`))
	require.Equal(t, token.STRING, toks[0].Token)
	assert.Equal(t, "a\nb\"c", toks[0].Value.Str)
}

func TestScanCharLiteral(t *testing.T) {
	toks := scanner.ScanAll("t.c", []byte(`'\n'`))
	require.Equal(t, token.CHARLIT, toks[0].Token)
	assert.Equal(t, "\n", toks[0].Value.Str)
}

func TestScanPreprocessorDirective(t *testing.T) {
	toks := scanner.ScanAll("t.c", []byte("#define N 7\nint x;"))
	require.Equal(t, token.PPDIR, toks[0].Token)
	assert.Equal(t, "#define", toks[0].Value.Raw)
}

func TestScanSymbolGreedyExtension(t *testing.T) {
	toks := scanner.ScanAll("t.c", []byte("<<= << <= < <<"))
	assert.Equal(t,
		[]token.Token{token.LTLTEQ, token.LTLT, token.LE, token.LT, token.LTLT, token.EOF},
		kinds(toks))
}

func TestScanCommentsAreDiscarded(t *testing.T) {
	withComments := scanner.ScanAll("t.c", []byte("int /* c */ x; // trailing\n"))
	without := scanner.ScanAll("t.c", []byte("int x;"))
	assert.Equal(t, kinds(without), kinds(withComments))
}

// TestTokenizerRoundTrip verifies property 1 from the spec: concatenating
// the code-styled form of each non-EOF token reproduces a program that
// re-tokenizes to the same token-kind/payload sequence.
func TestTokenizerRoundTrip(t *testing.T) {
	src := `int add(int a, int b) { return a + b * 2; }`
	toks := scanner.ScanAll("t.c", []byte(src))

	var rebuilt string
	for _, tv := range toks {
		if tv.Token == token.EOF {
			continue
		}
		full := token.Full{Tok: tv.Token, Val: tv.Value}
		rebuilt += full.Code() + " "
	}

	retoks := scanner.ScanAll("t.c", []byte(rebuilt))
	assert.Equal(t, kinds(toks), kinds(retoks))
	for i := 0; i < len(toks) && i < len(retoks); i++ {
		assert.Equal(t, toks[i].Value.Raw, retoks[i].Value.Raw)
	}
}

func TestScanEOFLocation(t *testing.T) {
	toks := scanner.ScanAll("t.c", []byte("a\nb\n"))
	eof := toks[len(toks)-1]
	assert.Equal(t, token.EOF, eof.Token)
	assert.Equal(t, 1, eof.Value.Loc.Column)
}
