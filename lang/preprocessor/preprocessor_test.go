package preprocessor_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qorcc/qorcc/lang/preprocessor"
	"github.com/qorcc/qorcc/lang/scanner"
	"github.com/qorcc/qorcc/lang/token"
)

type fakeFiles map[string]string

func (f fakeFiles) Read(path string) ([]byte, error) {
	s, ok := f[path]
	if !ok {
		return nil, fmt.Errorf("no such file: %s", path)
	}
	return []byte(s), nil
}

func (f fakeFiles) Exists(path string) bool {
	_, ok := f[path]
	return ok
}

func codeOf(toks []scanner.TokenAndValue) []string {
	out := make([]string, len(toks))
	for i, tv := range toks {
		out[i] = token.Full{Tok: tv.Token, Val: tv.Value}.Code()
	}
	return out
}

func TestPreprocessorIdempotentOnMacroFreeInput(t *testing.T) {
	src := "int main() { return 42; }"
	p := preprocessor.New(fakeFiles{})
	out, err := p.Process("t.c", []byte(src))
	require.NoError(t, err)

	in := scanner.ScanAll("t.c", []byte(src))
	in = in[:len(in)-1] // drop EOF
	assert.Equal(t, codeOf(in), codeOf(out))
}

func TestPreprocessorObjectLikeMacro(t *testing.T) {
	withMacro := "#define N 7\nint m() { return N; }"
	literal := "int m() { return 7; }"

	p1 := preprocessor.New(fakeFiles{})
	out1, err := p1.Process("t.c", []byte(withMacro))
	require.NoError(t, err)

	p2 := preprocessor.New(fakeFiles{})
	out2, err := p2.Process("t.c", []byte(literal))
	require.NoError(t, err)

	assert.Equal(t, codeOf(out2), codeOf(out1))
}

func TestPreprocessorFunctionLikeMacro(t *testing.T) {
	src := "#define ADD(a, b) a + b\nint m() { return ADD(1, 2); }"
	p := preprocessor.New(fakeFiles{})
	out, err := p.Process("t.c", []byte(src))
	require.NoError(t, err)
	assert.Contains(t, codeOf(out), "1")
	assert.Contains(t, codeOf(out), "+")
	assert.Contains(t, codeOf(out), "2")
}

func TestPreprocessorFunctionLikeMacroWrongArgCountIsError(t *testing.T) {
	src := "#define ADD(a, b) a + b\nint m() { return ADD(1, 2, 3); }"
	p := preprocessor.New(fakeFiles{})
	_, err := p.Process("t.c", []byte(src))
	assert.Error(t, err)
}

func TestPreprocessorFunctionLikeMacroZeroArgs(t *testing.T) {
	src := "#define FORTYTWO() 42\nint m() { return FORTYTWO(); }"
	p := preprocessor.New(fakeFiles{})
	out, err := p.Process("t.c", []byte(src))
	require.NoError(t, err)
	assert.Contains(t, codeOf(out), "42")
}

func TestPreprocessorIfdefBalance(t *testing.T) {
	src := "#ifdef FOO\nint a;\n#else\nint b;\n#endif\n"
	p := preprocessor.New(fakeFiles{})
	out, err := p.Process("t.c", []byte(src))
	require.NoError(t, err)
	assert.Equal(t, []string{"int", "b", ";"}, codeOf(out))
}

func TestPreprocessorUnbalancedEndifIsError(t *testing.T) {
	p := preprocessor.New(fakeFiles{})
	_, err := p.Process("t.c", []byte("#endif\n"))
	assert.Error(t, err)
}

func TestPreprocessorInclude(t *testing.T) {
	files := fakeFiles{
		"main.c": `#include "def.h"
int m() { return N; }`,
		"def.h": "#define N 9\n",
	}
	p := preprocessor.New(files)
	out, err := p.Process("main.c", []byte(files["main.c"]))
	require.NoError(t, err)
	assert.Equal(t, []string{"int", "m", "(", ")", "{", "return", "9", ";", "}"}, codeOf(out))
}

func TestPreprocessorUndefOfUnknownMacroWarnsNotFails(t *testing.T) {
	p := preprocessor.New(fakeFiles{})
	_, err := p.Process("t.c", []byte("#undef NOPE\nint a;"))
	assert.NoError(t, err)
}
