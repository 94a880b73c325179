package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeBasicForm(t *testing.T) {
	toks := Tokenize(`(@interface func $greet (param $s string) (result i32))`)
	want := []Type{
		LParen, Ident, Ident, Ident,
		LParen, Ident, Ident, Ident, RParen,
		LParen, Ident, Ident, RParen,
		RParen,
	}
	got := make([]Type, len(toks))
	for i, tk := range toks {
		got[i] = tk.Type
	}
	require.Equal(t, want, got)
	require.Equal(t, "@interface", toks[1].Value)
	require.Equal(t, "$greet", toks[3].Value)
	require.Equal(t, "$s", toks[6].Value)
}

func TestTokenizeStringsAndComments(t *testing.T) {
	toks := Tokenize(`;; a comment
	(export "name") (; block (; nested ;) comment ;) (implement)`)
	var kinds []Type
	var values []string
	for _, tk := range toks {
		kinds = append(kinds, tk.Type)
		values = append(values, tk.Value)
	}
	require.Equal(t, []Type{LParen, Ident, String, RParen, LParen, Ident, RParen}, kinds)
	require.Equal(t, "name", values[2])
}

func TestTokenizeNumbers(t *testing.T) {
	toks := Tokenize(`42 -7 0x1F`)
	require.Len(t, toks, 3)
	for _, tk := range toks {
		require.Equal(t, Number, tk.Type)
	}
	require.Equal(t, "42", toks[0].Value)
	require.Equal(t, "-7", toks[1].Value)
	require.Equal(t, "0x1F", toks[2].Value)
}

func TestTokenizeTracksLineNumbers(t *testing.T) {
	toks := Tokenize("(a\n(b\n(c)))")
	require.Equal(t, 1, toks[0].Line)
	require.Equal(t, 2, toks[2].Line)
	require.Equal(t, 3, toks[4].Line)
}
