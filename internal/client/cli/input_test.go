package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain line", "hello\n", "hello"},
		{"trims whitespace", "  spaced  \n", "spaced"},
		{"partial line at eof", "no newline", "no newline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetSimpleText(bufio.NewReader(strings.NewReader(tt.input)), "prompt", &out)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
			require.Contains(t, out.String(), "prompt")
		})
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	_, err := GetSimpleText(bufio.NewReader(strings.NewReader("")), "prompt", &out)
	require.Error(t, err)
}

func TestGetPassword(t *testing.T) {
	orig := readPassword
	readPassword = func(fd int) ([]byte, error) { return []byte("s3cret"), nil }
	defer func() { readPassword = orig }()

	var out bytes.Buffer
	pw, err := GetPassword(&out, "Enter password")
	require.NoError(t, err)
	require.Equal(t, "s3cret", pw)
	require.Contains(t, out.String(), "Enter password")
}

func TestGetDecimal(t *testing.T) {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader("nope\n12.50\n"))

	got, err := GetDecimal(reader, "Amount", &out)
	require.NoError(t, err)
	require.True(t, got.Equal(decimal.RequireFromString("12.50")))
	require.Contains(t, out.String(), "not a valid amount")
}
