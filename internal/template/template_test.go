package template

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/redirector/internal/env"
)

func TestLines(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"comments and blanks only", "# header\n\n   \n\t# indented comment\n", []string{}},
		{
			name: "trims and keeps order",
			text: "  /api/* {{API_URL}}/*  \n# skip\n/old-page /new-page\r\n",
			want: []string{"/api/* {{API_URL}}/*", "/old-page /new-page"},
		},
		{
			name: "malformed lines are still lines",
			text: "/lonely\n/a /b",
			want: []string{"/lonely", "/a /b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Lines(tt.text))
		})
	}
}

func TestParseLineNumbers(t *testing.T) {
	text := "# comment\n\n/a /b\n  \n/c /d\n"
	got := Parse(text)

	require.Len(t, got, 2)
	assert.Equal(t, Directive{Raw: "/a /b", Line: 3}, got[0])
	assert.Equal(t, Directive{Raw: "/c /d", Line: 5}, got[1])
}

func TestFields(t *testing.T) {
	tests := []struct {
		line        string
		route, dest string
		ok          bool
	}{
		{"/a /b", "/a", "/b", true},
		{"/a\t\t/b", "/a", "/b", true},
		{"/a /b extra tokens", "/a", "/b", true},
		{"/lonely", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			route, dest, ok := Directive{Raw: tt.line}.Fields()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.route, route)
			assert.Equal(t, tt.dest, dest)
		})
	}
}

func TestDirectiveResolvable(t *testing.T) {
	snap := env.FromMap(map[string]string{"A": "x"})
	assert.True(t, Directive{Raw: "/a {{A}}"}.Resolvable(snap))
	assert.False(t, Directive{Raw: "/a {{B}}"}.Resolvable(snap))
}

func TestReadAndExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)

	assert.False(t, Exists(path))
	_, err := Read(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("/a /b\n"), 0o644))
	assert.True(t, Exists(path))
	assert.False(t, Exists(dir))

	text, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a /b"}, Lines(text))
}
