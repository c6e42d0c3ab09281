package typst_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/tola/internal/adapters/typst"
)

func TestParseMakeDeps(t *testing.T) {
	root := filepath.FromSlash("/site")
	abs := func(p string) string { return filepath.Join(root, filepath.FromSlash(p)) }

	tests := []struct {
		name string
		data string
		want []string
	}{
		{
			name: "single line",
			data: "/tmp/out.html: /site/content/a.typ templates/base.typ\n",
			want: []string{abs("content/a.typ"), abs("templates/base.typ")},
		},
		{
			name: "continuations",
			data: "/tmp/out.html: content/a.typ \\\n  utils/date.typ \\\n  tola.toml\n",
			want: []string{abs("content/a.typ"), abs("utils/date.typ"), abs("tola.toml")},
		},
		{
			name: "escaped spaces",
			data: "out: content/my\\ post.typ assets/a$$b.svg\n",
			want: []string{abs("content/my post.typ"), abs("assets/a$b.svg")},
		},
		{
			name: "outside root and duplicates dropped",
			data: "out: /usr/share/fonts/x.ttf content/a.typ ../secret.typ content/a.typ\n",
			want: []string{abs("content/a.typ")},
		},
		{
			name: "no rule",
			data: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, typst.ParseMakeDeps([]byte(tt.data), root))
		})
	}
}

func TestLoadFontBook(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "b", "Serif.OTF"), "x")
	write(t, filepath.Join(dir, "a.ttf"), "x")
	write(t, filepath.Join(dir, "README.md"), "x")

	book, err := typst.LoadFontBook(dir)
	assert.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.ttf"), filepath.Join(dir, "b", "Serif.OTF")}, book.Files)

	empty, err := typst.LoadFontBook(filepath.Join(dir, "missing"))
	assert.NoError(t, err)
	assert.Empty(t, empty.Files)
}
