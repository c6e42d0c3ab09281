package typst

import (
	"errors"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
)

var fontExts = map[string]bool{
	".ttf":   true,
	".otf":   true,
	".ttc":   true,
	".otc":   true,
	".woff":  true,
	".woff2": true,
}

// FontBook is the set of project font files passed to every compile.
type FontBook struct {
	Dir   string
	Files []string
}

// LoadFontBook lists the font files below dir. A missing dir is an empty book.
func LoadFontBook(dir string) (FontBook, error) {
	book := FontBook{Dir: dir}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && fontExts[strings.ToLower(filepath.Ext(path))] {
			book.Files = append(book.Files, path)
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return FontBook{}, err
	}
	slices.Sort(book.Files)
	return book, nil
}
