// Package assets is the resource layer: it hands reference bitmaps and font
// bytes to the readers without them touching the filesystem.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Template set directories inside a bundle.
const (
	KeypadDir      = "keypad"
	PianoDir       = "piano"
	RoundKeypadDir = "roundkeypad"
	FontFile       = "font.ttf"
)

// Bundle is the reference data shared by every reader.
type Bundle struct {
	Symbols fs.FS  // Template directories; nil means no symbol readers can decode
	Font    []byte // Text font; nil selects the built-in face
}

// Empty returns a bundle with no templates and the built-in font.
func Empty() Bundle {
	return Bundle{}
}

// FromFS wraps fsys. A FontFile at its root, if any, becomes the text font.
func FromFS(fsys fs.FS) (Bundle, error) {
	b := Bundle{Symbols: fsys}
	data, err := fs.ReadFile(fsys, FontFile)
	switch {
	case err == nil:
		b.Font = data
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Bundle{}, fmt.Errorf("failed to read %s: %w", FontFile, err)
	}
	return b, nil
}

// Open loads a bundle from a directory. An empty path returns Empty.
func Open(dir string) (Bundle, error) {
	if dir == "" {
		return Empty(), nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to open assets: %w", err)
	}
	if !info.IsDir() {
		return Bundle{}, fmt.Errorf("assets path %s is not a directory", dir)
	}
	return FromFS(os.DirFS(dir))
}

// HasSet reports whether the bundle contains the template directory dir.
func (b Bundle) HasSet(dir string) bool {
	if b.Symbols == nil {
		return false
	}
	info, err := fs.Stat(b.Symbols, dir)
	return err == nil && info.IsDir()
}
