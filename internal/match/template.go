// Package match classifies cropped regions against fixed reference sets:
// bitmaps for symbol modules and rendered strings for text.
package match

import (
	"fmt"
	"image"
	_ "image/png"
	"io/fs"
	"path"
	"sort"
	"strings"

	"bomb-vision/pkg/colorutil"

	"golang.org/x/image/draw"
)

// DefaultTemplateSize is the canonical edge length references are scaled to.
const DefaultTemplateSize = 32

// Reference is one labelled bitmap.
type Reference struct {
	Label string
	Image image.Image
}

type template struct {
	label string
	gray  []uint8
}

// TemplateClassifier returns the label of the nearest reference by summed
// absolute grey difference at a canonical resolution.
type TemplateClassifier struct {
	size      int
	templates []template
}

// NewTemplateClassifier scales every reference to size x size grey.
func NewTemplateClassifier(size int, refs []Reference) (*TemplateClassifier, error) {
	if len(refs) == 0 {
		return nil, ErrNoTemplates
	}
	if size <= 0 {
		size = DefaultTemplateSize
	}
	tc := &TemplateClassifier{size: size, templates: make([]template, 0, len(refs))}
	for _, ref := range refs {
		if ref.Image == nil || ref.Image.Bounds().Empty() {
			return nil, fmt.Errorf("%w: %s is empty", ErrBadAsset, ref.Label)
		}
		tc.templates = append(tc.templates, template{
			label: ref.Label,
			gray:  canonical(ref.Image, ref.Image.Bounds(), size),
		})
	}
	// Sorting makes equal-distance ties resolve by label, not by the
	// order references were supplied in.
	sort.Slice(tc.templates, func(i, j int) bool { return tc.templates[i].label < tc.templates[j].label })
	return tc, nil
}

// LoadTemplates reads every PNG under dir in fsys; the file name without
// extension is the label.
func LoadTemplates(fsys fs.FS, dir string, size int) (*TemplateClassifier, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	var refs []Reference
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".png") {
			continue
		}
		f, err := fsys.Open(path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", e.Name(), err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadAsset, e.Name(), err)
		}
		refs = append(refs, Reference{Label: strings.TrimSuffix(e.Name(), path.Ext(e.Name())), Image: img})
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoTemplates, dir)
	}
	return NewTemplateClassifier(size, refs)
}

// Labels returns the reference labels in sorted order.
func (tc *TemplateClassifier) Labels() []string {
	out := make([]string, len(tc.templates))
	for i, t := range tc.templates {
		out[i] = t.label
	}
	return out
}

// Classify returns the best label for the region r of img and its distance.
// It always answers; callers wanting "none of the above" filter beforehand.
func (tc *TemplateClassifier) Classify(img image.Image, r image.Rectangle) (string, int) {
	query := canonical(img, r, tc.size)
	best, bestDist := "", -1
	for _, t := range tc.templates {
		d := 0
		for i, v := range t.gray {
			if v > query[i] {
				d += int(v - query[i])
			} else {
				d += int(query[i] - v)
			}
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = t.label, d
		}
	}
	return best, bestDist
}

// canonical converts the region to size x size grey levels.
func canonical(img image.Image, r image.Rectangle, size int) []uint8 {
	r = r.Intersect(img.Bounds())
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if r.Dx() == size && r.Dy() == size {
		draw.Copy(dst, image.Point{}, img, r, draw.Src, nil)
	} else if !r.Empty() {
		draw.BiLinear.Scale(dst, dst.Bounds(), img, r, draw.Src, nil)
	}
	gray := make([]uint8, size*size)
	for i := range gray {
		p := dst.Pix[i*4 : i*4+3]
		gray[i] = uint8(colorutil.Luma(p[0], p[1], p[2]) + 0.5)
	}
	return gray
}
