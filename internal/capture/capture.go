// Package capture feeds screenshots from a directory that another process
// keeps writing to, dropping frames that look the same as the last one.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	bombimage "bomb-vision/internal/image"
	"bomb-vision/pkg/logger"

	"github.com/corona10/goimagehash"
)

// DefaultMaxDistance is the perceptual hash distance at or below which two
// frames count as unchanged.
const DefaultMaxDistance = 4

// ErrNoFrames is returned by Latest when the directory holds no screenshots.
var ErrNoFrames = errors.New("capture: no screenshots")

// Dedup remembers the perceptual hash of the last accepted frame.
type Dedup struct {
	maxDistance int

	mu       sync.Mutex
	lastHash *goimagehash.ImageHash
}

// NewDedup returns a Dedup with the given distance threshold.
func NewDedup(maxDistance int) *Dedup {
	return &Dedup{maxDistance: maxDistance}
}

// Changed reports whether img differs from the last accepted frame and, if
// so, makes it the new reference. Frames that cannot be hashed always count
// as changed.
func (d *Dedup) Changed(img image.Image) bool {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return true
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lastHash == nil {
		d.lastHash = hash
		return true
	}
	dist, err := d.lastHash.Distance(hash)
	if err == nil && dist <= d.maxDistance {
		return false
	}
	d.lastHash = hash
	return true
}

// SkipObserver is told about every dropped frame.
type SkipObserver interface {
	ObserveSkippedFrame()
}

// Source polls a directory for the newest screenshot.
type Source struct {
	dir      string
	interval time.Duration
	dedup    *Dedup
	log      logger.Logger
	observer SkipObserver

	lastPath string
	lastMod  time.Time
}

// Option configures a Source.
type Option func(*Source)

// WithInterval sets the polling period.
func WithInterval(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithMaxDistance sets the unchanged-frame threshold.
func WithMaxDistance(n int) Option {
	return func(s *Source) {
		if n >= 0 {
			s.dedup = NewDedup(n)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver reports skipped frames to o.
func WithObserver(o SkipObserver) Option {
	return func(s *Source) { s.observer = o }
}

// NewSource watches dir.
func NewSource(dir string, opts ...Option) *Source {
	s := &Source{
		dir:      dir,
		interval: 500 * time.Millisecond,
		dedup:    NewDedup(DefaultMaxDistance),
		log:      logger.Named("capture"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Latest returns the path and modification time of the newest supported
// screenshot in the directory. Equal times resolve to the larger name.
func (s *Source) Latest() (string, time.Time, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("capture: %w", err)
	}
	var path string
	var mod time.Time
	for _, e := range entries {
		if e.IsDir() || !bombimage.IsSupportedFormat(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		p := filepath.Join(s.dir, e.Name())
		if path == "" || info.ModTime().After(mod) || (info.ModTime().Equal(mod) && p > path) {
			path, mod = p, info.ModTime()
		}
	}
	if path == "" {
		return "", time.Time{}, ErrNoFrames
	}
	return path, mod, nil
}

// Poll loads the newest screenshot if it is a new file that looks different
// from the last frame returned. ok is false when there is nothing new.
func (s *Source) Poll() (shot *bombimage.Screenshot, ok bool, err error) {
	path, mod, err := s.Latest()
	if errors.Is(err, ErrNoFrames) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if path == s.lastPath && mod.Equal(s.lastMod) {
		return nil, false, nil
	}
	s.lastPath, s.lastMod = path, mod

	shot, err = bombimage.Load(path)
	if err != nil {
		return nil, false, err
	}
	if !s.dedup.Changed(shot.Image) {
		s.log.Debug("skipping unchanged frame", logger.String("path", path))
		if s.observer != nil {
			s.observer.ObserveSkippedFrame()
		}
		return nil, false, nil
	}
	return shot, true, nil
}

// Run polls until ctx is done, calling fn for every new frame. Load errors
// are logged and polling continues; an error from fn stops Run.
func (s *Source) Run(ctx context.Context, fn func(*bombimage.Screenshot) error) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		shot, ok, err := s.Poll()
		switch {
		case err != nil:
			s.log.Warn("failed to poll screenshots", logger.Error(err))
		case ok:
			if err := fn(shot); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
