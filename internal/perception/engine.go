package perception

import (
	"fmt"
	"image"
	"sort"
	"time"

	"bomb-vision/internal/calibrate"
	bombimage "bomb-vision/internal/image"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/overlay"
	"bomb-vision/pkg/geometry"
	"bomb-vision/pkg/logger"

	"github.com/google/uuid"
)

// DefaultWidgetThreshold is the minimum confidence for a widget reading.
const DefaultWidgetThreshold = 0.25

// Perceiver is the classify/read contract shared by the engine and by the
// image-free simulation used to test the layers above.
type Perceiver interface {
	Classify(shot *bombimage.Screenshot, quad geometry.Quad) (Reader, float64, error)
	Read(shot *bombimage.Screenshot, quad geometry.Quad, r Reader, dbg *overlay.Canvas) (Result, error)
}

var _ Perceiver = (*Engine)(nil)

// Engine owns the reader registries. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	modules         []Reader
	widgets         []Reader
	interpolation   calibrate.Interpolation
	widgetThreshold float64
	log             logger.Logger
	observer        Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithInterpolation sets the rectifier's resampling mode.
func WithInterpolation(m calibrate.Interpolation) Option {
	return func(e *Engine) { e.interpolation = m }
}

// WithWidgetThreshold overrides DefaultWidgetThreshold.
func WithWidgetThreshold(t float64) Option {
	return func(e *Engine) { e.widgetThreshold = t }
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithObserver attaches instrumentation.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// NewEngine creates an engine over the given registries. Registration order
// breaks confidence ties.
func NewEngine(modules, widgets []Reader, opts ...Option) *Engine {
	e := &Engine{
		modules:         modules,
		widgets:         widgets,
		interpolation:   calibrate.Bilinear,
		widgetThreshold: DefaultWidgetThreshold,
		log:             logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Reader looks a registered reader up by Kind.
func (e *Engine) Reader(k Kind) (Reader, error) {
	for _, list := range [][]Reader{e.modules, e.widgets} {
		for _, r := range list {
			if r.Kind() == k {
				return r, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownReader, k)
}

// Rectify resamples the quad of shot into a Size x Size image.
func (e *Engine) Rectify(shot *bombimage.Screenshot, quad geometry.Quad) (*image.RGBA, error) {
	b := quad.Bounds()
	if b.Width < 2 || b.Height < 2 || !b.Image().Overlaps(shot.Image.Bounds()) {
		return nil, fmt.Errorf("%w: %v", ErrBadQuad, quad)
	}
	return calibrate.PerspectiveUndistort(shot.Image, quad, e.interpolation, Size, Size), nil
}

type candidate struct {
	reader     Reader
	confidence float64
}

// rank scores readers and sorts them by descending confidence, keeping
// registration order among equal scores.
func rank(readers []Reader, img *image.RGBA, light lighting.State) []candidate {
	out := make([]candidate, 0, len(readers))
	for _, r := range readers {
		out = append(out, candidate{reader: r, confidence: r.IsPresent(img, light)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].confidence > out[j].confidence })
	return out
}

// Classify returns the reader for the module at quad, or nil for blank slots
// and frames no registered reader applies to.
func (e *Engine) Classify(shot *bombimage.Screenshot, quad geometry.Quad) (Reader, float64, error) {
	img, err := e.Rectify(shot, quad)
	if err != nil {
		return nil, 0, err
	}
	return e.ClassifyRectified(img, shot.Lighting)
}

// ClassifyRectified is Classify on an already rectified image.
func (e *Engine) ClassifyRectified(img *image.RGBA, light lighting.State) (Reader, float64, error) {
	if err := checkSize(img); err != nil {
		return nil, 0, err
	}
	log := e.log.With(logger.String("request_id", uuid.NewString()))

	frame := ClassifyFrame(img, light)
	if frame == Blank {
		if e.observer != nil {
			e.observer.ObserveBlank()
		}
		log.Debug("blank frame")
		return nil, 0, nil
	}

	var pool []Reader
	for _, r := range e.modules {
		if r.FrameType() == frame {
			pool = append(pool, r)
		}
	}
	ranked := rank(pool, img, light)
	if len(ranked) == 0 {
		log.Debug("no reader for frame", logger.String("frame", frame.String()))
		return nil, 0, nil
	}

	best := ranked[0]
	if e.observer != nil {
		e.observer.ObserveClassification(best.reader.Name(), best.confidence)
	}
	log.Debug("classified",
		logger.String("frame", frame.String()),
		logger.String("reader", best.reader.Name()),
		logger.Float64("confidence", best.confidence),
		logger.Int("candidates", len(ranked)))
	return best.reader, best.confidence, nil
}

// ClassifyWidget scores every widget reader without frame triage. The best
// one is returned only if it reaches the widget threshold.
func (e *Engine) ClassifyWidget(shot *bombimage.Screenshot, quad geometry.Quad) (Reader, float64, error) {
	img, err := e.Rectify(shot, quad)
	if err != nil {
		return nil, 0, err
	}
	ranked := rank(e.widgets, img, shot.Lighting)
	if len(ranked) == 0 || ranked[0].confidence < e.widgetThreshold {
		return nil, 0, nil
	}
	best := ranked[0]
	if e.observer != nil {
		e.observer.ObserveClassification(best.reader.Name(), best.confidence)
	}
	e.log.Debug("widget classified",
		logger.String("reader", best.reader.Name()),
		logger.Float64("confidence", best.confidence))
	return best.reader, best.confidence, nil
}

// Read rectifies the quad and decodes it with r. dbg, if non-nil, receives
// annotations in rectified coordinates; see ScreenOverlay.
func (e *Engine) Read(shot *bombimage.Screenshot, quad geometry.Quad, r Reader, dbg *overlay.Canvas) (Result, error) {
	img, err := e.Rectify(shot, quad)
	if err != nil {
		return nil, err
	}
	return e.ReadRectified(img, shot.Lighting, r, dbg)
}

// ReadRectified is Read on an already rectified image.
func (e *Engine) ReadRectified(img *image.RGBA, light lighting.State, r Reader, dbg *overlay.Canvas) (Result, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: nil reader", ErrUnknownReader)
	}
	if err := checkSize(img); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	start := time.Now()
	res, err := r.Process(img, light, dbg)
	elapsed := time.Since(start)
	if e.observer != nil {
		e.observer.ObserveRead(r.Name(), elapsed, err)
	}
	if err != nil {
		e.log.Debug("read failed",
			logger.String("request_id", id),
			logger.String("reader", r.Name()),
			logger.String("kind", KindOf(err).String()),
			logger.Error(err))
		return nil, fmt.Errorf("%s: %w", r.Name(), err)
	}
	e.log.Debug("read",
		logger.String("request_id", id),
		logger.String("reader", r.Name()),
		logger.String("result", res.String()),
		logger.Any("elapsed", elapsed))
	return res, nil
}

// LightsState returns the ambient lighting of the screenshot.
func (e *Engine) LightsState(shot *bombimage.Screenshot) lighting.State {
	return shot.Lighting
}

// ModuleLightState reads the status lamp of the module at quad.
func (e *Engine) ModuleLightState(shot *bombimage.Screenshot, quad geometry.Quad) (LightState, error) {
	img, err := e.Rectify(shot, quad)
	if err != nil {
		return LightOff, err
	}
	return ReadStatusLight(img, shot.Lighting), nil
}

// ScreenOverlay maps rectified-space annotations back onto the screenshot.
// Points land on the screen pixels the rectifier sampled for them.
func (e *Engine) ScreenOverlay(quad geometry.Quad, dbg *overlay.Canvas) *overlay.Canvas {
	return dbg.Project(calibrate.RectifiedToScreen(quad, Size, Size))
}

func checkSize(img *image.RGBA) error {
	b := img.Bounds()
	if b.Dx() != Size || b.Dy() != Size {
		return fmt.Errorf("%w: %dx%d, want %dx%d", ErrWrongSize, b.Dx(), b.Dy(), Size, Size)
	}
	return nil
}
