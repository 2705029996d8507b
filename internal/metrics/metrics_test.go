package metrics_test

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bomb-vision/internal/match"
	"bomb-vision/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	convey.Convey("Given a metrics manager on its own registry", t, func() {
		reg := prometheus.NewRegistry()
		m := metrics.NewManager(metrics.WithRegistry(reg), metrics.WithNamespace("test"))

		convey.Convey("observations are counted", func() {
			m.ObserveBlank()
			m.ObserveBlank()
			m.ObserveClassification("Wires", 0.9)
			m.ObserveRead("Wires", 3*time.Millisecond, nil)
			m.ObserveRead("Wires", time.Millisecond, fmt.Errorf("key 2: %w", match.ErrNoCandidate))
			m.ObserveRead("Wires", time.Millisecond, errors.New("boom"))
			m.ObserveSkippedFrame()

			convey.So(testutil.ToFloat64(m.BlankFrames()), convey.ShouldEqual, 2)
			convey.So(testutil.ToFloat64(m.SkippedFrames()), convey.ShouldEqual, 1)
			convey.So(testutil.ToFloat64(m.Reads().WithLabelValues("Wires", "ok")), convey.ShouldEqual, 1)
			convey.So(testutil.ToFloat64(m.Reads().WithLabelValues("Wires", "decode")), convey.ShouldEqual, 1)
			convey.So(testutil.ToFloat64(m.Reads().WithLabelValues("Wires", "internal")), convey.ShouldEqual, 1)
			convey.So(testutil.ToFloat64(m.Classifications().WithLabelValues("Wires")), convey.ShouldEqual, 1)
		})

		convey.Convey("the handler exposes the namespace", func() {
			m.ObserveBlank()
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
			body, _ := io.ReadAll(rec.Body)
			convey.So(strings.Contains(string(body), "test_vision_blank_frames_total 1"), convey.ShouldBeTrue)
		})

		convey.Convey("two managers do not collide without an explicit registry", func() {
			convey.So(func() { metrics.NewManager(); metrics.NewManager() }, convey.ShouldNotPanic)
		})
	})
}
