package modules

import (
	"image"
	"testing"

	"bomb-vision/internal/assets"
	"bomb-vision/internal/lighting"
	"bomb-vision/internal/palette"
	"bomb-vision/internal/perception"

	"github.com/smartystreets/goconvey/convey"
)

// needyScene paints the countdown housing; a negative seconds value leaves
// it dark as on a sleeping module.
func needyScene(light lighting.State, seconds int) *scene {
	s := newScene(faceplate, light)
	s.fill(perception.NeedyStripe, palette.Yellow.RGB())
	s.fill(countdownHousing, black)
	if seconds >= 0 {
		s.digit(needyCountdown[0], seconds/10, palette.Red.RGB())
		s.digit(needyCountdown[1], seconds%10, palette.Red.RGB())
	}
	return s
}

var knobPattern = [12]bool{true, false, false, true, false, false, false, false, true, true, false, true}

func knobsScene(light lighting.State) *scene {
	s := needyScene(light, 9)
	for i, l := range knobLEDs {
		c := black
		if knobPattern[i] {
			c = palette.Green.RGB()
		}
		s.fill(l, c)
	}
	return s
}

func TestVentingGas(t *testing.T) {
	convey.Convey("Given a venting gas module", t, func() {
		v := NewVentingGas(assets.Empty())
		tr, err := v.text.Get()
		convey.So(err, convey.ShouldBeNil)
		s := needyScene(lighting.On, 27)
		s.fill(ventDisplay, black)
		for _, k := range ventKeys {
			s.fill(k, white)
		}
		convey.So(v.IsPresent(s.img, lighting.On), convey.ShouldAlmostEqual, 1.0)
		convey.So(perception.ClassifyFrame(s.img, lighting.On), convey.ShouldEqual, perception.Needy)

		convey.Convey("the countdown and the question are read", func() {
			s.text(tr, "DETONATE?", ventDisplay, white)
			res, err := v.Process(s.img, lighting.On, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res, convey.ShouldResemble, VentResult{Countdown: Countdown{Seconds: 27, Shown: true}, Prompt: "DETONATE?"})
			convey.So(res.String(), convey.ShouldEqual, `27 "DETONATE?"`)
		})

		convey.Convey("a sleeping module has no countdown and no prompt", func() {
			s.fill(countdownHousing, black)
			res, err := v.Process(s.img, lighting.On, nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(res, convey.ShouldResemble, VentResult{})
			convey.So(res.String(), convey.ShouldEqual, `-- ""`)
		})
	})
}

func TestCapacitorDischarge(t *testing.T) {
	convey.Convey("The gauge fill is measured from the bottom", t, func() {
		c := NewCapacitorDischarge()
		s := needyScene(lighting.On, -1)
		s.fill(capGauge, black)
		s.fill(image.Rect(capGauge.Min.X, capGauge.Max.Y-capGauge.Dy()/2, capGauge.Max.X, capGauge.Max.Y), palette.Yellow.RGB())
		s.fill(capLever, white)

		convey.So(c.IsPresent(s.img, lighting.On), convey.ShouldAlmostEqual, 1.0)
		res, err := c.Process(s.img, lighting.On, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(res, convey.ShouldResemble, CapacitorResult{Charge: 0.5})
		convey.So(res.String(), convey.ShouldEqual, "-- 50%")
	})
}

func TestKnobs(t *testing.T) {
	convey.Convey("The countdown and the twelve LEDs are read", t, func() {
		k := NewKnobs()
		s := knobsScene(lighting.On)

		convey.So(k.IsPresent(s.img, lighting.On), convey.ShouldAlmostEqual, 1.0)
		res, err := k.Process(s.img, lighting.On, nil)
		convey.So(err, convey.ShouldBeNil)
		convey.So(res, convey.ShouldResemble, KnobsResult{Countdown: Countdown{Seconds: 9, Shown: true}, LEDs: knobPattern})
		convey.So(res.String(), convey.ShouldEqual, "09 *..*../..**.*")
	})
}
