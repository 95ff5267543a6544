package admission

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHelpers(t *testing.T) {
	Convey("Given the rounding helper", t, func() {
		So(round2(73.4567), ShouldEqual, 73.46)
		So(round2(539.999), ShouldEqual, 540.0)
		So(round2(0.004), ShouldEqual, 0)
		So(round2(0.125), ShouldEqual, 0.12)
		So(round2(0.375), ShouldEqual, 0.38)
		So(round2(-0.125), ShouldEqual, -0.12)
	})

	Convey("Given the sample standard deviation", t, func() {
		So(math.IsNaN(sampleStdDev([]float64{5}, 5)), ShouldBeTrue)
		So(sampleStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 5), ShouldAlmostEqual, 2.138, 0.001)
	})

	Convey("Given the normal CDF", t, func() {
		So(normalCDF(0, 0, 1), ShouldEqual, 0.5)
		So(normalCDF(1.96, 0, 1), ShouldAlmostEqual, 0.975, 0.0005)
		So(normalCDF(-40, 0, 1), ShouldEqual, 0)
	})

	Convey("Given mixed raw scores", t, func() {
		So(validScores([]float64{1, math.NaN(), math.Inf(-1), 2}), ShouldResemble, []float64{1, 2})
	})
}
