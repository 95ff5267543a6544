package model_test

import (
	"math"
	"testing"

	model "github.com/okian/admitcalc/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestRecord(t *testing.T) {
	convey.Convey("Given a Record", t, func() {
		convey.Convey("When the passing score is a number", func() {
			r := model.Record{Specialty: "Law", Group: "1", Sector: "az", PassingScore: 512.5}

			convey.Convey("Then it is usable", func() {
				convey.So(r.HasPassingScore(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the passing score is absent", func() {
			r := model.Record{Specialty: "Law", PassingScore: math.NaN()}

			convey.Convey("Then it is not usable", func() {
				convey.So(r.HasPassingScore(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the passing score is infinite", func() {
			r := model.Record{Specialty: "Law", PassingScore: math.Inf(1)}

			convey.Convey("Then it is not usable", func() {
				convey.So(r.HasPassingScore(), convey.ShouldBeFalse)
			})
		})
	})
}
