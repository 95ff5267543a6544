package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a dedicated registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it registers under the default namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.calculations.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["admitcalc_calculator_calculations_total"], ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("engine"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test")
				So(manager.subsystem, ShouldEqual, "engine")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(testutil.CollectAndCount(manager.calculations, "test_engine_calculations_total"), ShouldEqual, 1)
			})
		})

		Convey("When empty options are given", func() {
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "admitcalc")
				So(manager.subsystem, ShouldEqual, "calculator")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics", t, func() {
		Convey("When recording a calculation", func() {
			before := testutil.ToFloat64(globalManager.calculations)
			RecordCalculation(1.5, 12)

			Convey("Then the counter increases", func() {
				So(testutil.ToFloat64(globalManager.calculations), ShouldEqual, before+1)
			})
		})

		Convey("When recording estimates by status", func() {
			before := testutil.ToFloat64(globalManager.estimatesByStatus.WithLabelValues("OK"))
			RecordEstimateStatus("OK")
			RecordEstimateStatus("OK")

			Convey("Then the labelled counter increases", func() {
				So(testutil.ToFloat64(globalManager.estimatesByStatus.WithLabelValues("OK")), ShouldEqual, before+2)
			})
		})

		Convey("When updating dataset gauges", func() {
			UpdateDatasetSize(1200, 5, 3)
			RecordDatasetLoad(42, 1700000000)

			Convey("Then the gauges hold the latest values", func() {
				So(testutil.ToFloat64(globalManager.datasetRecords), ShouldEqual, 1200)
				So(testutil.ToFloat64(globalManager.datasetGroups), ShouldEqual, 5)
				So(testutil.ToFloat64(globalManager.datasetSectors), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.datasetLastLoaded), ShouldEqual, 1700000000)
			})
		})

		Convey("When recording the remaining helpers", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordCalculationError("invalid_score")
					RecordDatasetLoadError()
					RecordHTTPRequest("calculate", "POST", "200")
					RecordHTTPRequestDuration("calculate", "POST", "200", 3)
					RecordLoginAttempt("success")
					UpdateActiveSessions(2)
					RecordErrorByType("client_error", "medium")
					RecordErrorByEndpoint("calculate", "POST", "client_error")
					UpdateSystemMemoryUsage(1 << 20)
					UpdateSystemGoroutineCount(8)
					RecordSystemGCPauseTime(0.3)
				}, ShouldNotPanic)
			})
		})

		Convey("When reading the registry", func() {
			Convey("Then the custom registry is returned", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
			})
		})
	})
}
