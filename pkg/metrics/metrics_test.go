package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given a fresh registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then its collectors are registered under the namespace", func() {
				m.resultsInserted.Add(3)
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				names := map[string]bool{}
				for _, f := range families {
					names[f.GetName()] = true
				}
				So(names["test_unit_results_inserted_total"], ShouldBeTrue)
				So(m.histogramBuckets, ShouldResemble, []float64{1, 10})
			})
		})

		Convey("When empty options are passed", func() {
			m := NewManager(WithNamespace(""), WithSubsystem(""), WithHistogramBuckets(nil), WithPrometheusRegistry(registry))

			Convey("Then defaults are kept", func() {
				So(m.namespace, ShouldEqual, "alpine")
				So(m.subsystem, ShouldEqual, "standings")
				So(m.histogramBuckets, ShouldResemble, defaultBuckets)
			})
		})
	})
}

func TestRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When ingestion metrics are recorded", func() {
			before := testutil.ToFloat64(globalManager.resultsSkipped)
			RecordResultsStored(5, 2)
			RecordRaceIngested("girls_ski_hs")

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.resultsSkipped)-before, ShouldEqual, 2)
				So(testutil.ToFloat64(globalManager.racesIngested.WithLabelValues("girls_ski_hs")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When gauges are set", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(64)
			UpdateWorkerActiveCount(1)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 64)
				So(testutil.ToFloat64(globalManager.workerActive), ShouldEqual, 1)
			})
		})

		Convey("When every helper is called", func() {
			So(func() {
				RecordLeaderboardComputed("team")
				RecordLeaderboardLatency("team", 1.5)
				RecordUploadAccepted()
				RecordUploadDuplicate()
				RecordExportPublished()
				RecordRepositoryQueryLatency("category_results", 0.4)
				RecordHTTPRequest("/api/team", "GET", "200")
				RecordHTTPRequestDuration("/api/team", "GET", "200", 3)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordWorkerProcessingLatency(12)
				RecordWorkerError()
				RecordErrorByComponent("", "")
			}, ShouldNotPanic)
		})

		Convey("Then the registry is the custom one", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
