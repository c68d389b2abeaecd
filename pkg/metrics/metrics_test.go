package metrics

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a manager on its own registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(
			WithNamespace("test"),
			WithSubsystem("unit"),
			WithHistogramBuckets([]float64{1, 10, 100}),
			WithPrometheusRegistry(registry),
		)

		Convey("Then collectors are registered under the namespace", func() {
			m.jobsDuplicate.Inc()
			families, err := registry.Gather()
			So(err, ShouldBeNil)
			names := make([]string, 0, len(families))
			for _, f := range families {
				names = append(names, f.GetName())
			}
			So(names, ShouldContain, "test_unit_jobs_duplicate_total")
		})

		Convey("Then a second manager on the same registry panics", func() {
			So(func() { NewManager(WithNamespace("test"), WithSubsystem("unit"), WithPrometheusRegistry(registry)) }, ShouldPanic)
		})
	})
}

func TestRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When job events are recorded", func() {
			before := testutil.ToFloat64(globalManager.jobsSubmitted.WithLabelValues("landmarks"))
			RecordJobSubmitted("landmarks")
			RecordJobDuplicate()
			RecordJobFinished("completed", 1.5)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.jobsSubmitted.WithLabelValues("landmarks")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.jobsFinished.WithLabelValues("completed")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When analysis events are recorded", func() {
			before := testutil.ToFloat64(globalManager.feedbackTokens.WithLabelValues("squat", "warning"))
			RecordFrameProcessed("squat")
			RecordFrameWithoutDetection()
			RecordFrameError("decode")
			RecordFeedbackToken("squat", "warning")
			RecordClassification("squat")

			Convey("Then token counts are labelled by category and polarity", func() {
				So(testutil.ToFloat64(globalManager.feedbackTokens.WithLabelValues("squat", "warning")), ShouldEqual, before+1)
			})
		})

		Convey("When gauges are updated", func() {
			UpdateQueueSize(3)
			UpdateQueueCapacity(10)
			UpdateQueueUtilization(0.3)
			UpdateWorkerCount(4)
			UpdateWorkerActiveCount(2)
			UpdateSystemMemoryUsage(1024)
			UpdateSystemGoroutineCount(12)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.3)
				So(testutil.ToFloat64(globalManager.workerActiveCount), ShouldEqual, 2)
			})
		})

		Convey("When the remaining recorders run", func() {
			So(func() {
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				RecordWorkerError()
				RecordNotificationPublished("failed")
				RecordNotificationError()
				RecordHTTPRequest("/analyze", "POST", "202")
				RecordHTTPRequestDuration("/analyze", "POST", "202", 12)
				RecordErrorByComponent("api", "bad_request")
				RecordSystemGCPauseTime(0.4)
			}, ShouldNotPanic)
		})

		Convey("Then the global registry is exposed", func() {
			So(GetRegistry(), ShouldPointTo, customRegistry)
		})
	})
}

func TestConcurrentRecording(t *testing.T) {
	Convey("Given many goroutines recording at once", t, func() {
		before := testutil.ToFloat64(globalManager.jobsDuplicate)
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				RecordJobDuplicate()
			}()
		}
		wg.Wait()

		Convey("Then no increment is lost", func() {
			So(testutil.ToFloat64(globalManager.jobsDuplicate), ShouldEqual, before+50)
		})
	})
}
