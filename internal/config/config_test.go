package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/vitazok/exercise-analyzer-backend/internal/config"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.MinVisibility, convey.ShouldEqual, 0.5)
			convey.So(cfg.TopFeedback, convey.ShouldEqual, 5)
			convey.So(cfg.OverlayEnabled, convey.ShouldBeTrue)
			convey.So(cfg.JobTimeout(), convey.ShouldEqual, 10*time.Minute)
			convey.So(cfg.JobRetention(), convey.ShouldEqual, 24*time.Hour)
			convey.So(cfg.MaxUploadBytes(), convey.ShouldEqual, int64(200<<20))
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad value each", t, func() {
		cases := map[string]func(*config.Config){
			"addr":           func(c *config.Config) { c.Addr = "" },
			"queue_size":     func(c *config.Config) { c.QueueSize = 0 },
			"worker_count":   func(c *config.Config) { c.WorkerCount = -1 },
			"max_upload_mb":  func(c *config.Config) { c.MaxUploadMB = 0 },
			"min_visibility": func(c *config.Config) { c.MinVisibility = 1.5 },
			"top_feedback":   func(c *config.Config) { c.TopFeedback = 0 },
			"processed_dir":  func(c *config.Config) { c.ProcessedDir = "" },
			"job_timeout":    func(c *config.Config) { c.JobTimeoutSec = -1 },
			"log_format":     func(c *config.Config) { c.LogFormat = "xml" },
		}

		convey.Convey("Then each is rejected as invalid", func() {
			for name, mutate := range cases {
				cfg := config.New(context.Background())
				mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				_ = name
			}
		})
	})
}
