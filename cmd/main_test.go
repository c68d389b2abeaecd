package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/detector"
	"github.com/vitazok/exercise-analyzer-backend/internal/adapters/notify"
	"github.com/vitazok/exercise-analyzer-backend/internal/client"
	"github.com/vitazok/exercise-analyzer-backend/internal/config"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/report"
	"github.com/vitazok/exercise-analyzer-backend/pkg/logger"
)

const fixture = "../internal/adapters/detector/testdata/pushup.jsonl"

func execute(args ...string) (string, error) {
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCommandTree(t *testing.T) {
	convey.Convey("Given the root command", t, func() {
		root := newRootCmd()

		convey.Convey("Then every subcommand is registered", func() {
			names := map[string]bool{}
			for _, c := range root.Commands() {
				names[c.Name()] = true
			}
			for _, want := range []string{"serve", "analyze", "submit", "version"} {
				convey.So(names[want], convey.ShouldBeTrue)
			}
		})

		convey.Convey("Then version prints the build version", func() {
			out, err := execute("version")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldEqual, version+"\n")
		})
	})
}

func TestAnalyzeCommand(t *testing.T) {
	convey.Convey("Given a landmark file", t, func() {
		overlay := filepath.Join(t.TempDir(), "out", "overlay.jsonl")

		convey.Convey("When analyze runs on it", func() {
			out, err := execute("analyze", "--input", fixture, "--overlay", overlay, "--progress=false", "--top", "3")
			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then the report is printed as JSON", func() {
				var rep report.Report
				convey.So(json.Unmarshal([]byte(out), &rep), convey.ShouldBeNil)
				convey.So(rep.ExerciseType, convey.ShouldEqual, exercise.Pushup)
				convey.So(rep.TotalFrames, convey.ShouldEqual, 6)
				convey.So(rep.ScoredFrames, convey.ShouldEqual, 5)
				convey.So(len(rep.TopFeedback), convey.ShouldBeLessThanOrEqualTo, 3)
			})

			convey.Convey("Then annotations are written", func() {
				data, err := os.ReadFile(overlay)
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(data), convey.ShouldBeGreaterThan, 0)
			})
		})

		convey.Convey("When the progress bar is on", func() {
			out, err := execute("analyze", "--input", fixture)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, `"exercise_type": "pushup"`)
		})

		convey.Convey("When the input does not exist", func() {
			_, err := execute("analyze", "--input", filepath.Join(t.TempDir(), "missing.jsonl"), "--progress=false")
			convey.So(errors.Is(err, detector.ErrOpenSource), convey.ShouldBeTrue)
		})

		convey.Convey("When --input is missing", func() {
			_, err := execute("analyze")
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestSubmitCommand(t *testing.T) {
	convey.Convey("Given a running API", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
			if _, _, err := r.FormFile("file"); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(client.Submitted{Message: "Job submitted", JobID: "job-1"})
		})
		mux.HandleFunc("GET /status/{job_id}", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(client.Status{Status: model.StatusCompleted})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		convey.Convey("When a file is submitted", func() {
			out, err := execute("submit", "--url", srv.URL, "--file", fixture)
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, `"job_id": "job-1"`)
		})

		convey.Convey("When a file is submitted with --wait", func() {
			out, err := execute("submit", "--url", srv.URL, "--file", fixture, "--wait", "--interval", "10ms")
			convey.So(err, convey.ShouldBeNil)
			convey.So(out, convey.ShouldContainSubstring, `"status": "completed"`)
		})
	})
}

func TestOpenNotifier(t *testing.T) {
	convey.Convey("Given a configuration", t, func() {
		cfg := config.New(context.Background())
		log := logger.Nop()

		convey.Convey("When no NATS URL is set", func() {
			cfg.NATSURL = ""
			pub, ns, err := openNotifier(cfg, log)
			convey.So(err, convey.ShouldBeNil)
			convey.So(ns, convey.ShouldBeNil)
			_, isNop := pub.(notify.Nop)
			convey.So(isNop, convey.ShouldBeTrue)
		})

		convey.Convey("When the embedded server is requested", func() {
			cfg.NATSURL = embeddedNATS
			pub, ns, err := openNotifier(cfg, log)
			convey.So(err, convey.ShouldBeNil)
			convey.So(ns, convey.ShouldNotBeNil)
			convey.So(pub.Publish(context.Background(), model.Job{ID: "j", Status: model.StatusCompleted}), convey.ShouldBeNil)
			convey.So(pub.Close(), convey.ShouldBeNil)
			ns.Shutdown()
		})
	})
}

func TestSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		convey.So(func() { startSystemMetricsUpdater(ctx) }, convey.ShouldNotPanic)
	})
}
