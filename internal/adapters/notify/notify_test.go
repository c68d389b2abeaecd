package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/exercise"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/model"
	"github.com/vitazok/exercise-analyzer-backend/internal/domain/report"
)

func TestNATSPublisher(t *testing.T) {
	ctx := context.Background()

	Convey("Given an embedded NATS server and a subscriber", t, func() {
		ns, err := StartEmbedded(5 * time.Second)
		So(err, ShouldBeNil)
		defer ns.Shutdown()

		sub, err := nats.Connect(ns.ClientURL())
		So(err, ShouldBeNil)
		defer sub.Close()
		msgs := make(chan *nats.Msg, 4)
		_, err = sub.ChanSubscribe("jobs.>", msgs)
		So(err, ShouldBeNil)
		So(sub.Flush(), ShouldBeNil)

		pub, err := Connect(ns.ClientURL(), WithSubject("jobs"))
		So(err, ShouldBeNil)
		defer pub.Close()

		Convey("When a completed job is published", func() {
			res := model.Result{Report: report.Synthesize(exercise.Squat, 12, nil), ProcessedFile: "p.jsonl"}
			job := model.Job{ID: "j-1", Status: model.StatusCompleted, Filename: "clip.mp4", Result: &res}
			So(pub.Publish(ctx, job), ShouldBeNil)
			So(pub.conn.Flush(), ShouldBeNil)

			Convey("Then the subscriber receives it on the status subject", func() {
				var msg *nats.Msg
				select {
				case msg = <-msgs:
				case <-time.After(2 * time.Second):
				}
				So(msg, ShouldNotBeNil)
				So(msg.Subject, ShouldEqual, "jobs.completed")

				var ev map[string]any
				So(json.Unmarshal(msg.Data, &ev), ShouldBeNil)
				So(ev["job_id"], ShouldEqual, "j-1")
				So(ev["status"], ShouldEqual, "completed")
				result := ev["result"].(map[string]any)
				So(result["exercise_type"], ShouldEqual, "squat")
				So(result["processed_file"], ShouldEqual, "p.jsonl")
			})
		})

		Convey("When a failed job is published", func() {
			So(pub.Publish(ctx, model.Job{ID: "j-2", Status: model.StatusFailed, Error: "boom"}), ShouldBeNil)
			So(pub.conn.Flush(), ShouldBeNil)

			Convey("Then it arrives on the failed subject", func() {
				var msg *nats.Msg
				select {
				case msg = <-msgs:
				case <-time.After(2 * time.Second):
				}
				So(msg, ShouldNotBeNil)
				So(msg.Subject, ShouldEqual, "jobs.failed")
			})
		})

		Convey("When the publisher is closed", func() {
			So(pub.Close(), ShouldBeNil)
			deadline := time.Now().Add(2 * time.Second)
			for !pub.conn.IsClosed() && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}

			Convey("Then publishing reports no connection", func() {
				So(pub.Publish(ctx, model.Job{ID: "j-3", Status: model.StatusFailed}), ShouldEqual, ErrNotConnected)
			})
		})
	})
}

func TestSubject(t *testing.T) {
	Convey("Subjects are prefix plus status", t, func() {
		So(Subject(DefaultSubject, model.StatusFailed), ShouldEqual, "exercise.jobs.failed")
		So(Nop{}.Publish(context.Background(), model.Job{}), ShouldBeNil)
	})
}
