package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized", func() {
			So(Init(WithWriter(&bytes.Buffer{})), ShouldBeNil)

			Convey("Then Get and Named return usable loggers", func() {
				So(Get(), ShouldNotBeNil)
				So(Named("test"), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When an unknown format is requested", func() {
			So(Init(WithFormat("xml")), ShouldNotBeNil)
		})
	})
}

func TestJSONOutput(t *testing.T) {
	Convey("Given a json logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		l, err := New(WithFormat(FormatJSON), WithWriter(&buf), WithSource(false))
		So(err, ShouldBeNil)
		So(SetLevelString("info"), ShouldBeNil)

		Convey("When a line with typed fields is logged", func() {
			l.Named("pipeline").Info(context.Background(), "session finished",
				String("category", "pushup"),
				Int("frames", 12),
				Bool("overlay", true),
				Duration("took", 1500*time.Millisecond),
				Error(errors.New("boom")),
			)

			Convey("Then every field is encoded", func() {
				var line map[string]any
				So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
				So(line["msg"], ShouldEqual, "session finished")
				So(line["component"], ShouldEqual, "pipeline")
				So(line["category"], ShouldEqual, "pushup")
				So(line["frames"], ShouldEqual, 12.0)
				So(line["overlay"], ShouldEqual, true)
				So(line["error"], ShouldEqual, "boom")
			})
		})

		Convey("When the level is raised", func() {
			So(SetLevelString("error"), ShouldBeNil)
			l.Warn(context.Background(), "dropped")

			Convey("Then lower levels are filtered", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
			So(SetLevelString("info"), ShouldBeNil)
		})
	})
}

func TestTextOutput(t *testing.T) {
	Convey("Given a text logger with caller locations", t, func() {
		var buf bytes.Buffer
		l, err := New(WithWriter(&buf))
		So(err, ShouldBeNil)
		So(SetLevelString("debug"), ShouldBeNil)

		l.Debug(context.Background(), "frame skipped", Int("frame", 3))

		Convey("Then the line names this file", func() {
			So(buf.String(), ShouldContainSubstring, "frame skipped")
			So(buf.String(), ShouldContainSubstring, "logger_test.go")
		})
		So(SetLevelString("info"), ShouldBeNil)
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Given the no-op logger", t, func() {
		l := Nop()
		Convey("Then it accepts every level without output", func() {
			ctx := context.Background()
			l.Debug(ctx, "x")
			l.Info(ctx, "x")
			l.Warn(ctx, "x")
			l.Named("y").Error(ctx, "x")
			So(l, ShouldNotBeNil)
		})
	})
}
