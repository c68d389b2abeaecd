package service

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSafeName(t *testing.T) {
	Convey("Upload names are reduced to a safe base name", t, func() {
		So(safeName("squat clip.mp4"), ShouldEqual, "squat_clip.mp4")
		So(safeName("../../etc/passwd"), ShouldEqual, "passwd")
		So(safeName(`C:\videos\pushup.MOV`), ShouldEqual, "pushup.MOV")
		So(safeName(""), ShouldEqual, "upload")
		So(safeName(".."), ShouldEqual, "upload")
	})
}
