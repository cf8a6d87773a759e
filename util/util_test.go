package util

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "entry", "entries"), ShouldEqual, "1 entry")
		So(Quantify(0, "entry", "entries"), ShouldEqual, "0 entries")
		So(Quantify(7, "entry", "entries"), ShouldEqual, "7 entries")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("normal"), ShouldEqual, "Normal")
		So(Capitalize(""), ShouldEqual, "")
		So(Capitalize("X"), ShouldEqual, "X")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("/music/song.mp3"), ShouldEqual, "song")
		So(FileStem("song"), ShouldEqual, "song")
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(5, 0, 10), ShouldEqual, 5)
		So(Clamp(-1, 0, 10), ShouldEqual, 0)
		So(Clamp(42, 0, 10), ShouldEqual, 10)
	})
}
