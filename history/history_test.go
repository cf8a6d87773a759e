package history

import (
	"testing"

	"github.com/airfeed/airfeed/filesystem"
	"github.com/airfeed/airfeed/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestHistory(t *testing.T) {
	Convey("Given a clean history", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		viper.Set(key.HistorySave, true)
		viper.Set(key.HistorySuggestions, true)
		defer viper.Reset()

		So(Remember("file:///music/morning.m3u", 1), ShouldBeNil)
		So(Remember("file:///music/evening.m3u", 1), ShouldBeNil)
		So(Remember("file:///music/morning.m3u", 1), ShouldBeNil)

		Convey("Suggestions rank the most played URI first", func() {
			suggestions := SuggestMany("morning")
			So(suggestions, ShouldNotBeEmpty)
			So(suggestions[0], ShouldEqual, "file:///music/morning.m3u")
		})

		Convey("Suggest returns the top match", func() {
			So(Suggest("evening").MustGet(), ShouldEqual, "file:///music/evening.m3u")
		})

		Convey("Suggestions can be disabled", func() {
			viper.Set(key.HistorySuggestions, false)
			So(SuggestMany("morning"), ShouldBeEmpty)
		})
	})
}
