package config

import (
	"testing"

	"github.com/airfeed/airfeed/filesystem"
	"github.com/airfeed/airfeed/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		filesystem.SetMemMapFs()
		defer filesystem.SetOsFs()

		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			So(Setup(), ShouldBeNil)
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("Traversal and prefetch defaults should be sane", func() {
			So(Setup(), ShouldBeNil)
			So(viper.GetString(key.PlaylistMode), ShouldEqual, "normal")
			So(viper.GetInt(key.PlaylistReloadAmount), ShouldEqual, 0)
			So(viper.GetFloat64(key.PrefetchTargetSeconds), ShouldBeGreaterThan, 0)
			So(viper.GetFloat64(key.PrefetchDefaultDuration), ShouldBeGreaterThan, 0)
		})

		Convey("EnvKeyReplacer should convert dots into underscores", func() {
			result := EnvKeyReplacer.Replace("playlist.reload_amount")
			So(result, ShouldEqual, "playlist_reload_amount")
		})

		Convey("Env names should carry the application prefix", func() {
			field := Default[key.PlaylistMode]
			So(field.Env(), ShouldEqual, "AIRFEED_PLAYLIST_MODE")
		})
	})
}
