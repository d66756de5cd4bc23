package log

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/dramaplay/dramaplay/config"
	"github.com/dramaplay/dramaplay/filesystem"
	"github.com/dramaplay/dramaplay/key"
	"github.com/dramaplay/dramaplay/where"
	"github.com/sirupsen/logrus"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
	if err := config.Setup(); err != nil {
		panic(err)
	}
}

func TestSetup(t *testing.T) {
	Convey("Given logging disabled", t, func() {
		viper.Set(key.LogsWrite, false)
		So(Setup(), ShouldBeNil)

		Convey("Everything is discarded", func() {
			So(logger.Out, ShouldEqual, io.Discard)
			So(logger.IsLevelEnabled(logrus.ErrorLevel), ShouldBeFalse)
		})
	})

	Convey("Given logging enabled at debug level", t, func() {
		viper.Set(key.LogsWrite, true)
		viper.Set(key.LogsLevel, "debug")
		viper.Set(key.LogsJson, true)
		Reset(func() {
			viper.Set(key.LogsWrite, false)
			So(Setup(), ShouldBeNil)
		})
		So(Setup(), ShouldBeNil)

		Convey("Entries land in today's file", func() {
			WithFields(logrus.Fields{"episode": 3}).Debugf("attaching %s", "native")

			path := filepath.Join(where.Logs(), time.Now().Format(time.DateOnly)+".log")
			contents, err := filesystem.API().ReadFile(path)
			So(err, ShouldBeNil)
			So(string(contents), ShouldContainSubstring, `"episode":3`)
			So(string(contents), ShouldContainSubstring, "attaching native")
		})

		Convey("An unknown level falls back to info", func() {
			viper.Set(key.LogsLevel, "chatty")
			So(Setup(), ShouldBeNil)
			So(logger.GetLevel(), ShouldEqual, logrus.InfoLevel)
		})
	})
}
