package filesystem

import (
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAPI(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			So(API().Name(), ShouldEqual, "MemMapFS")
		})

		Convey("Should restore OsFs", func() {
			SetOsFs()
			So(API().Name(), ShouldEqual, "OsFs")
			SetMemMapFs()
		})

		Convey("CacheFs writes through the active backend", func() {
			SetMemMapFs()
			So(CacheFs{}.MkdirAll("/cache", 0o755), ShouldBeNil)
			f, err := CacheFs{}.OpenFile("/cache/x.json", os.O_RDWR|os.O_CREATE, 0o644)
			So(err, ShouldBeNil)
			_, err = f.Write([]byte("{}"))
			So(err, ShouldBeNil)
			So(f.Close(), ShouldBeNil)

			exists, err := API().Exists("/cache/x.json")
			So(err, ShouldBeNil)
			So(exists, ShouldBeTrue)
		})
	})
}
