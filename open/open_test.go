package open

import (
	"runtime"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCommand(t *testing.T) {
	Convey("Given an embedded player URL", t, func() {
		url := "https://player.example.com/embed/42?a=1&b=2"

		Convey("A named application receives the URL as its last argument", func() {
			if runtime.GOOS != "linux" {
				return
			}
			cmd, err := Command(url, "firefox")
			So(err, ShouldBeNil)
			So(cmd.Args, ShouldResemble, []string{"firefox", url})
		})

		Convey("The default handler is used without an application", func() {
			if runtime.GOOS != "linux" {
				return
			}
			cmd, err := Command(url, "")
			So(err, ShouldBeNil)
			So(cmd.Args[0], ShouldEqual, "xdg-open")
		})
	})
}
