package network

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dramaplay/dramaplay/constant"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClient(t *testing.T) {
	Convey("Given a server echoing the User-Agent", t, func() {
		var got string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = r.UserAgent()
		}))
		defer srv.Close()

		Convey("The application User-Agent is stamped", func() {
			resp, err := Client.Get(srv.URL)
			So(err, ShouldBeNil)
			_ = resp.Body.Close()
			So(got, ShouldEqual, constant.UserAgent)
		})

		Convey("An explicit User-Agent is kept", func() {
			req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
			req.Header.Set("User-Agent", "custom")
			resp, err := Client.Do(req)
			So(err, ShouldBeNil)
			_ = resp.Body.Close()
			So(got, ShouldEqual, "custom")
		})
	})
}
