package transport_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/mlbedge/internal/adapters/transport"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStrategies(t *testing.T) {
	Convey("Given a direct and a proxy strategy", t, func() {
		d := transport.NewDirect("https://statsapi.mlb.com/api/v1/")
		q := url.Values{"season": {"2024"}, "group": {"hitting"}}

		Convey("Then the direct URL joins base, path and sorted query", func() {
			So(d.URL("/teams/147/stats", q), ShouldEqual, "https://statsapi.mlb.com/api/v1/teams/147/stats?group=hitting&season=2024")
			So(d.URL("teams", nil), ShouldEqual, "https://statsapi.mlb.com/api/v1/teams")
		})

		Convey("Then a query-style proxy escapes the target", func() {
			p := transport.NewProxy("https://relay.example/?url=", "https://statsapi.mlb.com/api/v1")
			So(p.URL("teams", url.Values{"sportId": {"1"}}), ShouldEqual,
				"https://relay.example/?url="+url.QueryEscape("https://statsapi.mlb.com/api/v1/teams?sportId=1"))
		})

		Convey("Then a path-style proxy appends the raw target", func() {
			p := transport.NewProxy("https://relay.example/", "https://statsapi.mlb.com/api/v1")
			So(p.URL("teams", nil), ShouldEqual, "https://relay.example/https://statsapi.mlb.com/api/v1/teams")
		})

		Convey("Then the proxy request carries the relay header", func() {
			p := transport.NewProxy("https://relay.example/", "https://statsapi.mlb.com/api/v1")
			req, err := p.NewRequest(context.Background(), "teams", nil)
			So(err, ShouldBeNil)
			So(req.Header.Get("X-Requested-With"), ShouldEqual, "XMLHttpRequest")
			So(req.Header.Get("Accept"), ShouldEqual, "application/json")
		})
	})
}

func TestChainGet(t *testing.T) {
	Convey("Given a failing direct origin and a working proxy", t, func() {
		var directHits, proxyHits int32
		direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&directHits, 1)
			w.WriteHeader(http.StatusForbidden)
		}))
		defer direct.Close()
		proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&proxyHits, 1)
			_, _ = w.Write([]byte(`{"teams":[]}`))
		}))
		defer proxy.Close()

		c := transport.NewChain([]transport.Strategy{
			transport.NewDirect(direct.URL),
			transport.NewProxy(proxy.URL+"/?", direct.URL),
		})

		Convey("When a request is made", func() {
			resp, err := c.Get(context.Background(), "teams", nil)

			Convey("Then the proxy answers after the direct failure", func() {
				So(err, ShouldBeNil)
				So(resp.Strategy, ShouldEqual, "proxy")
				So(string(resp.Body), ShouldEqual, `{"teams":[]}`)
				So(atomic.LoadInt32(&directHits), ShouldEqual, 1)
				So(atomic.LoadInt32(&proxyHits), ShouldEqual, 1)
			})
		})

		Convey("Then the strategy order is reported", func() {
			So(c.Strategies(), ShouldResemble, []string{"direct", "proxy"})
		})
	})

	Convey("Given every strategy returns a server error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		c := transport.NewChain([]transport.Strategy{transport.NewDirect(srv.URL)})

		_, err := c.Get(context.Background(), "teams", nil)

		Convey("Then the error carries the kind and status", func() {
			So(errors.Is(err, transport.ErrUpstreamStatus), ShouldBeTrue)
			var te *transport.Error
			So(errors.As(err, &te), ShouldBeTrue)
			So(te.StatusCode, ShouldEqual, http.StatusBadGateway)
			So(te.Strategy, ShouldEqual, "direct")
		})
	})

	Convey("Given a client error", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()
		c := transport.NewChain([]transport.Strategy{transport.NewDirect(srv.URL)})

		_, err := c.Get(context.Background(), "people/0", nil)
		var te *transport.Error
		So(errors.As(err, &te), ShouldBeTrue)
		So(te.StatusCode, ShouldEqual, http.StatusNotFound)
		So(errors.Is(err, transport.ErrUpstreamStatus), ShouldBeTrue)
	})

	Convey("Given a slow origin", t, func() {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(release)

		c := transport.NewChain([]transport.Strategy{transport.NewDirect(srv.URL)},
			transport.WithTimeout(50*time.Millisecond))

		_, err := c.Get(context.Background(), "teams", nil)

		Convey("Then the request times out", func() {
			So(errors.Is(err, transport.ErrTimeout), ShouldBeTrue)
		})
	})

	Convey("Given a chain without strategies", t, func() {
		_, err := transport.NewChain(nil).Get(context.Background(), "teams", nil)
		So(errors.Is(err, transport.ErrNoStrategies), ShouldBeTrue)
	})

	Convey("Given a paced strategy whose next slot is past the deadline", t, func() {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		c := transport.NewChain([]transport.Strategy{transport.NewDirect(srv.URL)},
			transport.WithPacing(0.01, 1),
			transport.WithTimeout(100*time.Millisecond))

		_, first := c.Get(context.Background(), "teams", nil)
		So(first, ShouldBeNil)

		_, err := c.Get(context.Background(), "teams", nil)

		Convey("Then the wait fails as a timeout without reaching the origin", func() {
			So(errors.Is(err, transport.ErrTimeout), ShouldBeTrue)
			So(errors.Is(err, transport.ErrNetwork), ShouldBeFalse)
			So(atomic.LoadInt32(&hits), ShouldEqual, 1)
		})
	})

	Convey("Given an origin whose body exceeds the limit", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"teams":[1,2,3]}`))
		}))
		defer srv.Close()

		Convey("When the limit is one byte short", func() {
			c := transport.NewChain([]transport.Strategy{transport.NewDirect(srv.URL)},
				transport.WithMaxBody(int64(len(`{"teams":[1,2,3]}`)-1)))
			resp, err := c.Get(context.Background(), "teams", nil)

			Convey("Then the attempt fails instead of returning a truncated body", func() {
				So(resp, ShouldBeNil)
				So(errors.Is(err, transport.ErrBodyTooLarge), ShouldBeTrue)
				So(errors.Is(err, transport.ErrNetwork), ShouldBeTrue)
			})
		})

		Convey("When the body fits exactly", func() {
			c := transport.NewChain([]transport.Strategy{transport.NewDirect(srv.URL)},
				transport.WithMaxBody(int64(len(`{"teams":[1,2,3]}`))))
			resp, err := c.Get(context.Background(), "teams", nil)

			Convey("Then it is returned whole", func() {
				So(err, ShouldBeNil)
				So(string(resp.Body), ShouldEqual, `{"teams":[1,2,3]}`)
			})
		})
	})
}

func TestChainBreaker(t *testing.T) {
	Convey("Given an origin that always fails", t, func() {
		var hits int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := transport.NewChain([]transport.Strategy{transport.NewDirect(srv.URL)},
			transport.WithBreaker(2, 0.5, time.Minute))

		for i := 0; i < 2; i++ {
			_, _ = c.Get(context.Background(), "teams", nil)
		}

		Convey("When the breaker has tripped", func() {
			_, err := c.Get(context.Background(), "teams", nil)

			Convey("Then requests short-circuit without reaching the origin", func() {
				So(errors.Is(err, transport.ErrCircuitOpen), ShouldBeTrue)
				So(atomic.LoadInt32(&hits), ShouldEqual, 2)
				So(c.BreakerStates()["direct"], ShouldEqual, "open")
			})
		})
	})
}
