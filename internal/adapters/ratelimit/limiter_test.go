package ratelimit_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/mlbedge/internal/adapters/ratelimit"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLimiter(t *testing.T) {
	Convey("Given a limiter of three requests per minute", t, func() {
		now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		l := ratelimit.New(ratelimit.WithLimit(3, time.Minute), ratelimit.WithClock(clock))

		Convey("When three requests are made", func() {
			for i := 0; i < 3; i++ {
				So(l.Allow(), ShouldBeNil)
			}

			Convey("Then the fourth is rejected", func() {
				err := l.Allow()
				So(errors.Is(err, ratelimit.ErrRateLimited), ShouldBeTrue)
				So(l.Remaining(), ShouldEqual, 0)
				So(l.Stats().Rejected, ShouldEqual, 1)
			})

			Convey("Then the window resets once a minute has passed", func() {
				now = now.Add(time.Minute)
				So(l.Allow(), ShouldBeNil)
				So(l.Remaining(), ShouldEqual, 2)
			})

			Convey("Then the window does not reset early", func() {
				now = now.Add(59 * time.Second)
				So(l.Allow(), ShouldNotBeNil)
			})
		})

		Convey("When stats are read", func() {
			_ = l.Allow()
			s := l.Stats()

			So(s.Max, ShouldEqual, 3)
			So(s.Used, ShouldEqual, 1)
			So(s.Remaining, ShouldEqual, 2)
			So(s.Window, ShouldEqual, "1m0s")
		})
	})

	Convey("Given concurrent callers", t, func() {
		l := ratelimit.New(ratelimit.WithLimit(50, time.Hour))
		var allowed atomic.Int64
		var wg sync.WaitGroup
		for i := 0; i < 200; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if l.Allow() == nil {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()

		Convey("Then exactly the limit is admitted", func() {
			So(allowed.Load(), ShouldEqual, 50)
		})
	})
}
