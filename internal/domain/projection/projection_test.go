package projection_test

import (
	"math"
	"testing"

	"github.com/okian/mlbedge/internal/domain/projection"
	"github.com/okian/mlbedge/internal/domain/stats"
	"github.com/okian/mlbedge/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func leagueAverageSide() projection.SideInput {
	return projection.SideInput{
		Batting: stats.DerivedBatting{AVG: 0.250, OBP: 0.320, SLG: 0.410, ISO: 0.160, BABIP: 0.295, OPS: 0.730},
		Starter: projection.Starter{ERA: 4.5, WHIP: 1.3, K9: 8.5},
	}
}

func TestProjector(t *testing.T) {
	Convey("Given a projector with default weights", t, func() {
		p := projection.NewProjector()
		side := leagueAverageSide()

		Convey("When projecting a league-average side in normal weather", func() {
			runs := p.Project(side, types.WeatherNormal)

			Convey("Then the linear model is applied without weather adjustment", func() {
				want := 0.730*4.0 + (1-1.3)*2.5 + 0.295*1.5 + 0.160*2.0
				So(runs, ShouldAlmostEqual, want, 1e-9)
			})
		})

		Convey("When the wind is blowing out", func() {
			normal := p.Project(side, types.WeatherNormal)
			windy := p.Project(side, types.WeatherWindOut)

			Convey("Then runs scale and gain the home run bump", func() {
				So(windy, ShouldAlmostEqual, normal*1.15+0.160*0.3*0.5, 1e-9)
			})
		})

		Convey("When the wind is blowing in", func() {
			So(p.Project(side, types.WeatherWindIn), ShouldBeLessThan, p.Project(side, types.WeatherNormal))
		})

		Convey("When a side is extremely strong", func() {
			side.Batting.OPS = 3.0
			side.Batting.ISO = 1.0

			Convey("Then projected runs are capped", func() {
				So(p.Project(side, types.WeatherWindOut), ShouldEqual, 8)
			})
		})

		Convey("When a side is extremely weak", func() {
			side.Batting = stats.DerivedBatting{}
			side.Starter = projection.Starter{WHIP: 4}

			Convey("Then projected runs are floored", func() {
				So(p.Project(side, types.WeatherCold), ShouldEqual, 2)
			})
		})

		Convey("When inputs are not finite", func() {
			side.Batting.OPS = math.NaN()
			So(p.Project(side, types.WeatherNormal), ShouldEqual, 2)

			side.Batting.OPS = math.Inf(1)
			So(p.Project(side, types.WeatherNormal), ShouldEqual, 2)
		})

		Convey("When sweeping every weather over a range of inputs", func() {
			for _, w := range types.Weathers() {
				for ops := 0.0; ops <= 1.5; ops += 0.25 {
					for whip := 0.5; whip <= 2.5; whip += 0.5 {
						in := side
						in.Batting.OPS = ops
						in.Starter.WHIP = whip
						r := p.Project(in, w)
						So(r, ShouldBeBetweenOrEqual, 2.0, 8.0)
					}
				}
			}
		})
	})

	Convey("Given custom weights and bounds", t, func() {
		w := projection.DefaultWeights()
		w.OPS = 15
		p := projection.NewProjector(projection.WithWeights(w), projection.WithBounds(1, 12))

		lo, hi := p.Bounds()
		So(lo, ShouldEqual, 1)
		So(hi, ShouldEqual, 12)
		So(p.Project(leagueAverageSide(), types.WeatherNormal), ShouldBeGreaterThan, 8)

		Convey("When the bounds are inverted they are ignored", func() {
			p := projection.NewProjector(projection.WithBounds(9, 3))
			lo, hi := p.Bounds()
			So(lo, ShouldEqual, 2)
			So(hi, ShouldEqual, 8)
		})
	})
}

func TestStarterFallback(t *testing.T) {
	Convey("Given a team pitching aggregate", t, func() {
		team := stats.DerivedPitching{ERA: 3.9, WHIP: 1.22, K9: 9.1, BB9: 3.0}

		Convey("Then the fallback starter keeps ERA and WHIP but zeroes K/9", func() {
			s := projection.StarterFallback(team)
			So(s.ERA, ShouldEqual, 3.9)
			So(s.WHIP, ShouldEqual, 1.22)
			So(s.K9, ShouldEqual, 0)
		})

		Convey("Then a known starter keeps K/9", func() {
			So(projection.StarterFrom(team).K9, ShouldEqual, 9.1)
		})
	})
}
