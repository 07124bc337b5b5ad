package mlbapi_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/okian/mlbedge/internal/adapters/fetcher"
	"github.com/okian/mlbedge/internal/adapters/mlbapi"
	"github.com/okian/mlbedge/internal/adapters/ratelimit"
	"github.com/okian/mlbedge/internal/adapters/transport"
	"github.com/okian/mlbedge/internal/domain/model"
	"github.com/okian/mlbedge/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type reply struct {
	body string
	err  error
}

type fakeFetcher struct {
	replies map[string]reply
	params  map[string]url.Values
}

func newFake() *fakeFetcher {
	return &fakeFetcher{replies: map[string]reply{}, params: map[string]url.Values{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, endpoint string, params url.Values, fallback []byte) ([]byte, error) {
	f.params[endpoint] = params
	r, ok := f.replies[endpoint]
	if !ok {
		return nil, fmt.Errorf("unexpected endpoint %s", endpoint)
	}
	if errors.Is(r.err, fetcher.ErrExhausted) {
		if fallback == nil {
			fallback = fetcher.DefaultFallback
		}
		return fallback, r.err
	}
	if r.err != nil {
		return nil, r.err
	}
	return []byte(r.body), nil
}

const teamStatsBody = `{"stats":[
 {"type":{"displayName":"season"},"group":{"displayName":"hitting"},"splits":[{"season":"2024","stat":
  {"atBats":5500,"hits":1400,"doubles":280,"triples":20,"homeRuns":200,"baseOnBalls":550,"hitByPitch":60,"sacFlies":40,"strikeOuts":1350,"avg":".255","obp":".330"}}]},
 {"type":{"displayName":"season"},"group":{"displayName":"pitching"},"splits":[{"season":"2024","stat":
  {"inningsPitched":"1450.1","earnedRuns":600,"hits":1300,"baseOnBalls":480,"strikeOuts":1500,"era":"3.72"}}]}
]}`

func TestTeamStats(t *testing.T) {
	Convey("Given a client over canned payloads", t, func() {
		f := newFake()
		c := mlbapi.NewClient(f, mlbapi.WithSeason(2023))

		Convey("When both groups are present", func() {
			f.replies["teams/147/stats"] = reply{body: teamStatsBody}
			lines, err := c.TeamStats(context.Background(), 147)

			Convey("Then rates derive from counting stats", func() {
				So(err, ShouldBeNil)
				So(lines.BattingLine.AtBats, ShouldEqual, 5500)
				So(lines.Batting.AVG, ShouldAlmostEqual, 1400.0/5500.0, 1e-9)
				So(lines.Batting.ISO, ShouldAlmostEqual, lines.Batting.SLG-lines.Batting.AVG, 1e-12)
				So(lines.Pitching.ERA, ShouldAlmostEqual, 600*9/(1450+1.0/3), 1e-9)
			})

			Convey("Then the season and groups are requested", func() {
				p := f.params["teams/147/stats"]
				So(p.Get("season"), ShouldEqual, "2023")
				So(p.Get("group"), ShouldEqual, "hitting,pitching")
				So(p.Get("stats"), ShouldEqual, "season")
			})
		})

		Convey("When the pitching group is missing", func() {
			f.replies["teams/147/stats"] = reply{body: `{"stats":[{"group":{"displayName":"hitting"},"splits":[{"stat":{"atBats":10}}]}]}`}
			_, err := c.TeamStats(context.Background(), 147)
			So(errors.Is(err, mlbapi.ErrDataShape), ShouldBeTrue)
		})

		Convey("When only reported ratios are available", func() {
			f.replies["teams/147/stats"] = reply{body: `{"stats":[
				{"group":{"displayName":"hitting"},"splits":[{"stat":{"avg":".250","obp":".320","slg":".410"}}]},
				{"group":{"displayName":"pitching"},"splits":[{"stat":{"era":"4.10","whip":"1.28"}}]}]}`}
			lines, err := c.TeamStats(context.Background(), 147)

			Convey("Then the ratios are used and the identities hold", func() {
				So(err, ShouldBeNil)
				So(lines.Batting.OBP, ShouldEqual, 0.320)
				So(lines.Batting.ISO, ShouldAlmostEqual, 0.160, 1e-9)
				So(lines.Batting.OPS, ShouldAlmostEqual, 0.730, 1e-9)
				So(lines.Pitching.WHIP, ShouldEqual, 1.28)
			})
		})

		Convey("When the fetch is exhausted", func() {
			f.replies["teams/147/stats"] = reply{err: fmt.Errorf("%w: boom", fetcher.ErrExhausted)}
			lines, err := c.TeamStats(context.Background(), 147)

			Convey("Then zero values come back with the error", func() {
				So(errors.Is(err, fetcher.ErrExhausted), ShouldBeTrue)
				So(errors.Is(err, mlbapi.ErrDataShape), ShouldBeFalse)
				So(lines, ShouldResemble, mlbapi.TeamStatLines{})
			})
		})

		Convey("When the response is not JSON", func() {
			f.replies["teams/147/stats"] = reply{err: fmt.Errorf("%w: teams", fetcher.ErrInvalidPayload)}
			_, err := c.TeamStats(context.Background(), 147)
			So(errors.Is(err, mlbapi.ErrDataShape), ShouldBeTrue)
		})

		Convey("When the limiter rejects", func() {
			f.replies["teams/147/stats"] = reply{err: ratelimit.ErrRateLimited}
			_, err := c.TeamStats(context.Background(), 147)
			So(errors.Is(err, ratelimit.ErrRateLimited), ShouldBeTrue)
		})
	})
}

func TestRosterAndPitchers(t *testing.T) {
	Convey("Given a roster with mixed positions", t, func() {
		f := newFake()
		f.replies["teams/147/roster"] = reply{body: `{"roster":[
			{"person":{"id":1,"fullName":"Gerrit Cole"},"jerseyNumber":"45","position":{"code":"1","abbreviation":"P"}},
			{"person":{"id":2,"fullName":"Aaron Judge"},"jerseyNumber":"99","position":{"code":"9","abbreviation":"RF"}},
			{"person":{"id":3,"fullName":"Clay Holmes"},"position":{"code":"1","abbreviation":"P"}}]}`}
		c := mlbapi.NewClient(f)

		roster, err := c.ActiveRoster(context.Background(), 147)

		Convey("Then only position code 1 counts as a pitcher", func() {
			So(err, ShouldBeNil)
			So(len(roster), ShouldEqual, 3)
			p := mlbapi.Pitchers(roster)
			So(len(p), ShouldEqual, 2)
			So(p[0].Name, ShouldEqual, "Gerrit Cole")
			So(p[1].ID, ShouldEqual, 3)
			So(f.params["teams/147/roster"].Get("rosterType"), ShouldEqual, "active")
		})
	})

	Convey("Given a pitcher with a season line", t, func() {
		f := newFake()
		f.replies["people/45/stats"] = reply{body: `{"stats":[{"group":{"displayName":"pitching"},"splits":[{"stat":
			{"inningsPitched":"6.2","earnedRuns":2,"hits":5,"baseOnBalls":1,"strikeOuts":9}}]}]}`}
		c := mlbapi.NewClient(f)

		season, ip, err := c.PitcherSeason(context.Background(), 45)

		So(err, ShouldBeNil)
		So(float64(ip), ShouldAlmostEqual, 6.667, 0.001)
		So(season.WHIP, ShouldAlmostEqual, 6/(6+2.0/3), 1e-9)
		So(season.K9, ShouldAlmostEqual, 81/(6+2.0/3), 1e-9)
	})
}

func TestPitcherGameLog(t *testing.T) {
	Convey("Given an unordered game log", t, func() {
		f := newFake()
		f.replies["people/45/stats"] = reply{body: `{"stats":[{"type":{"displayName":"gameLog"},"group":{"displayName":"pitching"},"splits":[
			{"date":"2024-04-02","opponent":{"name":"Astros"},"stat":{"inningsPitched":"5.0","earnedRuns":3}},
			{"date":"2024-04-14","opponent":{"name":"Guardians"},"stat":{"inningsPitched":"7.1","earnedRuns":1}},
			{"date":"2024-04-08","opponent":{"name":"Marlins"},"stat":{"inningsPitched":"6.0","earnedRuns":2}},
			{"date":"2024-04-20","opponent":{"name":"Rays"},"stat":{"inningsPitched":"4.2","earnedRuns":5}}]}]}`}
		c := mlbapi.NewClient(f)

		games, err := c.PitcherGameLog(context.Background(), 45, 3)

		Convey("Then the three most recent come back newest first", func() {
			So(err, ShouldBeNil)
			So(len(games), ShouldEqual, 3)
			So(games[0].Date, ShouldEqual, "2024-04-20")
			So(games[1].Opponent, ShouldEqual, "Guardians")
			So(games[2].Date, ShouldEqual, "2024-04-08")
			So(f.params["people/45/stats"].Get("stats"), ShouldEqual, "gameLog")
		})
	})
}

func TestVenue(t *testing.T) {
	Convey("Given venue payloads", t, func() {
		f := newFake()
		c := mlbapi.NewClient(f)

		Convey("When dimensions and field info are present", func() {
			f.replies["teams/147/venue"] = reply{body: `{"venue":{"name":"Yankee Stadium",
				"dimensions":{"leftField":318,"centerField":"408","rightField":314},
				"fieldInfo":{"turfType":"Grass","roofType":"Open"}}}`}
			bp, err := c.Venue(context.Background(), 147)

			So(err, ShouldBeNil)
			So(bp.Name, ShouldEqual, "Yankee Stadium")
			So(int(bp.Dimensions.CenterField), ShouldEqual, 408)
			So(bp.Surface, ShouldEqual, "Grass")
			So(bp.Roof, ShouldEqual, "Open")
			So(bp.Factors, ShouldNotBeNil)
			So(bp.Factors.LeftField, ShouldEqual, 1.15)
		})

		Convey("When only field info lines are present", func() {
			f.replies["teams/111/venue"] = reply{body: `{"venue":{"name":"Fenway Park","fieldInfo":{"leftLine":310,"center":390,"rightLine":302}}}`}
			bp, err := c.Venue(context.Background(), 111)

			So(err, ShouldBeNil)
			So(int(bp.Dimensions.LeftField), ShouldEqual, 310)
			So(bp.Surface, ShouldEqual, model.NotAvailable)
		})

		Convey("When the fetch is exhausted", func() {
			f.replies["teams/147/venue"] = reply{err: fetcher.ErrExhausted}
			bp, err := c.Venue(context.Background(), 147)

			So(errors.Is(err, fetcher.ErrExhausted), ShouldBeTrue)
			So(bp.Name, ShouldEqual, model.NotAvailable)
			So(bp.Dimensions.Complete(), ShouldBeFalse)
			So(bp.Factors, ShouldBeNil)
		})
	})
}

func TestInjuriesHeadToHeadBullpen(t *testing.T) {
	Convey("Given a client", t, func() {
		f := newFake()
		c := mlbapi.NewClient(f, mlbapi.WithBullpenGames(5))

		Convey("When injuries are reported", func() {
			f.replies["teams/147/roster/injuries"] = reply{body: `{"injuries":[
				{"player":{"id":7,"fullName":"Giancarlo Stanton","primaryPosition":{"name":"Designated Hitter"}},"status":"10-Day IL","description":"Hamstring"},
				{"player":{"id":8}}]}`}
			in, err := c.Injuries(context.Background(), 147)

			So(err, ShouldBeNil)
			So(len(in), ShouldEqual, 2)
			So(in[0].Position, ShouldEqual, "Designated Hitter")
			So(in[1].Player, ShouldEqual, "Unknown")
			So(in[1].Status, ShouldEqual, "Unknown")
		})

		Convey("When the schedule has completed and pending games", func() {
			f.replies["schedule/games"] = reply{body: `{"dates":[
				{"date":"2024-05-01","games":[{"gamePk":1,"status":{"abstractGameState":"Final"},
					"teams":{"home":{"team":{"id":147,"name":"Yankees"},"score":5},"away":{"team":{"id":111,"name":"Red Sox"},"score":3}}}]},
				{"date":"2024-05-02","games":[{"gamePk":2,"status":{"abstractGameState":"Final"},
					"teams":{"home":{"team":{"id":147,"name":"Yankees"},"score":1},"away":{"team":{"id":111,"name":"Red Sox"},"score":4}}}]},
				{"date":"2024-06-10","games":[{"gamePk":3,"status":{"abstractGameState":"Final"},
					"teams":{"home":{"team":{"id":111,"name":"Red Sox"},"score":2},"away":{"team":{"id":147,"name":"Yankees"},"score":6}}}]},
				{"date":"2024-09-12","games":[{"gamePk":4,"status":{"abstractGameState":"Preview"},
					"teams":{"home":{"team":{"id":111}},"away":{"team":{"id":147}}}}]}]}`}
			h, err := c.HeadToHead(context.Background(), 147, 111)

			Convey("Then the record is from the requesting team's side", func() {
				So(err, ShouldBeNil)
				So(h.Wins, ShouldEqual, 2)
				So(h.Losses, ShouldEqual, 1)
				So(len(h.LastGames), ShouldEqual, 3)
				So(h.LastGames[0].GamePK, ShouldEqual, 3)
				So(h.LastGames[0].Won, ShouldBeTrue)
				So(f.params["schedule/games"].Get("opponent"), ShouldEqual, "111")
			})
		})

		Convey("When bullpen usage is returned", func() {
			f.replies["teams/147/stats/pitching"] = reply{body: `{"stats":[{"group":{"displayName":"pitching"},"splits":[
				{"player":{"id":30,"fullName":"Luke Weaver"},"stat":{"gamesPlayed":2,"numberOfPitches":31,"inningsPitched":"2.0"}},
				{"player":{"id":31,"fullName":"Tommy Kahnle"},"stat":{"gamesPlayed":3,"numberOfPitches":80,"inningsPitched":"3.1"}}]}]}`}
			arms, err := c.Bullpen(context.Background(), 147)

			Convey("Then fatigue and availability follow pitch counts", func() {
				So(err, ShouldBeNil)
				So(len(arms), ShouldEqual, 2)
				So(arms[0].Fatigue, ShouldEqual, types.FatigueModerate)
				So(arms[0].Available, ShouldBeTrue)
				So(arms[1].Fatigue, ShouldEqual, types.FatigueExhausted)
				So(arms[1].Available, ShouldBeFalse)
				So(f.params["teams/147/stats/pitching"].Get("lastGames"), ShouldEqual, "5")
			})
		})

		Convey("When the bullpen fetch is exhausted", func() {
			f.replies["teams/147/stats/pitching"] = reply{err: fetcher.ErrExhausted}
			arms, err := c.Bullpen(context.Background(), 147)
			So(errors.Is(err, fetcher.ErrExhausted), ShouldBeTrue)
			So(arms, ShouldBeEmpty)
		})
	})
}

func TestClientOverHTTP(t *testing.T) {
	Convey("Given the full data access stack against a test server", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/v1/teams":
				_, _ = w.Write([]byte(`{"teams":[{"id":147,"name":"New York Yankees","abbreviation":"NYY"},{"id":111,"name":"Boston Red Sox","abbreviation":"BOS"}]}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer srv.Close()

		chain := transport.NewChain([]transport.Strategy{transport.NewDirect(srv.URL + "/api/v1")})
		fe := fetcher.New(chain, fetcher.WithRetry(2, time.Millisecond))
		c := mlbapi.NewClient(fe)

		teams, err := c.Teams(context.Background())

		Convey("Then teams decode sorted by name", func() {
			So(err, ShouldBeNil)
			So(len(teams), ShouldEqual, 2)
			So(teams[0].Abbreviation, ShouldEqual, "BOS")
		})

		Convey("Then unknown resources fall back to empty values", func() {
			in, err := c.Injuries(context.Background(), 999)
			So(errors.Is(err, fetcher.ErrExhausted), ShouldBeTrue)
			So(in, ShouldBeEmpty)
		})
	})
}
