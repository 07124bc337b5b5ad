// Package model contains domain models passed between layers.
package model

import (
	"sort"
	"time"

	"github.com/okian/mlbedge/internal/domain/stats"
)

// TeamIdentity names a franchise.
type TeamIdentity struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
}

var franchises = []TeamIdentity{
	{ID: 109, Name: "Arizona Diamondbacks", Abbreviation: "AZ"},
	{ID: 144, Name: "Atlanta Braves", Abbreviation: "ATL"},
	{ID: 110, Name: "Baltimore Orioles", Abbreviation: "BAL"},
	{ID: 111, Name: "Boston Red Sox", Abbreviation: "BOS"},
	{ID: 112, Name: "Chicago Cubs", Abbreviation: "CHC"},
	{ID: 145, Name: "Chicago White Sox", Abbreviation: "CWS"},
	{ID: 113, Name: "Cincinnati Reds", Abbreviation: "CIN"},
	{ID: 114, Name: "Cleveland Guardians", Abbreviation: "CLE"},
	{ID: 115, Name: "Colorado Rockies", Abbreviation: "COL"},
	{ID: 116, Name: "Detroit Tigers", Abbreviation: "DET"},
	{ID: 117, Name: "Houston Astros", Abbreviation: "HOU"},
	{ID: 118, Name: "Kansas City Royals", Abbreviation: "KC"},
	{ID: 108, Name: "Los Angeles Angels", Abbreviation: "LAA"},
	{ID: 119, Name: "Los Angeles Dodgers", Abbreviation: "LAD"},
	{ID: 146, Name: "Miami Marlins", Abbreviation: "MIA"},
	{ID: 158, Name: "Milwaukee Brewers", Abbreviation: "MIL"},
	{ID: 142, Name: "Minnesota Twins", Abbreviation: "MIN"},
	{ID: 121, Name: "New York Mets", Abbreviation: "NYM"},
	{ID: 147, Name: "New York Yankees", Abbreviation: "NYY"},
	{ID: 133, Name: "Oakland Athletics", Abbreviation: "OAK"},
	{ID: 143, Name: "Philadelphia Phillies", Abbreviation: "PHI"},
	{ID: 134, Name: "Pittsburgh Pirates", Abbreviation: "PIT"},
	{ID: 135, Name: "San Diego Padres", Abbreviation: "SD"},
	{ID: 137, Name: "San Francisco Giants", Abbreviation: "SF"},
	{ID: 136, Name: "Seattle Mariners", Abbreviation: "SEA"},
	{ID: 138, Name: "St. Louis Cardinals", Abbreviation: "STL"},
	{ID: 139, Name: "Tampa Bay Rays", Abbreviation: "TB"},
	{ID: 140, Name: "Texas Rangers", Abbreviation: "TEX"},
	{ID: 141, Name: "Toronto Blue Jays", Abbreviation: "TOR"},
	{ID: 120, Name: "Washington Nationals", Abbreviation: "WSH"},
}

// Franchises returns a copy of the static roster sorted by name.
func Franchises() []TeamIdentity {
	out := make([]TeamIdentity, len(franchises))
	copy(out, franchises)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupTeam finds a franchise in the static roster.
func LookupTeam(id int) (TeamIdentity, bool) {
	for _, t := range franchises {
		if t.ID == id {
			return t, true
		}
	}
	return TeamIdentity{}, false
}

// PitcherSummary is a rostered pitcher with season rates.
type PitcherSummary struct {
	ID       int                   `json:"id"`
	Name     string                `json:"name"`
	Position string                `json:"position,omitempty"`
	Season   stats.DerivedPitching `json:"season"`
	Innings  stats.Innings         `json:"innings"`
}

// TeamSeasonStats is the per-team aggregate used by the analyzer.
type TeamSeasonStats struct {
	Team      TeamIdentity          `json:"team"`
	Batting   stats.DerivedBatting  `json:"batting"`
	Pitching  stats.DerivedPitching `json:"pitching"`
	Pitchers  []PitcherSummary      `json:"pitchers"`
	FetchedAt time.Time             `json:"fetched_at"`
}

// Rounded returns a display copy.
func (t TeamSeasonStats) Rounded() TeamSeasonStats {
	out := t
	out.Batting = t.Batting.Round()
	out.Pitching = t.Pitching.Round()
	out.Pitchers = make([]PitcherSummary, len(t.Pitchers))
	for i, p := range t.Pitchers {
		p.Season = p.Season.Round()
		out.Pitchers[i] = p
	}
	return out
}

// GameLine is one pitching appearance from a game log.
type GameLine struct {
	Date     string             `json:"date"`
	Opponent string             `json:"opponent,omitempty"`
	Line     stats.PitchingLine `json:"line"`
}

// PitcherProfile combines season and recent-form views of a pitcher.
type PitcherProfile struct {
	ID     int                   `json:"id"`
	Name   string                `json:"name,omitempty"`
	Season stats.DerivedPitching `json:"season"`
	Recent []GameLine            `json:"recent"`
	// RecentAggregate is derived from the summed counting stats of Recent.
	RecentAggregate stats.DerivedPitching `json:"recent_aggregate"`
}

// Starter picks the line a projection should use: the recent aggregate when
// any starts were logged, otherwise the season rates.
func (p PitcherProfile) Starter() stats.DerivedPitching {
	if len(p.Recent) > 0 {
		return p.RecentAggregate
	}
	return p.Season
}

// Rounded returns a display copy.
func (p PitcherProfile) Rounded() PitcherProfile {
	out := p
	out.Season = p.Season.Round()
	out.RecentAggregate = p.RecentAggregate.Round()
	return out
}
