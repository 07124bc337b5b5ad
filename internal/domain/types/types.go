// Package types contains small value types shared across the application.
package types

import (
	"fmt"
	"strings"
)

// Weather is a categorical game-time weather condition.
type Weather string

// Supported weather conditions.
const (
	WeatherNormal  Weather = "normal"
	WeatherWindOut Weather = "wind_out"
	WeatherWindIn  Weather = "wind_in"
	WeatherRain    Weather = "rain"
	WeatherHot     Weather = "hot"
	WeatherCold    Weather = "cold"
	WeatherDome    Weather = "dome"
)

// WeatherFactor scales projected scoring for a condition.
type WeatherFactor struct {
	RunsMultiplier    float64 `json:"runs_multiplier"`
	HomeRunMultiplier float64 `json:"home_run_multiplier"`
}

var weatherTable = map[Weather]WeatherFactor{
	WeatherNormal:  {RunsMultiplier: 1.0, HomeRunMultiplier: 1.0},
	WeatherWindOut: {RunsMultiplier: 1.15, HomeRunMultiplier: 1.3},
	WeatherWindIn:  {RunsMultiplier: 0.85, HomeRunMultiplier: 0.7},
	WeatherRain:    {RunsMultiplier: 0.9, HomeRunMultiplier: 0.85},
	WeatherHot:     {RunsMultiplier: 1.1, HomeRunMultiplier: 1.15},
	WeatherCold:    {RunsMultiplier: 0.9, HomeRunMultiplier: 0.8},
	WeatherDome:    {RunsMultiplier: 1.0, HomeRunMultiplier: 1.0},
}

// Weathers lists every condition in a stable order.
func Weathers() []Weather {
	return []Weather{WeatherNormal, WeatherWindOut, WeatherWindIn, WeatherRain, WeatherHot, WeatherCold, WeatherDome}
}

// ParseWeather maps user input onto a known condition. Empty input means normal.
func ParseWeather(s string) (Weather, error) {
	w := Weather(strings.ToLower(strings.TrimSpace(s)))
	if w == "" {
		return WeatherNormal, nil
	}
	if _, ok := weatherTable[w]; !ok {
		return "", fmt.Errorf("unknown weather condition %q", s)
	}
	return w, nil
}

// Valid reports whether w is in the factor table.
func (w Weather) Valid() bool {
	_, ok := weatherTable[w]
	return ok
}

// Factor returns the multipliers for w. Unknown conditions use the neutral factor.
func (w Weather) Factor() WeatherFactor {
	if f, ok := weatherTable[w]; ok {
		return f
	}
	return weatherTable[WeatherNormal]
}

// Neutral is true for conditions that carry no scoring note.
func (w Weather) Neutral() bool {
	return w == WeatherNormal || w == WeatherDome
}

// RecommendationKind discriminates value recommendations.
type RecommendationKind string

const (
	KindWeatherNote      RecommendationKind = "weather-note"
	KindSpread           RecommendationKind = "spread"
	KindTotal            RecommendationKind = "total"
	KindInsufficientData RecommendationKind = "insufficient-data"
)

// Side of a matchup.
type Side string

const (
	SideHome Side = "home"
	SideAway Side = "away"
)

// Direction of a total recommendation.
type Direction string

const (
	DirectionOver  Direction = "over"
	DirectionUnder Direction = "under"
)

// Confidence grades a value report.
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// Fatigue classifies recent bullpen workload.
type Fatigue string

const (
	FatigueFresh     Fatigue = "green"
	FatigueModerate  Fatigue = "yellow"
	FatigueTired     Fatigue = "orange"
	FatigueExhausted Fatigue = "red"
)

// Available reports whether an arm at this level can pitch today.
func (f Fatigue) Available() bool { return f != FatigueExhausted }
