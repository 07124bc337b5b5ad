package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// NotAvailable is rendered for any unknown ballpark attribute.
const NotAvailable = "N/A"

// Distance is a fence distance in feet. Zero means unknown and marshals as "N/A".
type Distance int

// Known reports whether the distance was supplied.
func (d Distance) Known() bool { return d > 0 }

// MarshalJSON emits the number or the "N/A" sentinel.
func (d Distance) MarshalJSON() ([]byte, error) {
	if !d.Known() {
		return json.Marshal(NotAvailable)
	}
	return []byte(strconv.Itoa(int(d))), nil
}

// UnmarshalJSON accepts numbers, numeric strings and "N/A".
func (d *Distance) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = 0
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*d = 0
		return nil
	}
	*d = Distance(v)
	return nil
}

// BallparkDimensions describes outfield geometry.
type BallparkDimensions struct {
	LeftField   Distance `json:"left_field"`
	CenterField Distance `json:"center_field"`
	RightField  Distance `json:"right_field"`
}

// Complete reports whether all three distances are known.
func (d BallparkDimensions) Complete() bool {
	return d.LeftField.Known() && d.CenterField.Known() && d.RightField.Known()
}

// ParkFactors are coarse scoring multipliers inferred from dimensions.
type ParkFactors struct {
	Overall     float64 `json:"overall"`
	LeftField   float64 `json:"left_field"`
	CenterField float64 `json:"center_field"`
	RightField  float64 `json:"right_field"`
}

// Ballpark is a team's home venue.
type Ballpark struct {
	Name       string             `json:"name"`
	Dimensions BallparkDimensions `json:"dimensions"`
	Surface    string             `json:"surface"`
	Roof       string             `json:"roof"`
	Factors    *ParkFactors       `json:"park_factors,omitempty"`
}

// UnknownBallpark is returned when venue data is unavailable.
func UnknownBallpark() Ballpark {
	return Ballpark{Name: NotAvailable, Surface: NotAvailable, Roof: NotAvailable}
}

// EstimateParkFactors derives factors from fence distances. It returns nil
// unless every distance is known.
func EstimateParkFactors(d BallparkDimensions) *ParkFactors {
	if !d.Complete() {
		return nil
	}
	lf, cf, rf := float64(d.LeftField), float64(d.CenterField), float64(d.RightField)
	avg := (lf + cf + rf) / 3
	return &ParkFactors{
		Overall:     band(avg, 380, 400, 1.1, 0.9),
		LeftField:   band(lf, 330, 350, 1.15, 0.85),
		CenterField: band(cf, 400, 420, 1.1, 0.9),
		RightField:  band(rf, 330, 350, 1.15, 0.85),
	}
}

// band returns short below lo, deep above hi and 1 in between.
func band(v, lo, hi, short, deep float64) float64 {
	switch {
	case v < lo:
		return short
	case v > hi:
		return deep
	default:
		return 1.0
	}
}
