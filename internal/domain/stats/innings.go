package stats

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Innings is innings pitched as a true decimal (6⅔ not 6.2).
type Innings float64

// ParseInnings converts the scorebook notation "W.F", where F counts outs
// (0, 1 or 2), into decimal innings. Empty input is zero innings.
func ParseInnings(s string) (Innings, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "-.--" {
		return 0, nil
	}
	whole, outs, _ := strings.Cut(s, ".")
	w, err := strconv.Atoi(whole)
	if err != nil || w < 0 {
		return 0, fmt.Errorf("%w: innings %q", ErrInvalidInnings, s)
	}
	o := 0
	if outs != "" {
		o, err = strconv.Atoi(outs)
		if err != nil || o < 0 || o > 2 {
			return 0, fmt.Errorf("%w: innings %q", ErrInvalidInnings, s)
		}
	}
	return Innings(float64(w) + float64(o)/3), nil
}

// Outs returns the number of recorded outs.
func (i Innings) Outs() int {
	return int(math.Round(float64(i) * 3))
}

// String renders scorebook notation.
func (i Innings) String() string {
	outs := i.Outs()
	return fmt.Sprintf("%d.%d", outs/3, outs%3)
}

// UnmarshalJSON accepts "6.2", 6.2 or 6.
func (i *Innings) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*i = 0
		return nil
	}
	var raw string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	} else {
		raw = string(b)
	}
	v, err := ParseInnings(raw)
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// MarshalJSON emits scorebook notation so a round trip is lossless.
func (i Innings) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}
