package mlbapi

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/okian/mlbedge/internal/domain/model"
	"github.com/okian/mlbedge/internal/domain/stats"
)

// FlexFloat decodes numbers that the API sends either as JSON numbers or as
// strings such as ".285" or "-.--". Unparseable values decode as 0.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	raw := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

type named struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type person struct {
	ID              int    `json:"id"`
	FullName        string `json:"fullName"`
	PrimaryPosition named  `json:"primaryPosition"`
}

type statsPayload struct {
	Stats []statGroup `json:"stats"`
}

type statGroup struct {
	Type   named   `json:"type"`
	Group  named   `json:"group"`
	Splits []split `json:"splits"`
}

type split struct {
	Season   string          `json:"season"`
	Date     string          `json:"date"`
	Opponent named           `json:"opponent"`
	Player   person          `json:"player"`
	Stat     json.RawMessage `json:"stat"`
}

type reportedBatting struct {
	AVG   FlexFloat `json:"avg"`
	OBP   FlexFloat `json:"obp"`
	SLG   FlexFloat `json:"slg"`
	OPS   FlexFloat `json:"ops"`
	BABIP FlexFloat `json:"babip"`
}

type reportedPitching struct {
	ERA  FlexFloat `json:"era"`
	WHIP FlexFloat `json:"whip"`
	K9   FlexFloat `json:"strikeOutsPer9Inn"`
	BB9  FlexFloat `json:"walksPer9Inn"`
}

type workload struct {
	GamesPlayed     int           `json:"gamesPlayed"`
	NumberOfPitches int           `json:"numberOfPitches"`
	InningsPitched  stats.Innings `json:"inningsPitched"`
}

type teamsPayload struct {
	Teams []struct {
		ID           int    `json:"id"`
		Name         string `json:"name"`
		Abbreviation string `json:"abbreviation"`
	} `json:"teams"`
}

type rosterPayload struct {
	Roster []struct {
		Person       person `json:"person"`
		JerseyNumber string `json:"jerseyNumber"`
		Position     struct {
			Code         string `json:"code"`
			Name         string `json:"name"`
			Abbreviation string `json:"abbreviation"`
		} `json:"position"`
	} `json:"roster"`
}

type venuePayload struct {
	Venue struct {
		Name       string `json:"name"`
		Dimensions struct {
			LeftField   model.Distance `json:"leftField"`
			CenterField model.Distance `json:"centerField"`
			RightField  model.Distance `json:"rightField"`
		} `json:"dimensions"`
		FieldInfo struct {
			Surface   string         `json:"surface"`
			TurfType  string         `json:"turfType"`
			RoofType  string         `json:"roofType"`
			LeftLine  model.Distance `json:"leftLine"`
			Center    model.Distance `json:"center"`
			RightLine model.Distance `json:"rightLine"`
		} `json:"fieldInfo"`
	} `json:"venue"`
}

type injuriesPayload struct {
	Injuries []struct {
		Player      person `json:"player"`
		Status      string `json:"status"`
		Description string `json:"description"`
		Date        string `json:"date"`
	} `json:"injuries"`
}

type schedulePayload struct {
	Dates []struct {
		Date  string `json:"date"`
		Games []struct {
			GamePK   int    `json:"gamePk"`
			GameDate string `json:"gameDate"`
			Status   struct {
				AbstractGameState string `json:"abstractGameState"`
			} `json:"status"`
			Teams struct {
				Home scheduleSide `json:"home"`
				Away scheduleSide `json:"away"`
			} `json:"teams"`
		} `json:"games"`
	} `json:"dates"`
}

type scheduleSide struct {
	Team  named `json:"team"`
	Score int   `json:"score"`
}
