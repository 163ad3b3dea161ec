package datasource

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// envelope is the common response wrapper of every api-football endpoint
type envelope struct {
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Paging   paging          `json:"paging"`
	Response json.RawMessage `json:"response"`
}

type paging struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// errorMessage extracts the first message of a non-empty errors field. The
// provider sends either an empty array or an object keyed by error name.
func (e *envelope) errorMessage() (string, bool) {
	raw := bytes.TrimSpace(e.Errors)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err == nil {
		if len(obj) == 0 {
			return "", false
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return stringify(obj[keys[0]]), true
	}

	var list []interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return "", false
		}
		return stringify(list[0]), true
	}

	return string(raw), true
}

func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "Unknown"
	}
	return string(b)
}

// FixtureResponse represents one entry of the /fixtures endpoint
type FixtureResponse struct {
	Fixture struct {
		ID     int64  `json:"id"`
		Date   string `json:"date"`
		Status struct {
			Short string `json:"short"`
		} `json:"status"`
	} `json:"fixture"`
	League struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"league"`
	Teams struct {
		Home struct {
			Name string `json:"name"`
		} `json:"home"`
		Away struct {
			Name string `json:"name"`
		} `json:"away"`
	} `json:"teams"`
	Goals struct {
		Home *int `json:"home"`
		Away *int `json:"away"`
	} `json:"goals"`
}

// OddsResponse represents one entry of the /odds endpoint
type OddsResponse struct {
	Fixture struct {
		ID int64 `json:"id"`
	} `json:"fixture"`
	Bookmakers []Bookmaker `json:"bookmakers"`
}

// Bookmaker represents one bookmaker's priced bets
type Bookmaker struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Bets []Bet  `json:"bets"`
}

// Bet represents one bet type offered by a bookmaker
type Bet struct {
	ID     int        `json:"id"`
	Name   string     `json:"name"`
	Values []BetValue `json:"values"`
}

// BetValue represents one outcome of a bet
type BetValue struct {
	Value flexString `json:"value"`
	Odd   flexString `json:"odd"`
}

// PredictionResponse represents one entry of the /predictions endpoint
type PredictionResponse struct {
	Predictions struct {
		Advice  *string `json:"advice"`
		Percent struct {
			Home *string `json:"home"`
			Draw *string `json:"draw"`
			Away *string `json:"away"`
		} `json:"percent"`
	} `json:"predictions"`
}

// flexString accepts JSON strings and numbers
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(string(data))
	return nil
}
