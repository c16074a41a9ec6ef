package environment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/storelytic/storetwin-backend/internal/domain"
	"github.com/storelytic/storetwin-backend/internal/engine/config"
)

// Factors are multiplicative impact multipliers applied to baseline metrics.
// 1.0 is neutral.
type Factors struct {
	Traffic     float64 `json:"traffic"`
	Conversion  float64 `json:"conversion"`
	Dwell       float64 `json:"dwell"`
	DataQuality string  `json:"data_quality"` // ok | missing
	Summary     string  `json:"summary"`
}

func Neutral() Factors {
	return Factors{Traffic: 1.0, Conversion: 1.0, Dwell: 1.0, DataQuality: "missing", Summary: "no environment data"}
}

// Derive converts the newest environment snapshot into impact factors. A nil
// snapshot yields neutral factors flagged as missing data.
func Derive(snap *domain.EnvironmentSnapshot, cfg config.EnvironmentConfig) Factors {
	if snap == nil {
		return Neutral()
	}

	traffic, conversion, dwell := 1.0, 1.0, 1.0
	var notes []string

	switch strings.ToLower(snap.Weather) {
	case "rain":
		traffic *= 0.85
		conversion *= 1.05
		dwell *= 1.10
		notes = append(notes, "rain")
	case "snow":
		traffic *= 0.70
		conversion *= 1.08
		dwell *= 1.15
		notes = append(notes, "snow")
	case "storm":
		traffic *= 0.55
		conversion *= 1.10
		dwell *= 1.20
		notes = append(notes, "storm")
	case "heatwave":
		traffic *= 0.80
		dwell *= 0.90
		notes = append(notes, "heatwave")
	case "clear":
		traffic *= 1.05
		notes = append(notes, "clear weather")
	}

	if snap.TemperatureC <= -5 || snap.TemperatureC >= 35 {
		traffic *= 0.90
		notes = append(notes, "extreme temperature")
	}

	if snap.IsHoliday {
		traffic *= 1.20
		conversion *= 1.05
		notes = append(notes, "holiday")
	}
	if snap.IsWeekend {
		traffic *= 1.10
		notes = append(notes, "weekend")
	}

	if n := eventCount(snap); n > 0 {
		boost := 1.0 + 0.05*float64(min(n, 3))
		traffic *= boost
		notes = append(notes, fmt.Sprintf("%d local events", n))
	}

	f := Factors{
		Traffic:     clamp(traffic, cfg.MinFactor, cfg.MaxFactor),
		Conversion:  clamp(conversion, cfg.MinFactor, cfg.MaxFactor),
		Dwell:       clamp(dwell, cfg.MinFactor, cfg.MaxFactor),
		DataQuality: "ok",
	}
	if len(notes) == 0 {
		f.Summary = "neutral conditions"
	} else {
		f.Summary = strings.Join(notes, ", ")
	}
	return f
}

func eventCount(snap *domain.EnvironmentSnapshot) int {
	if snap == nil || len(snap.LocalEvents) == 0 {
		return 0
	}
	var events []string
	if err := json.Unmarshal(snap.LocalEvents, &events); err != nil {
		return 0
	}
	return len(events)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
