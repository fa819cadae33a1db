package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Experience is either an exact number of years or a descriptive range
// label ("5-10 years"). Client payloads historically carried both shapes,
// so it unmarshals from a JSON number or string and keeps the distinction
// explicit instead of sniffing substrings downstream.
type Experience struct {
	Numeric bool   `json:"numeric"`
	Years   int    `json:"years,omitempty"`
	Label   string `json:"label,omitempty"`
}

var experienceLabels = map[string]string{
	"0-2":   "0-2 years",
	"3-5":   "3-5 years",
	"5-10":  "5-10 years",
	"10+":   "10+ years",
	"fresh": "0-2 years",
}

func NumericExperience(years int) Experience {
	return Experience{Numeric: true, Years: years}
}

func DescriptiveExperience(label string) Experience {
	return Experience{Label: label}
}

// ParseExperience accepts the raw value stored on legacy profiles: either
// a bare integer ("7") or a range label ("5-10 years", "10+").
func ParseExperience(raw string) (Experience, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Experience{}, false
	}

	if years, err := strconv.Atoi(trimmed); err == nil && years >= 0 {
		return NumericExperience(years), true
	}

	normalized := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(
		strings.TrimSuffix(strings.ToLower(trimmed), "years")), "year"))
	normalized = strings.TrimSpace(normalized)
	if label, ok := experienceLabels[normalized]; ok {
		return DescriptiveExperience(label), true
	}

	return Experience{}, false
}

// MinYears returns the lower bound of the experience for filtering.
func (e Experience) MinYears() int {
	if e.Numeric {
		return e.Years
	}
	parts := strings.FieldsFunc(e.Label, func(r rune) bool {
		return r == '-' || r == '+' || r == ' '
	})
	if len(parts) == 0 {
		return 0
	}
	min, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	return min
}

func (e Experience) String() string {
	if e.Numeric {
		return strconv.Itoa(e.Years)
	}
	return e.Label
}

func (e Experience) MarshalJSON() ([]byte, error) {
	if e.Numeric {
		return json.Marshal(e.Years)
	}
	return json.Marshal(e.Label)
}

func (e *Experience) UnmarshalJSON(data []byte) error {
	var years int
	if err := json.Unmarshal(data, &years); err == nil {
		*e = NumericExperience(years)
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, ok := ParseExperience(raw)
	if !ok {
		parsed = DescriptiveExperience(strings.TrimSpace(raw))
	}
	*e = parsed
	return nil
}

const (
	TeachingModeOnline   = "online"
	TeachingModeInPerson = "in_person"
	TeachingModeHybrid   = "hybrid"
)

// NormalizeTeachingMode maps the free-form values old clients sent to the
// canonical enum. Unknown values are rejected rather than guessed.
func NormalizeTeachingMode(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "online":
		return TeachingModeOnline, true
	case "offline", "in-person", "in_person", "home":
		return TeachingModeInPerson, true
	case "hybrid", "both":
		return TeachingModeHybrid, true
	default:
		return "", false
	}
}
