// Package patient serves the synthetic patient census behind the risk
// dashboard: seeded datasets, the filter/sort view over them, and summary
// statistics. Nothing here is real clinical data.
package patient

import "fmt"

// RiskLevel is the banded risk of a patient.
type RiskLevel string

const (
	RiskHigh     RiskLevel = "HIGH"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskModerate RiskLevel = "MODERATE"
	RiskLow      RiskLevel = "LOW"
)

// All is the filter sentinel matching every level or type.
const All = "ALL"

// RiskType is the outcome category a patient is scored for.
type RiskType string

// Dashboard taxonomy.
const (
	TypeFalls              RiskType = "Falls"
	TypePressureInjury     RiskType = "Pressure Injury"
	TypeDeviceComplication RiskType = "Device Complication"
)

// Nurse-sensitive outcome taxonomy.
const (
	TypeFALLS RiskType = "FALLS"
	TypeHAPI  RiskType = "HAPI"
	TypeCAUTI RiskType = "CAUTI"
)

// Trend is the direction of the score since the previous assessment.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// SortKey selects the ordering of filtered patients.
type SortKey string

const (
	SortByRiskScore   SortKey = "riskScore"
	SortByID          SortKey = "id"
	SortByLastUpdated SortKey = "lastUpdated"
)

// RiskFactor is a display-only contribution bar.
type RiskFactor struct {
	Name         string  `yaml:"name" json:"name"`
	Icon         string  `yaml:"icon" json:"icon"`
	Contribution float64 `yaml:"contribution" json:"contribution"`
}

type Patient struct {
	ID                 string       `yaml:"id" json:"id"`
	RiskLevel          RiskLevel    `yaml:"risk_level" json:"riskLevel"`
	RiskScore          int          `yaml:"risk_score" json:"riskScore"`
	RiskType           RiskType     `yaml:"risk_type" json:"riskType"`
	Trend              Trend        `yaml:"trend" json:"trend"`
	LastUpdatedMinutes int          `yaml:"last_updated_minutes" json:"lastUpdatedMinutes"`
	LastUpdated        string       `yaml:"last_updated" json:"lastUpdated"`
	RiskFactors        []RiskFactor `yaml:"risk_factors" json:"riskFactors"`
}

// FilterState is the user-controlled view state.
type FilterState struct {
	SearchQuery     string  `json:"searchQuery"`
	RiskLevelFilter string  `json:"riskLevelFilter"`
	RiskTypeFilter  string  `json:"riskTypeFilter"`
	SortBy          SortKey `json:"sortBy"`
}

// DefaultFilters is the state a view starts in and resets to.
func DefaultFilters() FilterState {
	return FilterState{
		SearchQuery:     "",
		RiskLevelFilter: All,
		RiskTypeFilter:  All,
		SortBy:          SortByRiskScore,
	}
}

// Stats summarizes the unfiltered census.
type Stats struct {
	Total    int `json:"total"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Trending int `json:"trending"`
}

// Count returns the bucket a level is counted in. MEDIUM and MODERATE share
// the medium bucket.
func (s Stats) Count(level RiskLevel) int {
	switch level {
	case RiskHigh:
		return s.High
	case RiskMedium, RiskModerate:
		return s.Medium
	case RiskLow:
		return s.Low
	}
	return 0
}

// DeriveLevel bands a score: >= 60 HIGH, >= 35 MODERATE, else LOW.
func DeriveLevel(score int) RiskLevel {
	switch {
	case score >= 60:
		return RiskHigh
	case score >= 35:
		return RiskModerate
	default:
		return RiskLow
	}
}

// ParseRiskLevelFilter accepts a level or ALL; empty means ALL.
func ParseRiskLevelFilter(s string) (string, error) {
	switch s {
	case "", All:
		return All, nil
	case string(RiskHigh), string(RiskMedium), string(RiskModerate), string(RiskLow):
		return s, nil
	}
	return "", fmt.Errorf("unknown risk level %q", s)
}

// ParseRiskTypeFilter accepts any known type or ALL; empty means ALL.
func ParseRiskTypeFilter(s string) (string, error) {
	switch s {
	case "", All:
		return All, nil
	}
	if knownType(RiskType(s)) {
		return s, nil
	}
	return "", fmt.Errorf("unknown risk type %q", s)
}

// ParseSortKey accepts a sort key; empty means riskScore.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case "":
		return SortByRiskScore, nil
	case SortByRiskScore, SortByID, SortByLastUpdated:
		return SortKey(s), nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

func knownType(t RiskType) bool {
	switch t {
	case TypeFalls, TypePressureInjury, TypeDeviceComplication, TypeFALLS, TypeHAPI, TypeCAUTI:
		return true
	}
	return false
}

func knownLevel(l RiskLevel) bool {
	switch l {
	case RiskHigh, RiskMedium, RiskModerate, RiskLow:
		return true
	}
	return false
}

func knownTrend(t Trend) bool {
	switch t {
	case TrendUp, TrendDown, TrendStable:
		return true
	}
	return false
}
