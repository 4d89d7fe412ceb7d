package patient

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PriorityLimit caps the number of priority patients.
const PriorityLimit = 3

// View is the filter/sort/stats state over one census. The zero filter
// state is never observed: NewView starts at DefaultFilters. A View is not
// safe for concurrent mutation; the HTTP layer builds one per request.
type View struct {
	patients []Patient
	filters  FilterState
}

// NewView wraps patients in a view with default filters. The slice is not
// copied and must not be modified afterwards.
func NewView(patients []Patient) *View {
	return &View{patients: patients, filters: DefaultFilters()}
}

func (v *View) Filters() FilterState { return v.filters }

func (v *View) SetSearchQuery(q string)     { v.filters.SearchQuery = q }
func (v *View) SetRiskLevelFilter(l string) { v.filters.RiskLevelFilter = l }
func (v *View) SetRiskTypeFilter(t string)  { v.filters.RiskTypeFilter = t }
func (v *View) SetSortBy(k SortKey)         { v.filters.SortBy = k }
func (v *View) ResetFilters()               { v.filters = DefaultFilters() }
func (v *View) ApplyFilters(f FilterState)  { v.filters = f }

// FilteredPatients applies the search, level and type predicates and then
// orders the result by the current sort key. Sorting is stable so ties keep
// seed order.
func (v *View) FilteredPatients() []Patient {
	f := v.filters
	query := strings.ToLower(f.SearchQuery)

	out := make([]Patient, 0, len(v.patients))
	for _, p := range v.patients {
		if query != "" && !strings.Contains(strings.ToLower(p.ID), query) {
			continue
		}
		if f.RiskLevelFilter != All && string(p.RiskLevel) != f.RiskLevelFilter {
			continue
		}
		if f.RiskTypeFilter != All && string(p.RiskType) != f.RiskTypeFilter {
			continue
		}
		out = append(out, p)
	}

	switch f.SortBy {
	case SortByID:
		// A Collator keeps internal buffers, so each sort gets its own.
		col := collate.New(language.English)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].ID, out[j].ID) < 0
		})
	case SortByLastUpdated:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].LastUpdatedMinutes < out[j].LastUpdatedMinutes
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RiskScore > out[j].RiskScore
		})
	}
	return out
}

// Stats counts the unfiltered census.
func (v *View) Stats() Stats {
	s := Stats{Total: len(v.patients)}
	for _, p := range v.patients {
		switch p.RiskLevel {
		case RiskHigh:
			s.High++
		case RiskMedium, RiskModerate:
			s.Medium++
		case RiskLow:
			s.Low++
		}
		if p.Trend == TrendUp {
			s.Trending++
		}
	}
	return s
}

// PriorityPatients is the head of the filtered list, at most PriorityLimit.
func (v *View) PriorityPatients() []Patient {
	priority, _ := split(v.FilteredPatients())
	return priority
}

// MonitoringPatients is everything after the priority head.
func (v *View) MonitoringPatients() []Patient {
	_, monitoring := split(v.FilteredPatients())
	return monitoring
}

// Snapshot computes every derived list in one pass.
func (v *View) Snapshot() Snapshot {
	filtered := v.FilteredPatients()
	priority, monitoring := split(filtered)
	return Snapshot{
		Filters:            v.filters,
		FilteredPatients:   filtered,
		PriorityPatients:   priority,
		MonitoringPatients: monitoring,
		Stats:              v.Stats(),
	}
}

// Snapshot is the complete derived state of a View.
type Snapshot struct {
	Filters            FilterState `json:"filters"`
	FilteredPatients   []Patient   `json:"filteredPatients"`
	PriorityPatients   []Patient   `json:"priorityPatients"`
	MonitoringPatients []Patient   `json:"monitoringPatients"`
	Stats              Stats       `json:"stats"`
}

func split(filtered []Patient) (priority, monitoring []Patient) {
	n := len(filtered)
	if n > PriorityLimit {
		n = PriorityLimit
	}
	return filtered[:n:n], filtered[n:]
}

// FindPatientByID returns the first patient with the given id.
func (v *View) FindPatientByID(id string) (Patient, bool) {
	for _, p := range v.patients {
		if p.ID == id {
			return p, true
		}
	}
	return Patient{}, false
}

// FindPatientByRiskType returns the first patient of the given type in seed
// order.
func (v *View) FindPatientByRiskType(t RiskType) (Patient, bool) {
	for _, p := range v.patients {
		if p.RiskType == t {
			return p, true
		}
	}
	return Patient{}, false
}
