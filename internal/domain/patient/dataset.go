package patient

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

//go:embed datasets/*.yaml
var seedFS embed.FS

// DefaultDataset is served when a request names none.
const DefaultDataset = "dashboard"

// Dataset is one immutable seeded census.
type Dataset struct {
	Name        string
	Description string
	Patients    []Patient
}

type datasetFile struct {
	Name         string     `yaml:"name"`
	Description  string     `yaml:"description"`
	RiskTypes    []RiskType `yaml:"risk_types"`
	DeriveLevels bool       `yaml:"derive_levels"`
	Patients     []Patient  `yaml:"patients"`
}

// ParseDataset decodes and validates one YAML seed. now anchors the
// human-readable "last updated" strings.
func ParseDataset(data []byte, now time.Time) (*Dataset, error) {
	var f datasetFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if f.Name == "" {
		return nil, fmt.Errorf("dataset name is required")
	}
	if len(f.RiskTypes) == 0 {
		return nil, fmt.Errorf("dataset %s: risk_types is required", f.Name)
	}

	allowed := make(map[RiskType]bool, len(f.RiskTypes))
	for _, t := range f.RiskTypes {
		if !knownType(t) {
			return nil, fmt.Errorf("dataset %s: unknown risk type %q", f.Name, t)
		}
		allowed[t] = true
	}

	seen := make(map[string]bool, len(f.Patients))
	for i := range f.Patients {
		p := &f.Patients[i]
		if p.ID == "" {
			return nil, fmt.Errorf("dataset %s: patient %d: id is required", f.Name, i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("dataset %s: duplicate patient id %q", f.Name, p.ID)
		}
		seen[p.ID] = true

		if p.RiskScore < 0 || p.RiskScore > 100 {
			return nil, fmt.Errorf("dataset %s: patient %s: risk score %d outside 0..100", f.Name, p.ID, p.RiskScore)
		}
		if !allowed[p.RiskType] {
			return nil, fmt.Errorf("dataset %s: patient %s: risk type %q not in dataset taxonomy", f.Name, p.ID, p.RiskType)
		}
		if !knownTrend(p.Trend) {
			return nil, fmt.Errorf("dataset %s: patient %s: unknown trend %q", f.Name, p.ID, p.Trend)
		}
		if p.LastUpdatedMinutes < 0 {
			return nil, fmt.Errorf("dataset %s: patient %s: last_updated_minutes must not be negative", f.Name, p.ID)
		}

		if f.DeriveLevels || p.RiskLevel == "" {
			p.RiskLevel = DeriveLevel(p.RiskScore)
		} else if !knownLevel(p.RiskLevel) {
			return nil, fmt.Errorf("dataset %s: patient %s: unknown risk level %q", f.Name, p.ID, p.RiskLevel)
		}

		if p.LastUpdated == "" {
			then := now.Add(-time.Duration(p.LastUpdatedMinutes) * time.Minute)
			p.LastUpdated = humanize.RelTime(then, now, "ago", "from now")
		}
	}

	return &Dataset{Name: f.Name, Description: f.Description, Patients: f.Patients}, nil
}

// Registry holds every seeded dataset by name. It is read-only after load.
type Registry struct {
	datasets map[string]*Dataset
}

// LoadRegistry parses every embedded seed.
func LoadRegistry(now time.Time) (*Registry, error) {
	return loadRegistry(seedFS, now)
}

func loadRegistry(fsys fs.FS, now time.Time) (*Registry, error) {
	paths, err := fs.Glob(fsys, "datasets/*.yaml")
	if err != nil {
		return nil, err
	}
	r := &Registry{datasets: make(map[string]*Dataset, len(paths))}
	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		ds, err := ParseDataset(data, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, dup := r.datasets[ds.Name]; dup {
			return nil, fmt.Errorf("%s: dataset %q defined twice", path, ds.Name)
		}
		r.datasets[ds.Name] = ds
	}
	return r, nil
}

// Get returns a dataset by name; an empty name selects the default.
func (r *Registry) Get(name string) (*Dataset, bool) {
	if name == "" {
		name = DefaultDataset
	}
	ds, ok := r.datasets[name]
	return ds, ok
}

// Names lists dataset names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.datasets))
	for n := range r.datasets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
