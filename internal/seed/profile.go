package seed

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ValueRange bounds a uniformly sampled measurement.
type ValueRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// BuildingProfile describes one building's sensor characteristics.
type BuildingProfile struct {
	Name         string     `yaml:"name"`
	Temperature  ValueRange `yaml:"temperature"`
	Humidity     ValueRange `yaml:"humidity"`
	MaxOccupancy int        `yaml:"max_occupancy"`
}

// Profile describes the synthetic fleet: which buildings report, at what
// cadence, and within which value ranges.
type Profile struct {
	Interval  string            `yaml:"interval"`
	Buildings []BuildingProfile `yaml:"buildings"`
}

// DefaultProfile reports three buildings at 15-minute cadence with office
// climate ranges.
func DefaultProfile() Profile {
	office := func(name string) BuildingProfile {
		return BuildingProfile{
			Name:         name,
			Temperature:  ValueRange{Min: 18, Max: 30},
			Humidity:     ValueRange{Min: 30, Max: 70},
			MaxOccupancy: 50,
		}
	}
	return Profile{
		Interval:  "15m",
		Buildings: []BuildingProfile{office("Building A"), office("Building B"), office("Building C")},
	}
}

// LoadProfile reads a fleet profile from a YAML file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile file: %w", err)
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks the profile for values the generator cannot work with.
func (p Profile) Validate() error {
	if len(p.Buildings) == 0 {
		return fmt.Errorf("profile must list at least one building")
	}
	for _, b := range p.Buildings {
		if b.Name == "" {
			return fmt.Errorf("every building needs a name")
		}
		if b.Temperature.Min > b.Temperature.Max {
			return fmt.Errorf("building %q: temperature min exceeds max", b.Name)
		}
		if b.Humidity.Min > b.Humidity.Max {
			return fmt.Errorf("building %q: humidity min exceeds max", b.Name)
		}
		if b.MaxOccupancy < 0 {
			return fmt.Errorf("building %q: max_occupancy must be non-negative", b.Name)
		}
	}
	if _, err := p.IntervalDuration(); err != nil {
		return err
	}
	return nil
}

// IntervalDuration returns the parsed reporting cadence.
func (p Profile) IntervalDuration() (time.Duration, error) {
	if p.Interval == "" {
		return 15 * time.Minute, nil
	}
	d, err := time.ParseDuration(p.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid profile interval %q: %w", p.Interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("profile interval must be positive, got %q", p.Interval)
	}
	return d, nil
}
