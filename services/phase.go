package services

import (
	_ "embed"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Helper is a coping suggestion shown for a phase.
type Helper struct {
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
}

// Phase is one stage of the recovery timeline. MaxDays of 0 means the phase never ends.
type Phase struct {
	ID       string   `yaml:"id" json:"id"`
	Name     string   `yaml:"name" json:"name"`
	Range    string   `yaml:"range" json:"range"`
	MinDays  int      `yaml:"minDays" json:"minDays"`
	MaxDays  int      `yaml:"maxDays" json:"maxDays,omitempty"`
	Symptoms []string `yaml:"symptoms" json:"symptoms"`
	Helpers  []Helper `yaml:"helpers" json:"helpers"`
}

// Contains reports whether days falls inside the phase.
func (p Phase) Contains(days int) bool {
	return days >= p.MinDays && (p.MaxDays == 0 || days <= p.MaxDays)
}

// Achievement is a milestone unlocked by days clean.
type Achievement struct {
	ID           string `yaml:"id" json:"id"`
	Title        string `yaml:"title" json:"title"`
	Description  string `yaml:"description" json:"description"`
	Icon         string `yaml:"icon" json:"icon"`
	RequiredDays int    `yaml:"requiredDays" json:"requiredDays"`
}

type catalog struct {
	Phases       []Phase       `yaml:"phases"`
	Achievements []Achievement `yaml:"achievements"`
}

var builtin = mustLoadCatalog(catalogYAML)

func mustLoadCatalog(b []byte) catalog {
	c, err := loadCatalog(b)
	if err != nil {
		panic(err)
	}
	return c
}

func loadCatalog(b []byte) (catalog, error) {
	var c catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Phases) == 0 {
		return catalog{}, fmt.Errorf("catalog has no phases")
	}
	for i := 1; i < len(c.Phases); i++ {
		prev := c.Phases[i-1]
		if prev.MaxDays == 0 || c.Phases[i].MinDays != prev.MaxDays+1 {
			return catalog{}, fmt.Errorf("phase %q does not follow %q", c.Phases[i].ID, prev.ID)
		}
	}
	if c.Phases[len(c.Phases)-1].MaxDays != 0 {
		return catalog{}, fmt.Errorf("last phase must be open ended")
	}
	return c, nil
}

// Phases returns the full ordered timeline.
func Phases() []Phase {
	return append([]Phase(nil), builtin.Phases...)
}

// phaseIndex returns the index of the phase containing days. Days before the first
// phase map to the first one.
func phaseIndex(days int) int {
	for i, p := range builtin.Phases {
		if p.Contains(days) {
			return i
		}
	}
	return 0
}

// ClassifyPhase maps elapsed days to a recovery phase.
func ClassifyPhase(days int) Phase {
	return builtin.Phases[phaseIndex(days)]
}

// PhaseStatus describes a phase relative to the current one.
type PhaseStatus string

const (
	PhasePast   PhaseStatus = "past"
	PhaseActive PhaseStatus = "active"
	PhaseLocked PhaseStatus = "locked"
)

// TimelineEntry is a phase annotated with its status.
type TimelineEntry struct {
	Phase
	Status PhaseStatus `json:"status"`
}

// Timeline lists every phase with its status for someone days clean.
func Timeline(days int) []TimelineEntry {
	active := phaseIndex(days)
	out := make([]TimelineEntry, len(builtin.Phases))
	for i, p := range builtin.Phases {
		status := PhaseLocked
		switch {
		case i < active:
			status = PhasePast
		case i == active:
			status = PhaseActive
		}
		out[i] = TimelineEntry{Phase: p, Status: status}
	}
	return out
}

// AchievementProgress is an achievement evaluated for a user.
type AchievementProgress struct {
	Achievement
	Unlocked bool `json:"unlocked"`
	Progress int  `json:"progress"`
}

// Achievements evaluates every milestone for someone days clean.
// Progress is a percentage capped at 100.
func Achievements(days int) []AchievementProgress {
	out := make([]AchievementProgress, 0, len(builtin.Achievements))
	for _, a := range builtin.Achievements {
		progress := 0
		if days > 0 && a.RequiredDays > 0 {
			progress = int(math.Min(100, math.Floor(float64(days)/float64(a.RequiredDays)*100)))
		}
		if a.RequiredDays <= 0 {
			progress = 100
		}
		out = append(out, AchievementProgress{
			Achievement: a,
			Unlocked:    days >= a.RequiredDays,
			Progress:    progress,
		})
	}
	return out
}
