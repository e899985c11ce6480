package models

import "time"

// SymptomCategory groups reported symptoms.
type SymptomCategory string

const (
	CategoryPhysical  SymptomCategory = "Physical"
	CategoryEmotional SymptomCategory = "Emotional"
	CategoryMental    SymptomCategory = "Mental"
	CategoryOther     SymptomCategory = "Other"
)

// Valid reports whether c is one of the known categories.
func (c SymptomCategory) Valid() bool {
	switch c {
	case CategoryPhysical, CategoryEmotional, CategoryMental, CategoryOther:
		return true
	}
	return false
}

// SymptomRecord is one symptom reported in a check-in, severity 1-10.
type SymptomRecord struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Category SymptomCategory `json:"category"`
	Severity int             `json:"severity"`
}

// Advice is the snapshot of generated guidance attached to a check-in.
type Advice struct {
	PracticalTips []string `json:"practicalTips"`
	Encouragement string   `json:"encouragement"`
}

// CheckInLog is an immutable daily entry owned by a single user.
type CheckInLog struct {
	ID       string          `json:"id"`
	Date     time.Time       `json:"date"`
	Mood     int             `json:"mood"`
	Cravings int             `json:"cravings"`
	Symptoms []SymptomRecord `json:"symptoms"`
	Notes    string          `json:"notes"`
	Advice   *Advice         `json:"advice,omitempty"`
}

// Normalize fills nil slices so entries always serialize with explicit lists.
func (l *CheckInLog) Normalize() {
	if l.Symptoms == nil {
		l.Symptoms = []SymptomRecord{}
	}
}
