package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPhaseBoundaries(t *testing.T) {
	cases := []struct {
		days int
		want string
	}{
		{-3, "Acute Withdrawal"},
		{0, "Acute Withdrawal"},
		{7, "Acute Withdrawal"},
		{8, "Post-Acute"},
		{14, "Post-Acute"},
		{15, "Subacute"},
		{30, "Subacute"},
		{31, "Early Recovery"},
		{90, "Early Recovery"},
		{91, "Maintenance"},
		{100000, "Maintenance"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyPhase(tc.days).Name, "days=%d", tc.days)
	}
}

func TestPhasesCarryContent(t *testing.T) {
	phases := Phases()
	require.Len(t, phases, 5)
	for _, p := range phases {
		assert.NotEmpty(t, p.Symptoms, p.ID)
		assert.NotEmpty(t, p.Helpers, p.ID)
	}
	// Callers get a copy.
	phases[0].Name = "changed"
	assert.Equal(t, "Acute Withdrawal", Phases()[0].Name)
}

func TestTimelineStatuses(t *testing.T) {
	entries := Timeline(20)
	require.Len(t, entries, 5)
	got := make([]PhaseStatus, len(entries))
	for i, e := range entries {
		got[i] = e.Status
	}
	assert.Equal(t, []PhaseStatus{PhasePast, PhasePast, PhaseActive, PhaseLocked, PhaseLocked}, got)

	assert.Equal(t, PhaseActive, Timeline(-1)[0].Status)
	assert.Equal(t, PhaseActive, Timeline(500)[4].Status)
}

func TestAchievements(t *testing.T) {
	list := Achievements(7)
	require.Len(t, list, 6)

	byTitle := map[string]AchievementProgress{}
	for _, a := range list {
		byTitle[a.Title] = a
	}
	assert.True(t, byTitle["The Awakening"].Unlocked)
	assert.Equal(t, 100, byTitle["The Awakening"].Progress)
	assert.True(t, byTitle["First Week"].Unlocked)
	assert.False(t, byTitle["Fortitude"].Unlocked)
	assert.Equal(t, 50, byTitle["Fortitude"].Progress)
	assert.Equal(t, 7, byTitle["Rebirth"].Progress)

	for _, a := range Achievements(-2) {
		assert.False(t, a.Unlocked)
		assert.Zero(t, a.Progress)
	}
}

func TestLoadCatalogRejectsGaps(t *testing.T) {
	_, err := loadCatalog([]byte(`
phases:
  - {id: a, minDays: 0, maxDays: 7}
  - {id: b, minDays: 9, maxDays: 0}
`))
	assert.Error(t, err)

	_, err = loadCatalog([]byte(`
phases:
  - {id: a, minDays: 0, maxDays: 7}
`))
	assert.Error(t, err, "last phase must be open ended")

	_, err = loadCatalog([]byte(`phases: []`))
	assert.Error(t, err)

	c, err := loadCatalog([]byte(`
phases:
  - {id: a, minDays: 0, maxDays: 7}
  - {id: b, minDays: 8, maxDays: 0}
`))
	require.NoError(t, err)
	assert.Len(t, c.Phases, 2)
}
