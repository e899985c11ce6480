package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riserecover/server/models"
)

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	f := newCheckInFixture(t)
	recovery := NewRecoveryService(f.store, time.UTC, f.clock.Now)

	d, err := recovery.Dashboard(ctx, "nuwan")
	require.NoError(t, err)
	assert.Equal(t, 10, d.DaysClean)
	assert.Equal(t, "post-acute", d.Phase.ID)
	assert.False(t, d.CheckedInToday)
	assert.Zero(t, d.CheckInCount)

	_, err = f.checkins.Submit(ctx, "nuwan", validInput())
	require.NoError(t, err)

	d, err = recovery.Dashboard(ctx, "nuwan")
	require.NoError(t, err)
	assert.True(t, d.CheckedInToday)
	assert.Equal(t, 1, d.CurrentStreak)
	assert.Equal(t, 1, d.CheckInCount)
	assert.Equal(t, 55, d.User.Coins)

	f.clock.Advance(24 * time.Hour)
	d, err = recovery.Dashboard(ctx, "nuwan")
	require.NoError(t, err)
	assert.False(t, d.CheckedInToday)
	assert.Equal(t, 11, d.DaysClean)

	_, err = recovery.Dashboard(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestTimelineAndAchievementsForUser(t *testing.T) {
	ctx := context.Background()
	f := newCheckInFixture(t)
	recovery := NewRecoveryService(f.store, time.UTC, f.clock.Now)

	timeline, err := recovery.Timeline(ctx, "nuwan")
	require.NoError(t, err)
	assert.Equal(t, PhasePast, timeline[0].Status)
	assert.Equal(t, PhaseActive, timeline[1].Status)

	achievements, err := recovery.Achievements(ctx, "nuwan")
	require.NoError(t, err)
	unlocked := 0
	for _, a := range achievements {
		if a.Unlocked {
			unlocked++
		}
	}
	assert.Equal(t, 3, unlocked)
}

func TestAnalyticsUsesLastSevenCheckIns(t *testing.T) {
	ctx := context.Background()
	f := newCheckInFixture(t)
	recovery := NewRecoveryService(f.store, time.UTC, f.clock.Now)

	for i := 1; i <= 9; i++ {
		in := validInput()
		in.Mood = i
		_, err := f.checkins.Submit(ctx, "nuwan", in)
		require.NoError(t, err)
		f.clock.Advance(24 * time.Hour)
	}

	points, err := recovery.Analytics(ctx, "nuwan")
	require.NoError(t, err)
	require.Len(t, points, 7)
	assert.Equal(t, 3, points[0].Mood)
	assert.Equal(t, 9, points[6].Mood)
	// 2024-06-01 is a Saturday; the third check-in lands on Monday.
	assert.Equal(t, "Mon", points[0].Weekday)

	empty, err := recovery.Analytics(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProfileIncludesEmergencyContacts(t *testing.T) {
	ctx := context.Background()
	f := newCheckInFixture(t)
	recovery := NewRecoveryService(f.store, time.UTC, f.clock.Now)

	p, err := recovery.Profile(ctx, "nuwan")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultResourceConfig().EmergencyContacts, p.EmergencyContacts)
	assert.Equal(t, 10, p.DaysClean)
}

func TestResourceServiceSaveCleansEntries(t *testing.T) {
	ctx := context.Background()
	svc := NewResourceService(newMemoryStore())

	saved, err := svc.Save(ctx, models.ResourceConfig{
		EmergencyContacts: []models.EmergencyContact{{Name: "<b>Hotline</b>", Number: "1926"}, {Name: "  ", Number: "000"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []models.EmergencyContact{{Name: "Hotline", Number: "1926"}}, saved.EmergencyContacts)
	assert.Empty(t, saved.HerbalRemedies)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}
