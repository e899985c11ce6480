package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riserecover/server/models"
	"github.com/riserecover/server/store"
)

type checkInFixture struct {
	store    *store.Store
	clock    *fakeClock
	advisor  *stubAdvisor
	accounts *AccountService
	checkins *CheckInService
}

func newCheckInFixture(t *testing.T) checkInFixture {
	t.Helper()
	st := newMemoryStore()
	clock := newFakeClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	advisor := &stubAdvisor{advice: models.Advice{PracticalTips: []string{"a", "b", "c"}, Encouragement: "go"}}
	advice := NewAdviceService(advisor, time.Second, nil)
	f := checkInFixture{
		store:    st,
		clock:    clock,
		advisor:  advisor,
		accounts: NewAccountService(st, clock.Now, nil),
		checkins: NewCheckInService(st, advice, DefaultRewardPolicy, time.UTC, clock.Now, nil),
	}
	mustRegister(t, f.accounts, RegisterInput{
		Username:  "nuwan",
		Password:  "pw",
		Addiction: "Alcohol",
		QuitDate:  clock.Now().AddDate(0, 0, -10),
	})
	return f
}

func validInput() CheckInInput {
	return CheckInInput{
		Mood:     6,
		Cravings: 4,
		Symptoms: []models.SymptomRecord{{Name: "Headache", Category: models.CategoryPhysical, Severity: 5}},
		Notes:    "ok day",
	}
}

func TestSubmitStreakAndRewards(t *testing.T) {
	ctx := context.Background()
	f := newCheckInFixture(t)

	res, err := f.checkins.Submit(ctx, "nuwan", validInput())
	require.NoError(t, err)
	assert.Equal(t, 1, res.User.CurrentStreak)
	assert.Equal(t, 55, res.Reward)
	assert.Equal(t, 55, res.User.Coins)

	// Same day: streak unchanged, reward paid again.
	f.clock.Advance(3 * time.Hour)
	res, err = f.checkins.Submit(ctx, "nuwan", validInput())
	require.NoError(t, err)
	assert.Equal(t, 1, res.User.CurrentStreak)
	assert.Equal(t, 110, res.User.Coins)

	// Next three days extend the streak.
	for day, want := range []int{2, 3, 4} {
		f.clock.Advance(24 * time.Hour)
		res, err = f.checkins.Submit(ctx, "nuwan", validInput())
		require.NoError(t, err, "day %d", day)
		assert.Equal(t, want, res.User.CurrentStreak)
	}
	assert.Equal(t, 70, res.Reward)

	// A skipped day resets.
	f.clock.Advance(48 * time.Hour)
	res, err = f.checkins.Submit(ctx, "nuwan", validInput())
	require.NoError(t, err)
	assert.Equal(t, 1, res.User.CurrentStreak)

	logs, err := f.checkins.History(ctx, "nuwan")
	require.NoError(t, err)
	assert.Len(t, logs, 6)
	for i := 1; i < len(logs); i++ {
		assert.False(t, logs[i].Date.Before(logs[i-1].Date), "log stays in submission order")
	}
}

func TestSubmitRecordsFallbackWhenAdviceFails(t *testing.T) {
	ctx := context.Background()
	f := newCheckInFixture(t)
	f.advisor.err = errors.New("service unavailable")

	res, err := f.checkins.Submit(ctx, "nuwan", validInput())
	require.NoError(t, err)
	require.NotNil(t, res.Entry.Advice)
	assert.Equal(t, FallbackAdvice(), *res.Entry.Advice)

	logs, err := f.checkins.History(ctx, "nuwan")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].Advice)
	assert.Equal(t, FallbackAdvice(), *logs[0].Advice)
}

func TestSubmitSendsContextToAdvisor(t *testing.T) {
	ctx := context.Background()
	f := newCheckInFixture(t)
	require.NoError(t, f.store.SaveConfig(ctx, models.ResourceConfig{
		HerbalRemedies: []models.Remedy{{Name: "Samahan", Description: "tea"}},
	}))

	in := validInput()
	in.Notes = "<b>tired</b>"
	res, err := f.checkins.Submit(ctx, "nuwan", in)
	require.NoError(t, err)

	assert.Equal(t, "Alcohol", f.advisor.last.Addiction)
	assert.Equal(t, 10, f.advisor.last.DaysClean)
	assert.Equal(t, "tired", f.advisor.last.Notes)
	assert.Equal(t, "Samahan", f.advisor.last.Resources.HerbalRemedies[0].Name)
	assert.Equal(t, "tired", res.Entry.Notes)
	assert.NotEmpty(t, res.Entry.Symptoms[0].ID)

	id, err := uuid.Parse(res.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	f := newCheckInFixture(t)

	bad := map[string]func(*CheckInInput){
		"mood low":      func(in *CheckInInput) { in.Mood = 0 },
		"mood high":     func(in *CheckInInput) { in.Mood = 11 },
		"cravings":      func(in *CheckInInput) { in.Cravings = -1 },
		"severity":      func(in *CheckInInput) { in.Symptoms[0].Severity = 12 },
		"category":      func(in *CheckInInput) { in.Symptoms[0].Category = "Spiritual" },
		"blank symptom": func(in *CheckInInput) { in.Symptoms[0].Name = " " },
	}
	for name, mutate := range bad {
		in := validInput()
		mutate(&in)
		_, err := f.checkins.Submit(ctx, "nuwan", in)
		assert.ErrorIs(t, err, ErrInvalidCheckIn, name)
	}

	logs, _ := f.checkins.History(ctx, "nuwan")
	assert.Empty(t, logs, "rejected check-ins are not stored")
	assert.Zero(t, f.advisor.calls)

	_, err := f.checkins.Submit(ctx, "ghost", validInput())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSubmitWithoutSymptoms(t *testing.T) {
	f := newCheckInFixture(t)
	in := validInput()
	in.Symptoms = nil
	res, err := f.checkins.Submit(context.Background(), "nuwan", in)
	require.NoError(t, err)
	assert.NotNil(t, res.Entry.Symptoms)
	assert.Empty(t, res.Entry.Symptoms)
}
