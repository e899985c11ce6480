package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riserecover/server/models"
	"github.com/riserecover/server/store"
)

var epoch = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func TestRegisterAppliesNewMemberDefaults(t *testing.T) {
	svc := NewAccountService(newMemoryStore(), newFakeClock(epoch).Now, nil)

	u := mustRegister(t, svc, RegisterInput{Username: "sahan", Password: "pw", Addiction: "Alcohol", City: "Galle"})
	assert.Equal(t, "sahan", u.Name)
	assert.Equal(t, 0, u.Coins)
	assert.Equal(t, 1, u.Level)
	assert.Equal(t, 0, u.CurrentStreak)
	assert.Nil(t, u.LastCheckInDate)
	assert.True(t, u.QuitDate.Equal(epoch), "missing quit date defaults to now")
	assert.False(t, u.IsAdmin)

	found, err := svc.Lookup(context.Background(), "sahan")
	require.NoError(t, err)
	assert.Equal(t, "Alcohol", found.Addiction)
}

func TestRegisterDuplicateLeavesFirstUserUnchanged(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newMemoryStore(), newFakeClock(epoch).Now, nil)
	first := mustRegister(t, svc, RegisterInput{Username: "dup", Password: "first", Name: "First", City: "Kandy"})

	_, err := svc.Register(ctx, RegisterInput{Username: "dup", Password: "second", Name: "Second", City: "Jaffna"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	got, err := svc.Lookup(ctx, "dup")
	require.NoError(t, err)
	if diff := cmp.Diff(first, got); diff != "" {
		t.Errorf("user changed (-want +got):\n%s", diff)
	}
	_, err = svc.Authenticate(ctx, "dup", "first")
	assert.NoError(t, err)
	_, err = svc.Authenticate(ctx, "dup", "second")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	svc := NewAccountService(newMemoryStore(), nil, nil)
	for _, in := range []RegisterInput{
		{Username: "", Password: "x"},
		{Username: "two words", Password: "x"},
		{Username: "<b>bold</b>", Password: "x"},
		{Username: "ok", Password: ""},
	} {
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidAccount, "%+v", in)
	}
}

func TestRegisterStripsMarkup(t *testing.T) {
	svc := NewAccountService(newMemoryStore(), nil, nil)
	u := mustRegister(t, svc, RegisterInput{Username: "x", Password: "p", Name: "<script>alert(1)</script>Kamal", City: "<i>Matara</i>"})
	assert.Equal(t, "Kamal", u.Name)
	assert.Equal(t, "Matara", u.City)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newMemoryStore(), nil, nil)
	mustRegister(t, svc, RegisterInput{Username: "amal", Password: "secret"})

	u, err := svc.Authenticate(ctx, "amal", "secret")
	require.NoError(t, err)
	assert.Equal(t, "amal", u.Username)

	_, err = svc.Authenticate(ctx, "amal", "Secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUpgradesLegacyPlaintext(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore()
	require.NoError(t, st.CreateUser(ctx, models.User{Username: "old", Level: 1}, "plain"))
	svc := NewAccountService(st, nil, nil)

	_, err := svc.Authenticate(ctx, "old", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	cred, _, _ := st.Credential(ctx, "old")
	assert.Equal(t, "plain", cred, "failed attempts do not touch the credential")

	_, err = svc.Authenticate(ctx, "old", "plain")
	require.NoError(t, err)
	cred, _, _ = st.Credential(ctx, "old")
	assert.NotEqual(t, "plain", cred)
	assert.Contains(t, cred, "$2")

	_, err = svc.Authenticate(ctx, "old", "plain")
	assert.NoError(t, err, "hashed credential still matches")
}

func TestBootstrapSeedsAdmin(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore()
	svc := NewAccountService(st, newFakeClock(epoch).Now, nil)

	seeded, err := svc.Bootstrap(ctx, "letmein")
	require.NoError(t, err)
	assert.True(t, seeded)

	admin, err := svc.Authenticate(ctx, "admin", "letmein")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)
	assert.Equal(t, 9999, admin.Coins)
	assert.Equal(t, 99, admin.Level)
	assert.Equal(t, "Colombo", admin.City)
	assert.Equal(t, "35-44", admin.AgeRange)

	cfg, err := st.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultResourceConfig(), cfg)

	seeded, err = svc.Bootstrap(ctx, "other")
	require.NoError(t, err)
	assert.False(t, seeded)
}

func TestUpdateQuitDate(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newMemoryStore(), newFakeClock(epoch).Now, nil)
	mustRegister(t, svc, RegisterInput{Username: "q", Password: "p"})

	newDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	u, err := svc.UpdateQuitDate(ctx, "q", newDate)
	require.NoError(t, err)
	assert.True(t, u.QuitDate.Equal(newDate))

	_, err = svc.UpdateQuitDate(ctx, "q", time.Time{})
	assert.ErrorIs(t, err, ErrInvalidAccount)
	_, err = svc.UpdateQuitDate(ctx, "ghost", newDate)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRewardGame(t *testing.T) {
	ctx := context.Background()
	svc := NewAccountService(newMemoryStore(), nil, nil)
	mustRegister(t, svc, RegisterInput{Username: "g", Password: "p"})

	u, amount, err := svc.RewardGame(ctx, "g", "memory")
	require.NoError(t, err)
	assert.Equal(t, 20, amount)
	assert.Equal(t, 20, u.Coins)

	u, amount, err = svc.RewardGame(ctx, "g", "breath")
	require.NoError(t, err)
	assert.Equal(t, 10, amount)
	assert.Equal(t, 30, u.Coins)

	_, _, err = svc.RewardGame(ctx, "g", "poker")
	assert.ErrorIs(t, err, ErrUnknownGame)
	_, err = svc.AwardCoins(ctx, "g", -5)
	assert.ErrorIs(t, err, ErrInvalidAccount)
	_, _, err = svc.RewardGame(ctx, "ghost", "memory")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCityReport(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore()
	for _, u := range []models.User{
		{Username: "a", City: "Kandy", Addiction: "Alcohol"},
		{Username: "b", City: "Colombo", Addiction: "Nicotine"},
		{Username: "c", City: "Kandy", Addiction: "Nicotine"},
		{Username: "d", City: "Kandy", Addiction: "Nicotine"},
		{Username: "e", City: "Galle", Addiction: ""},
		{Username: "f", City: "", Addiction: "Alcohol"},
		{Username: "g", City: "Colombo", Addiction: "Cannabis"},
	} {
		require.NoError(t, st.CreateUser(ctx, u, "x"))
	}
	svc := NewAccountService(st, nil, nil)

	report, err := svc.CityReport(ctx)
	require.NoError(t, err)
	want := []CityStat{
		{City: "Kandy", Count: 3, TopAddiction: "Nicotine"},
		{City: "Colombo", Count: 2, TopAddiction: "Nicotine"},
		{City: "Galle", Count: 1, TopAddiction: "None"},
	}
	if diff := cmp.Diff(want, report); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}
}

func TestCityReportEmpty(t *testing.T) {
	svc := NewAccountService(store.New(store.NewMemoryBackend()), nil, nil)
	report, err := svc.CityReport(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report)
}
