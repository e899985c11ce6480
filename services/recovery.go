package services

import (
	"context"
	"time"

	"github.com/riserecover/server/models"
	"github.com/riserecover/server/store"
)

// analyticsWindow is how many recent check-ins the trend chart covers.
const analyticsWindow = 7

// Dashboard is the home screen summary for one member.
type Dashboard struct {
	User           models.User `json:"user"`
	DaysClean      int         `json:"daysClean"`
	Phase          Phase       `json:"phase"`
	CurrentStreak  int         `json:"currentStreak"`
	CheckInCount   int         `json:"checkInCount"`
	CheckedInToday bool        `json:"checkedInToday"`
}

// TrendPoint is one check-in on the mood and cravings chart.
type TrendPoint struct {
	Date     time.Time `json:"date"`
	Weekday  string    `json:"weekday"`
	Mood     int       `json:"mood"`
	Cravings int       `json:"cravings"`
}

// Profile is the account page: the member, their progress and who to call for help.
type Profile struct {
	User              models.User               `json:"user"`
	DaysClean         int                       `json:"daysClean"`
	EmergencyContacts []models.EmergencyContact `json:"emergencyContacts"`
}

// RecoveryService computes read-only progress views.
type RecoveryService struct {
	store *store.Store
	loc   *time.Location
	now   Clock
}

// NewRecoveryService creates a RecoveryService.
func NewRecoveryService(s *store.Store, loc *time.Location, now Clock) *RecoveryService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &RecoveryService{store: s, loc: loc, now: now}
}

func (s *RecoveryService) user(ctx context.Context, username string) (models.User, error) {
	u, ok, err := s.store.FindUser(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return u, nil
}

// Dashboard summarizes the member's current standing.
func (s *RecoveryService) Dashboard(ctx context.Context, username string) (Dashboard, error) {
	u, err := s.user(ctx, username)
	if err != nil {
		return Dashboard{}, err
	}
	logs, err := s.store.CheckIns(ctx, username)
	if err != nil {
		return Dashboard{}, err
	}
	now := s.now()
	days := DaysClean(u.QuitDate, now)
	return Dashboard{
		User:           u,
		DaysClean:      days,
		Phase:          ClassifyPhase(days),
		CurrentStreak:  u.CurrentStreak,
		CheckInCount:   len(logs),
		CheckedInToday: u.LastCheckInDate != nil && isSameDay(*u.LastCheckInDate, now, s.loc),
	}, nil
}

// Timeline returns every phase marked past, active or locked for the member.
func (s *RecoveryService) Timeline(ctx context.Context, username string) ([]TimelineEntry, error) {
	u, err := s.user(ctx, username)
	if err != nil {
		return nil, err
	}
	return Timeline(DaysClean(u.QuitDate, s.now())), nil
}

// Achievements evaluates the milestones for the member.
func (s *RecoveryService) Achievements(ctx context.Context, username string) ([]AchievementProgress, error) {
	u, err := s.user(ctx, username)
	if err != nil {
		return nil, err
	}
	return Achievements(DaysClean(u.QuitDate, s.now())), nil
}

// Analytics returns mood and cravings for the most recent check-ins, oldest first.
func (s *RecoveryService) Analytics(ctx context.Context, username string) ([]TrendPoint, error) {
	logs, err := s.store.CheckIns(ctx, username)
	if err != nil {
		return nil, err
	}
	if len(logs) > analyticsWindow {
		logs = logs[len(logs)-analyticsWindow:]
	}
	points := make([]TrendPoint, 0, len(logs))
	for _, l := range logs {
		points = append(points, TrendPoint{
			Date:     l.Date,
			Weekday:  l.Date.In(s.loc).Weekday().String()[:3],
			Mood:     l.Mood,
			Cravings: l.Cravings,
		})
	}
	return points, nil
}

// Profile returns the member with the emergency contacts from the resource configuration.
func (s *RecoveryService) Profile(ctx context.Context, username string) (Profile, error) {
	u, err := s.user(ctx, username)
	if err != nil {
		return Profile{}, err
	}
	cfg, err := s.store.Config(ctx)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		User:              u,
		DaysClean:         DaysClean(u.QuitDate, s.now()),
		EmergencyContacts: cfg.EmergencyContacts,
	}, nil
}
