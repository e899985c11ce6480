package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/riserecover/server/models"
	"github.com/riserecover/server/store"
	"github.com/riserecover/server/utils"
)

// CheckInInput is a check-in as submitted by the user.
type CheckInInput struct {
	Mood     int
	Cravings int
	Symptoms []models.SymptomRecord
	Notes    string
}

// CheckInResult is the stored entry together with the updated account.
type CheckInResult struct {
	Entry  models.CheckInLog `json:"entry"`
	User   models.User       `json:"user"`
	Reward int               `json:"reward"`
}

// CheckInService records daily check-ins and keeps streak and coins in step with them.
type CheckInService struct {
	store   *store.Store
	advice  *AdviceService
	rewards RewardPolicy
	loc     *time.Location
	now     Clock
	log     *zap.Logger
}

// NewCheckInService wires a CheckInService.
func NewCheckInService(s *store.Store, advice *AdviceService, rewards RewardPolicy, loc *time.Location, now Clock, log *zap.Logger) *CheckInService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CheckInService{store: s, advice: advice, rewards: rewards, loc: loc, now: now, log: log}
}

func validScore(n int) bool { return n >= 1 && n <= 10 }

func (in CheckInInput) validate() error {
	if !validScore(in.Mood) {
		return fmt.Errorf("%w: mood must be between 1 and 10", ErrInvalidCheckIn)
	}
	if !validScore(in.Cravings) {
		return fmt.Errorf("%w: cravings must be between 1 and 10", ErrInvalidCheckIn)
	}
	for _, s := range in.Symptoms {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("%w: symptom name is required", ErrInvalidCheckIn)
		}
		if !s.Category.Valid() {
			return fmt.Errorf("%w: unknown symptom category %q", ErrInvalidCheckIn, s.Category)
		}
		if !validScore(s.Severity) {
			return fmt.Errorf("%w: severity of %q must be between 1 and 10", ErrInvalidCheckIn, s.Name)
		}
	}
	return nil
}

// Submit validates the input, fetches advice, appends the entry to the user's log and
// then writes the new streak and coin balance. The reward is granted on every check-in,
// including repeat check-ins on the same day.
func (s *CheckInService) Submit(ctx context.Context, username string, in CheckInInput) (CheckInResult, error) {
	if err := in.validate(); err != nil {
		return CheckInResult{}, err
	}
	user, ok, err := s.store.FindUser(ctx, username)
	if err != nil {
		return CheckInResult{}, err
	}
	if !ok {
		return CheckInResult{}, ErrUserNotFound
	}

	symptoms := make([]models.SymptomRecord, 0, len(in.Symptoms))
	for _, sym := range in.Symptoms {
		if sym.ID == "" {
			sym.ID = uuid.NewString()
		}
		sym.Name = utils.StripTags(sym.Name)
		symptoms = append(symptoms, sym)
	}
	notes := utils.StripTags(in.Notes)

	resources, err := s.store.Config(ctx)
	if err != nil {
		s.log.Warn("resource config unavailable for advice", zap.Error(err))
		resources = models.DefaultResourceConfig()
	}
	now := s.now()
	advice := s.advice.Generate(ctx, AdviceRequest{
		Addiction: user.Addiction,
		DaysClean: DaysClean(user.QuitDate, now),
		Symptoms:  symptoms,
		Notes:     notes,
		Resources: resources,
	})

	id, err := uuid.NewV7()
	if err != nil {
		return CheckInResult{}, fmt.Errorf("generate check-in id: %w", err)
	}
	entry := models.CheckInLog{
		ID:       id.String(),
		Date:     now,
		Mood:     in.Mood,
		Cravings: in.Cravings,
		Symptoms: symptoms,
		Notes:    notes,
		Advice:   &advice,
	}

	var reward int
	updated, err := s.store.RecordCheckIn(ctx, username, entry, func(u *models.User) error {
		streak := UpdateStreak(u.CurrentStreak, u.LastCheckInDate, now, s.loc)
		reward = s.rewards.RewardForCheckIn(streak)
		u.CurrentStreak = streak
		u.Coins += reward
		last := now
		u.LastCheckInDate = &last
		return nil
	})
	if errors.Is(err, store.ErrUserNotFound) {
		return CheckInResult{}, ErrUserNotFound
	}
	if err != nil {
		return CheckInResult{}, err
	}
	s.log.Info("check-in recorded",
		zap.String("username", username),
		zap.Int("streak", updated.CurrentStreak),
		zap.Int("reward", reward))
	return CheckInResult{Entry: entry, User: updated, Reward: reward}, nil
}

// History returns the user's check-ins, oldest first.
func (s *CheckInService) History(ctx context.Context, username string) ([]models.CheckInLog, error) {
	return s.store.CheckIns(ctx, username)
}
