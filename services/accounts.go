package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/riserecover/server/models"
	"github.com/riserecover/server/store"
	"github.com/riserecover/server/utils"
)

// RegisterInput carries the fields a new member supplies.
type RegisterInput struct {
	Username  string
	Password  string
	Name      string
	Addiction string
	QuitDate  time.Time
	City      string
	AgeRange  string
	Email     string
	Phone     string
}

// CityStat is one row of the regional report.
type CityStat struct {
	City         string `json:"city"`
	Count        int    `json:"count"`
	TopAddiction string `json:"topAddiction"`
}

// AccountService is the account directory.
type AccountService struct {
	store *store.Store
	now   Clock
	log   *zap.Logger
}

// NewAccountService creates an AccountService. A nil clock means time.Now.
func NewAccountService(s *store.Store, now Clock, log *zap.Logger) *AccountService {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{store: s, now: now, log: log}
}

// DefaultAdmin is the account seeded on first run.
func DefaultAdmin(now time.Time) models.User {
	return models.User{
		Username:  "admin",
		Name:      "Administrator",
		Addiction: "None",
		QuitDate:  now,
		Coins:     9999,
		Level:     99,
		City:      "Colombo",
		AgeRange:  "35-44",
		IsAdmin:   true,
	}
}

// Bootstrap seeds the default records if they are missing. It reports whether the
// admin account was created.
func (s *AccountService) Bootstrap(ctx context.Context, adminPassword string) (bool, error) {
	hash, err := utils.HashPassword(adminPassword)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}
	return s.store.Bootstrap(ctx, DefaultAdmin(s.now()), hash)
}

// Register creates a member. Both the account and its credential are stored before it returns.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || username != utils.StripTags(username) || strings.ContainsAny(username, " \t\r\n") {
		return models.User{}, fmt.Errorf("%w: username must be a single word without markup", ErrInvalidAccount)
	}
	if in.Password == "" {
		return models.User{}, fmt.Errorf("%w: password is required", ErrInvalidAccount)
	}

	quit := in.QuitDate
	if quit.IsZero() {
		quit = s.now()
	}
	user := models.User{
		Username:  username,
		Name:      utils.StripTags(in.Name),
		Addiction: utils.StripTags(in.Addiction),
		QuitDate:  quit,
		City:      utils.StripTags(in.City),
		AgeRange:  utils.StripTags(in.AgeRange),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
	}
	user.Normalize()

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.CreateUser(ctx, user, hash); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, err
	}
	s.log.Info("user registered", zap.String("username", username))
	return user, nil
}

// Authenticate returns the user whose stored credential matches password.
// Legacy plaintext credentials are rehashed after a successful match.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, ok, err := s.store.FindUser(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, ErrInvalidCredentials
	}
	stored, ok, err := s.store.Credential(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	if !ok || !utils.CheckPassword(stored, password) {
		return models.User{}, ErrInvalidCredentials
	}
	if !utils.IsHashed(stored) {
		if hash, err := utils.HashPassword(password); err == nil {
			if err := s.store.SetCredential(ctx, username, hash); err != nil {
				s.log.Warn("credential upgrade failed", zap.String("username", username), zap.Error(err))
			}
		}
	}
	return user, nil
}

// Lookup finds a user by username.
func (s *AccountService) Lookup(ctx context.Context, username string) (models.User, error) {
	user, ok, err := s.store.FindUser(ctx, username)
	if err != nil {
		return models.User{}, err
	}
	if !ok {
		return models.User{}, ErrUserNotFound
	}
	return user, nil
}

// List returns every account in registration order.
func (s *AccountService) List(ctx context.Context) ([]models.User, error) {
	return s.store.Users(ctx)
}

// UpdateQuitDate moves the user's quit date. The streak is left alone; it is only
// recomputed on the next check-in.
func (s *AccountService) UpdateQuitDate(ctx context.Context, username string, quit time.Time) (models.User, error) {
	if quit.IsZero() {
		return models.User{}, fmt.Errorf("%w: quit date is required", ErrInvalidAccount)
	}
	user, err := s.store.UpdateUser(ctx, username, func(u *models.User) error {
		u.QuitDate = quit
		return nil
	})
	if errors.Is(err, store.ErrUserNotFound) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// AwardCoins adds amount to the user's balance. Coins never decrease.
func (s *AccountService) AwardCoins(ctx context.Context, username string, amount int) (models.User, error) {
	if amount <= 0 {
		return models.User{}, fmt.Errorf("%w: reward must be positive", ErrInvalidAccount)
	}
	user, err := s.store.UpdateUser(ctx, username, func(u *models.User) error {
		u.Coins += amount
		return nil
	})
	if errors.Is(err, store.ErrUserNotFound) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// CityReport counts members per city with the most common addiction in each. Only
// cities with members appear, largest first.
func (s *AccountService) CityReport(ctx context.Context) ([]CityStat, error) {
	users, err := s.store.Users(ctx)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		count      int
		addictions map[string]int
		order      []string
	}
	buckets := map[string]*bucket{}
	var cities []string
	for _, u := range users {
		if u.City == "" {
			continue
		}
		b, ok := buckets[u.City]
		if !ok {
			b = &bucket{addictions: map[string]int{}}
			buckets[u.City] = b
			cities = append(cities, u.City)
		}
		b.count++
		if _, seen := b.addictions[u.Addiction]; !seen {
			b.order = append(b.order, u.Addiction)
		}
		b.addictions[u.Addiction]++
	}

	report := make([]CityStat, 0, len(cities))
	for _, city := range cities {
		b := buckets[city]
		top, best := "None", 0
		for _, a := range b.order {
			if n := b.addictions[a]; n > best {
				top, best = a, n
			}
		}
		if top == "" {
			top = "None"
		}
		report = append(report, CityStat{City: city, Count: b.count, TopAddiction: top})
	}
	sort.SliceStable(report, func(i, j int) bool { return report[i].Count > report[j].Count })
	return report, nil
}
