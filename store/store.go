package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/riserecover/server/models"
)

var (
	// ErrUserExists is returned when creating a user whose username is taken.
	ErrUserExists = errors.New("store: username already exists")
	// ErrUserNotFound is returned when updating a user that does not exist.
	ErrUserNotFound = errors.New("store: user not found")
	// ErrCorruptRecord is returned by writes whose stored record cannot be decoded.
	// Reads fall back to defaults instead, but a write would replace the damaged
	// record with a partial one, so it is refused.
	ErrCorruptRecord = errors.New("store: stored record is unreadable")
)

// DefaultChatLimit is the number of chat messages kept.
const DefaultChatLimit = 50

// Store exposes typed read/write operations per entity over a Backend.
//
// Every read-modify-write runs under one mutex, so a single Store is the only
// writer as long as one process owns the backend.
type Store struct {
	backend   Backend
	log       *zap.Logger
	chatLimit int

	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report recovered corruption.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithChatLimit overrides DefaultChatLimit.
func WithChatLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chatLimit = n
		}
	}
}

// New creates a Store on top of backend.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, log: zap.NewNop(), chatLimit: DefaultChatLimit}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// Bootstrap writes first-run records: the admin account when no accounts exist,
// an empty chat log and the default resource configuration. It reports whether
// the admin account was created.
func (s *Store) Bootstrap(ctx context.Context, admin models.User, adminCredential string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := false
	if _, err := s.backend.Get(ctx, keyUsers); errors.Is(err, ErrNotFound) {
		if err := s.put(ctx, keyUsers, []models.User{admin}); err != nil {
			return false, err
		}
		if err := s.put(ctx, credentialKey(admin.Username), adminCredential); err != nil {
			return false, err
		}
		seeded = true
	} else if err != nil {
		return false, err
	}

	if _, err := s.backend.Get(ctx, keyChats); errors.Is(err, ErrNotFound) {
		if err := s.put(ctx, keyChats, []models.ChatMessage{}); err != nil {
			return seeded, err
		}
	} else if err != nil {
		return seeded, err
	}

	if _, err := s.backend.Get(ctx, keyConfig); errors.Is(err, ErrNotFound) {
		if err := s.put(ctx, keyConfig, models.DefaultResourceConfig()); err != nil {
			return seeded, err
		}
	} else if err != nil {
		return seeded, err
	}
	return seeded, nil
}

// get decodes key into out. A missing value reports found=false. An unreadable value
// leaves out zeroed and returns ErrCorruptRecord.
func (s *Store) get(ctx context.Context, key string, out any) (bool, error) {
	b, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if _, err := decode(b, out); err != nil {
		reflect.ValueOf(out).Elem().SetZero()
		s.log.Warn("unreadable record", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, key, err)
	}
	return true, nil
}

// lenient turns ErrCorruptRecord into a clean read so read-only callers see defaults.
func lenient(err error) error {
	if errors.Is(err, ErrCorruptRecord) {
		return nil
	}
	return err
}

func (s *Store) put(ctx context.Context, key string, v any) error {
	b, err := encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.backend.Set(ctx, key, b)
}

// Users returns every account in registration order. An unreadable account list reads as empty.
func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, err := s.users(ctx)
	if err := lenient(err); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	_, err := s.get(ctx, keyUsers, &users)
	if err != nil && !errors.Is(err, ErrCorruptRecord) {
		return nil, err
	}
	if users == nil {
		users = []models.User{}
	}
	for i := range users {
		users[i].Normalize()
	}
	return users, err
}

// FindUser looks a user up by username.
func (s *Store) FindUser(ctx context.Context, username string) (models.User, bool, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return models.User{}, false, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return models.User{}, false, nil
}

// CreateUser stores the credential and then appends user. The username check and the
// insert happen under the same lock. A failure between the two writes leaves only an
// orphan credential, which the next registration of that name overwrites.
func (s *Store) CreateUser(ctx context.Context, user models.User, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.users(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.Username == user.Username {
			return ErrUserExists
		}
	}
	if err := s.put(ctx, credentialKey(user.Username), credential); err != nil {
		return err
	}
	return s.put(ctx, keyUsers, append(users, user))
}

// UpdateUser applies fn to the stored user and writes the full account list back.
// If fn returns an error nothing is written.
func (s *Store) UpdateUser(ctx context.Context, username string, fn func(*models.User) error) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateUser(ctx, username, fn)
}

func (s *Store) updateUser(ctx context.Context, username string, fn func(*models.User) error) (models.User, error) {
	users, err := s.users(ctx)
	if err != nil {
		return models.User{}, err
	}
	for i := range users {
		if users[i].Username != username {
			continue
		}
		updated := users[i]
		if err := fn(&updated); err != nil {
			return models.User{}, err
		}
		updated.Username = username
		users[i] = updated
		if err := s.put(ctx, keyUsers, users); err != nil {
			return models.User{}, err
		}
		return updated, nil
	}
	return models.User{}, ErrUserNotFound
}

// Credential returns the stored credential for username.
func (s *Store) Credential(ctx context.Context, username string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.backend.Get(ctx, credentialKey(username))
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	var cred string
	if _, err := decode(b, &cred); err != nil {
		// The browser stored credentials as raw, unquoted strings.
		return string(b), true, nil
	}
	return cred, true, nil
}

// SetCredential replaces the stored credential for username.
func (s *Store) SetCredential(ctx context.Context, username, credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(ctx, credentialKey(username), credential)
}

// CheckIns returns the user's check-in log, oldest first. An unreadable log reads as empty.
func (s *Store) CheckIns(ctx context.Context, username string) ([]models.CheckInLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logs, err := s.checkIns(ctx, username)
	if err := lenient(err); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) checkIns(ctx context.Context, username string) ([]models.CheckInLog, error) {
	var logs []models.CheckInLog
	_, err := s.get(ctx, logsKey(username), &logs)
	if err != nil && !errors.Is(err, ErrCorruptRecord) {
		return nil, err
	}
	if logs == nil {
		logs = []models.CheckInLog{}
	}
	for i := range logs {
		logs[i].Normalize()
	}
	return logs, err
}

// AppendCheckIn adds entry to the end of the user's log.
func (s *Store) AppendCheckIn(ctx context.Context, username string, entry models.CheckInLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendCheckIn(ctx, username, entry)
}

func (s *Store) appendCheckIn(ctx context.Context, username string, entry models.CheckInLog) error {
	logs, err := s.checkIns(ctx, username)
	if err != nil {
		return err
	}
	return s.put(ctx, logsKey(username), append(logs, entry))
}

// RecordCheckIn applies fn to the user record and appends entry to the log while holding
// the lock, so no other write can interleave between the two. Both records are read
// before anything is written. The user record is written first; if the log write then
// fails, the previous user list is restored.
func (s *Store) RecordCheckIn(ctx context.Context, username string, entry models.CheckInLog, fn func(*models.User) error) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before, err := s.users(ctx)
	if err != nil {
		return models.User{}, err
	}
	logs, err := s.checkIns(ctx, username)
	if err != nil {
		return models.User{}, err
	}

	updated, err := s.updateUser(ctx, username, fn)
	if err != nil {
		return models.User{}, err
	}
	if err := s.put(ctx, logsKey(username), append(logs, entry)); err != nil {
		if rerr := s.put(ctx, keyUsers, before); rerr != nil {
			s.log.Error("restoring user after failed check-in write",
				zap.String("username", username), zap.Error(rerr))
		}
		return models.User{}, err
	}
	return updated, nil
}

// Messages returns the chat log in insertion order. An unreadable log reads as empty.
func (s *Store) Messages(ctx context.Context) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, err := s.messages(ctx)
	if err := lenient(err); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (s *Store) messages(ctx context.Context) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	_, err := s.get(ctx, keyChats, &msgs)
	if err != nil && !errors.Is(err, ErrCorruptRecord) {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, err
}

// AppendMessage adds msg and evicts the oldest messages beyond the chat limit.
// It returns the resulting log.
func (s *Store) AppendMessage(ctx context.Context, msg models.ChatMessage) ([]models.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.messages(ctx)
	if err != nil {
		return nil, err
	}
	msgs = append(msgs, msg)
	if over := len(msgs) - s.chatLimit; over > 0 {
		msgs = append([]models.ChatMessage(nil), msgs[over:]...)
	}
	if err := s.put(ctx, keyChats, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Config returns the resource configuration, or the built-in default when none is stored.
func (s *Store) Config(ctx context.Context) (models.ResourceConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c models.ResourceConfig
	found, err := s.get(ctx, keyConfig, &c)
	if err := lenient(err); err != nil {
		return models.ResourceConfig{}, err
	}
	if !found {
		return models.DefaultResourceConfig(), nil
	}
	c.Normalize()
	return c, nil
}

// SaveConfig replaces the stored resource configuration.
func (s *Store) SaveConfig(ctx context.Context, c models.ResourceConfig) error {
	c.Normalize()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(ctx, keyConfig, c)
}
