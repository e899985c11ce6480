package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// User represents a registered member. Credentials are stored separately and never serialized here.
type User struct {
	Username        string     `json:"username"`
	Name            string     `json:"name"`
	Addiction       string     `json:"addiction"`
	QuitDate        time.Time  `json:"quitDate"`
	Coins           int        `json:"coins"`
	Level           int        `json:"level"`
	City            string     `json:"city"`
	AgeRange        string     `json:"ageRange"`
	Email           string     `json:"email,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	IsAdmin         bool       `json:"isAdmin,omitempty"`
	CurrentStreak   int        `json:"currentStreak"`
	LastCheckInDate *time.Time `json:"lastCheckInDate,omitempty"`
}

// UnmarshalJSON accepts quit dates written either as full timestamps or as bare calendar
// dates. A quit date that cannot be read is left zero so the rest of the record survives.
func (u *User) UnmarshalJSON(b []byte) error {
	type alias User
	aux := struct {
		*alias
		QuitDate json.RawMessage `json:"quitDate"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	u.QuitDate = time.Time{}
	var raw string
	if len(aux.QuitDate) == 0 || json.Unmarshal(aux.QuitDate, &raw) != nil || raw == "" {
		return nil
	}
	if t, err := ParseDate(raw); err == nil {
		u.QuitDate = t
	}
	return nil
}

// Normalize applies defaults to fields that older or damaged records may lack.
func (u *User) Normalize() {
	if u.Name == "" {
		u.Name = u.Username
	}
	if u.Coins < 0 {
		u.Coins = 0
	}
	if u.Level < 1 {
		u.Level = 1
	}
	if u.CurrentStreak < 0 {
		u.CurrentStreak = 0
	}
}

// ParseDate parses an RFC 3339 timestamp or a YYYY-MM-DD calendar date (interpreted as UTC midnight).
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}
