package services

import (
	"math"
	"time"
)

// CalendarDate truncates t to midnight of its calendar day in loc.
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func isSameDay(a, b time.Time, loc *time.Location) bool {
	return CalendarDate(a, loc).Equal(CalendarDate(b, loc))
}

func isYesterday(last, now time.Time, loc *time.Location) bool {
	return CalendarDate(last, loc).Equal(CalendarDate(now, loc).AddDate(0, 0, -1))
}

// DaysClean is the number of whole 24-hour periods between quitDate and now.
// A quit date in the future yields a negative count.
func DaysClean(quitDate, now time.Time) int {
	return int(math.Floor(now.Sub(quitDate).Hours() / 24))
}

// UpdateStreak derives the streak after a check-in made at now. A check-in on the
// calendar day after the last one extends the streak, a second check-in on the same day
// leaves it unchanged, and anything else starts a new streak of 1.
func UpdateStreak(prev int, last *time.Time, now time.Time, loc *time.Location) int {
	if last == nil || last.IsZero() {
		return 1
	}
	switch {
	case isYesterday(*last, now, loc):
		return prev + 1
	case isSameDay(*last, now, loc):
		return prev
	default:
		return 1
	}
}

// RewardPolicy decides how many coins a check-in earns.
type RewardPolicy struct {
	Base         int
	PerStreakDay int
}

// DefaultRewardPolicy pays 50 coins plus 5 per streak day.
var DefaultRewardPolicy = RewardPolicy{Base: 50, PerStreakDay: 5}

// RewardForCheckIn returns the coins granted for a check-in that leaves the user at streak.
func (p RewardPolicy) RewardForCheckIn(streak int) int {
	return p.Base + streak*p.PerStreakDay
}
