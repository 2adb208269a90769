package schedule

import (
	"errors"
	"fmt"
	"time"
)

const minutesPerDay = 24 * 60

var (
	ErrInvalidDate     = errors.New("invalid date format")
	ErrInvalidTime     = errors.New("invalid time format")
	ErrInvalidDuration = errors.New("invalid duration")
)

func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func ParseClockToMinutes(timeStr string) (int, error) {
	tm, err := time.Parse("15:04", timeStr)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func MinutesToClock(minutes int) string {
	minutes %= minutesPerDay
	if minutes < 0 {
		minutes += minutesPerDay
	}
	h := minutes / 60
	m := minutes % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}

// SlotTime returns the start time of the ordinal-th slot of a window that
// opens at startTime with duration-minute slots. Times wrap within the day;
// there is no cross-midnight rollover handling.
func SlotTime(startTime string, ordinal, duration int) (string, error) {
	if duration <= 0 {
		return "", ErrInvalidDuration
	}
	if ordinal < 0 {
		return "", ErrInvalidDuration
	}
	start, err := ParseClockToMinutes(startTime)
	if err != nil {
		return "", err
	}
	return MinutesToClock(start + ordinal*duration), nil
}
