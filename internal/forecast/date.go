package forecast

import (
	"strings"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// Date is a calendar day stored as midnight UTC. The zero value means the
// date is absent.
type Date struct {
	t time.Time
}

// NewDate собирает дату из года, месяца и дня.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf берет календарный день момента t в его собственной локации.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate разбирает дату в формате YYYY-MM-DD.
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return Date{}, err
	}
	return DateOf(parsed), nil
}

// IsZero сообщает, что дата отсутствует.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// AddDays сдвигает дату на n календарных дней.
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Time возвращает дату как полночь UTC.
func (d Date) Time() time.Time {
	return d.t
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) unixDays() int64 {
	return d.t.Unix() / secondsPerDay
}

// DaysBetween returns to − from in whole days. Both dates sit at midnight
// UTC, so the division is exact for any year.
func DaysBetween(from, to Date) int {
	return int(to.unixDays() - from.unixDays())
}
