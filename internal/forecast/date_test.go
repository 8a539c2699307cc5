package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDaysBetween проверяет разницу дат в целых днях, включая переход через год.
func TestDaysBetween(t *testing.T) {
	from := NewDate(2024, time.December, 30)

	assert.Equal(t, 0, DaysBetween(from, from))
	assert.Equal(t, 3, DaysBetween(from, NewDate(2025, time.January, 2)))
	assert.Equal(t, -30, DaysBetween(from, NewDate(2024, time.November, 30)))
	assert.Equal(t, 366, DaysBetween(NewDate(2024, time.January, 1), NewDate(2025, time.January, 1)))
}

// TestDateOfIgnoresClockTime проверяет, что время суток и зона не влияют на день.
func TestDateOfIgnoresClockTime(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	moment := time.Date(2025, time.March, 1, 23, 59, 0, 0, loc)

	assert.Equal(t, "2025-03-01", DateOf(moment).String())
	assert.True(t, DateOf(time.Time{}).IsZero())
}

// TestParseDate проверяет разбор даты и ошибку на неверном формате.
func TestParseDate(t *testing.T) {
	date, err := ParseDate(" 2025-02-28 ")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.February, 28), date)
	assert.Equal(t, "2025-03-01", date.AddDays(1).String())

	_, err = ParseDate("28.02.2025")
	assert.Error(t, err)
}
