package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, 3, 15, 18, 30, 0, 0, time.Local)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParse_Resolve(t *testing.T) {
	tests := []struct {
		in    string
		start time.Time
	}{
		{"1y", day(2023, 3, 15)},
		{"5y", day(2019, 3, 15)},
		{"6m", day(2023, 9, 15)},
		{"30d", day(2024, 2, 14)},
		{" 2Y ", day(2022, 3, 15)},
		{"0d", day(2024, 3, 15)},
	}
	for _, tt := range tests {
		w := Parse(tt.in).Resolve(now)
		assert.Equal(t, tt.start, w.Start, tt.in)
		assert.Equal(t, day(2024, 3, 15), w.End, tt.in)
	}
}

func TestParse_FallsBackToFiveYears(t *testing.T) {
	want := Parse("5y").Resolve(now)
	for _, in := range []string{"xyz", "", "y", "10w", "-3d", "abcy", "2024-13-01:2024-01-01"} {
		assert.Equal(t, want, Parse(in).Resolve(now), "input %q", in)
	}
}

func TestParse_Max(t *testing.T) {
	w := Parse("max").Resolve(now)
	assert.True(t, w.Unbounded())
	assert.Equal(t, day(2024, 3, 15), w.End)
	assert.Equal(t, "max", Max().String())
}

func TestParse_ExplicitRange(t *testing.T) {
	w := Parse("2023-01-01:2023-06-30").Resolve(now)
	assert.Equal(t, day(2023, 1, 1), w.Start)
	assert.Equal(t, day(2023, 6, 30), w.End)
}

func TestYear(t *testing.T) {
	w := Year(2022).Resolve(now)
	assert.Equal(t, day(2022, 1, 1), w.Start)
	assert.Equal(t, day(2022, 12, 31), w.End)
}

func TestResolve_ClampsMonthEnd(t *testing.T) {
	leap := time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, day(2023, 2, 28), Years(1).Resolve(leap).Start)

	mar31 := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, day(2024, 2, 29), Months(1).Resolve(mar31).Start)
}

func TestSpec_String(t *testing.T) {
	assert.Equal(t, "3y", Parse("3y").String())
	assert.Equal(t, "6m", Parse("6m").String())
	assert.Equal(t, "10d", Parse("10d").String())
	assert.Equal(t, "5y", Parse("bogus").String())
}
