package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:05", want: 545},
		{in: "23:59", want: 1439},
		{in: "10:30:00", want: 630},
		{in: "24:00", want: 1440},
		{in: "24:30", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(-5))
	assert.Equal(t, "09:05", FormatClock(545))
	assert.Equal(t, "24:00", FormatClock(2000))
}

func TestNewMomentUsesLocation(t *testing.T) {
	dhaka := time.FixedZone("BDT", 6*60*60)
	now := time.Date(2026, time.March, 10, 23, 30, 45, 0, time.UTC)

	m := newMoment(now, time.Time{}, dhaka)

	assert.Equal(t, "2026-03-11", m.Day.Format(time.DateOnly))
	assert.Equal(t, 5*60+30, m.Minute)
	assert.True(t, m.Now.Equal(now))
}

func TestNewMomentExplicitDay(t *testing.T) {
	now := at(14, 5)
	day := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

	m := newMoment(now, day, time.UTC)

	assert.Equal(t, "2026-03-02", m.Day.Format(time.DateOnly))
	assert.Equal(t, 14*60+5, m.Minute)
}
