package duration

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWindowMillis(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		unit    string
		seconds int64
	}{
		{unit: "second", seconds: 1},
		{unit: "minute", seconds: 60},
		{unit: "hour", seconds: 3600},
		{unit: "day", seconds: 86400},
		{unit: "week", seconds: 7 * 86400},
		{unit: "month", seconds: 30 * 86400},
	}

	for _, tc := range testCases {
		for _, amount := range []int{1, 2, 7, 30} {
			w, err := Normalize(Spec{Amount: amount, Unit: tc.unit})
			require.NoError(t, err)
			assert.Equal(t, int64(amount)*tc.seconds*1000, w.Millis, "%d %s", amount, tc.unit)
		}
	}
}

func TestNormalizePluralizesOnlyWhenAmountIsNotOne(t *testing.T) {
	t.Parallel()

	one, err := Normalize(Spec{Amount: 1, Unit: "day"})
	require.NoError(t, err)
	assert.Equal(t, "1 day", one.Label)

	two, err := Normalize(Spec{Amount: 2, Unit: "day"})
	require.NoError(t, err)
	assert.Equal(t, "2 days", two.Label)

	assert.Equal(t, "week", Label(1, "week"))
	assert.Equal(t, "weeks", Label(3, "week"))
}

func TestNormalizeAcceptsFrontEndUnitCodes(t *testing.T) {
	t.Parallel()

	testCases := map[string]int64{
		"s":   1000,
		"min": 60 * 1000,
		"h":   3600 * 1000,
		"day": 86400 * 1000,
		"wk":  7 * 86400 * 1000,
		"mo":  30 * 86400 * 1000,
	}
	for code, want := range testCases {
		w, err := Normalize(Spec{Amount: 1, Unit: code})
		require.NoError(t, err, code)
		assert.Equal(t, want, w.Millis, code)
	}
}

func TestNormalizeRejectsUnknownUnit(t *testing.T) {
	t.Parallel()

	for _, u := range []string{"", "yr", "year", "fortnight", "decade"} {
		_, err := Normalize(Spec{Amount: 1, Unit: u})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnrecognizedUnit, u)
	}
}

func TestNormalizeRejectsNonPositiveAmount(t *testing.T) {
	t.Parallel()

	_, err := Normalize(Spec{Amount: 0, Unit: "day"})
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = Normalize(Spec{Amount: -3, Unit: "day"})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestNormalizeRejectsOverflow(t *testing.T) {
	t.Parallel()

	testCases := []Spec{
		{Amount: 4000000000000, Unit: "month"},
		{Amount: math.MaxInt64/1000 + 1, Unit: "second"},
		{Amount: math.MaxInt, Unit: "day"},
	}
	for _, tc := range testCases {
		_, err := Normalize(tc)
		assert.ErrorIs(t, err, ErrInvalidAmount, "%d %s", tc.Amount, tc.Unit)
	}

	w, err := Normalize(Spec{Amount: math.MaxInt64 / 1000 / 2592000, Unit: "month"})
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64/1000/2592000)*2592000*1000, w.Millis)
}

func TestParseISORejectsOverflow(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"P4000000000000M", "P99999999999999999999D", "PT9000000000000H", "P100000000000DT2000000000000H"} {
		_, err := ParseISO(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestParseISO(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in     string
		millis int64
		label  string
	}{
		{in: "P2D", millis: 2 * 86400 * 1000, label: "2 days"},
		{in: "PT3H", millis: 3 * 3600 * 1000, label: "3 hours"},
		{in: "P1W", millis: 7 * 86400 * 1000, label: "1 week"},
		{in: "P1M", millis: 30 * 86400 * 1000, label: "1 month"},
		{in: "P1DT12H", millis: (86400 + 12*3600) * 1000, label: "1 day and 12 hours"},
	}
	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			w, err := ParseISO(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.millis, w.Millis)
			assert.Equal(t, tc.label, w.Label)
		})
	}
}

func TestParseISORejectsYears(t *testing.T) {
	t.Parallel()

	_, err := ParseISO("P1Y")
	assert.ErrorIs(t, err, ErrUnrecognizedUnit)
}

func TestFromSlot(t *testing.T) {
	t.Parallel()

	w, err := FromSlot("", 3, "h")
	require.NoError(t, err)
	assert.Equal(t, Window{Millis: 3 * 3600 * 1000, Label: "3 hours"}, w)

	w, err = FromSlot("p2d", 0, "")
	require.NoError(t, err)
	assert.Equal(t, "2 days", w.Label)

	w, err = FromSlot("2 weeks", 0, "")
	require.NoError(t, err)
	assert.Equal(t, int64(14*86400*1000), w.Millis)

	w, err = FromSlot("12h", 0, "")
	require.NoError(t, err)
	assert.Equal(t, "12 hours", w.Label)

	_, err = FromSlot("3 eons", 0, "")
	assert.ErrorIs(t, err, ErrUnrecognizedUnit)
}

func TestFromDurationLabels(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Window{Millis: 86400 * 1000, Label: "day"}, FromDuration(24*time.Hour))
	assert.Equal(t, Window{Millis: 7 * 86400 * 1000, Label: "7 days"}, FromDuration(168*time.Hour))
	assert.Equal(t, "6 hours", FromDuration(6*time.Hour).Label)
	assert.Equal(t, "90 minutes", FromDuration(90*time.Minute).Label)
}
