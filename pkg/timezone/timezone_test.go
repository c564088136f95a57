package timezone

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeWinterOffset(t *testing.T) {
	// 1月处于EST（UTC-5）
	got, err := Normalize("2024-01-15", "09:00")
	require.NoError(t, err)
	require.Equal(t, "2024-01-15T14:00:00.000Z", got)
}

func TestNormalizeSummerOffset(t *testing.T) {
	// 7月处于EDT（UTC-4）
	got, err := Normalize("2024-07-15", "09:00")
	require.NoError(t, err)
	require.Equal(t, "2024-07-15T13:00:00.000Z", got)
}

func TestNormalizeMidnightCrossesDate(t *testing.T) {
	// 东部的午夜在UTC落在同一天的凌晨
	got, err := Normalize("2024-01-15", "00:00")
	require.NoError(t, err)
	require.Equal(t, "2024-01-15T05:00:00.000Z", got)

	// 东部的深夜在UTC落到下一天
	got, err = Normalize("2024-01-15", "23:30")
	require.NoError(t, err)
	require.Equal(t, "2024-01-16T04:30:00.000Z", got)
}

func TestNormalizeSpringForwardDay(t *testing.T) {
	// 2024-03-10当地正午已是EDT，全天统一按UTC-4换算，
	// 包括02:00-03:00之间实际不存在的墙上时间。
	got, err := Normalize("2024-03-10", "02:30")
	require.NoError(t, err)
	require.Equal(t, "2024-03-10T06:30:00.000Z", got)

	got, err = Normalize("2024-03-10", "20:00")
	require.NoError(t, err)
	require.Equal(t, "2024-03-11T00:00:00.000Z", got)
}

func TestNormalizeFallBackDay(t *testing.T) {
	// 2024-11-03当地正午已回到EST，重复的01:30按UTC-5唯一解析
	got, err := Normalize("2024-11-03", "01:30")
	require.NoError(t, err)
	require.Equal(t, "2024-11-03T06:30:00.000Z", got)
}

func TestNormalizeRejectsBadInput(t *testing.T) {
	_, err := Normalize("01/15/2024", "09:00")
	require.Error(t, err)

	_, err = Normalize("2024-01-15", "9am")
	require.Error(t, err)

	_, err = Normalize("", "09:00")
	require.Error(t, err)
}

func TestLocalize(t *testing.T) {
	date, clock, err := Localize("2024-01-15T14:00:00.000Z")
	require.NoError(t, err)
	require.Equal(t, "2024-01-15", date)
	require.Equal(t, "09:00", clock)

	// UTC凌晨回到东部是前一天晚上
	date, clock, err = Localize("2024-07-16T01:30:00.000Z")
	require.NoError(t, err)
	require.Equal(t, "2024-07-15", date)
	require.Equal(t, "21:30", clock)
}

func TestLocalizeRejectsBadInput(t *testing.T) {
	_, _, err := Localize("2024-01-15 14:00")
	require.Error(t, err)
}

func TestNormalizeLocalizeRoundTrip(t *testing.T) {
	cases := []struct{ date, clock string }{
		{"2024-01-15", "09:00"},
		{"2024-07-04", "18:45"},
		{"2024-03-10", "08:00"},
		{"2024-11-03", "15:00"},
		{"2024-12-31", "23:59"},
	}
	for _, tc := range cases {
		instant, err := Normalize(tc.date, tc.clock)
		require.NoError(t, err)

		date, clock, err := Localize(instant)
		require.NoError(t, err)
		require.Equal(t, tc.date, date)
		require.Equal(t, tc.clock, clock)
	}
}

func TestCurrentDateAndTimeFormats(t *testing.T) {
	require.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, CurrentDate())
	require.Regexp(t, `^\d{2}:\d{2}$`, CurrentTime())
}
