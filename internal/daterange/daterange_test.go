package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnumerate(t *testing.T) {
	testCases := []struct {
		name     string
		start    string
		finish   string
		expected []string
	}{
		{
			name:     "three days",
			start:    "2022-08-27",
			finish:   "2022-08-29",
			expected: []string{"2022-08-27", "2022-08-28", "2022-08-29"},
		},
		{
			name:     "single day",
			start:    "2023-01-01",
			finish:   "2023-01-01",
			expected: []string{"2023-01-01"},
		},
		{
			name:     "month and year boundary",
			start:    "2022-12-30",
			finish:   "2023-01-02",
			expected: []string{"2022-12-30", "2022-12-31", "2023-01-01", "2023-01-02"},
		},
		{
			name:     "leap day",
			start:    "2024-02-28",
			finish:   "2024-03-01",
			expected: []string{"2024-02-28", "2024-02-29", "2024-03-01"},
		},
		{
			name:     "finish before start",
			start:    "2023-01-02",
			finish:   "2023-01-01",
			expected: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dates, err := Enumerate(tc.start, tc.finish)
			require.NoError(t, err)
			require.Equal(t, tc.expected, dates)
		})
	}
}

func TestEnumerateFullSeason(t *testing.T) {
	dates, err := Enumerate("2022-08-27", "2023-05-29")
	require.NoError(t, err)

	start, _ := time.Parse(Layout, "2022-08-27")
	finish, _ := time.Parse(Layout, "2023-05-29")
	require.Len(t, dates, int(finish.Sub(start).Hours()/24)+1)
	require.Equal(t, "2022-08-27", dates[0])
	require.Equal(t, "2023-05-29", dates[len(dates)-1])

	seen := make(map[string]struct{}, len(dates))
	for i, d := range dates {
		_, dup := seen[d]
		require.False(t, dup, "duplicate date %s", d)
		seen[d] = struct{}{}
		if i > 0 {
			require.Less(t, dates[i-1], d, "dates must be strictly ascending")
		}
	}
}

func TestEnumerateLongSpan(t *testing.T) {
	dates, err := Enumerate("1700-01-01", "2300-01-01")
	require.NoError(t, err)
	require.Len(t, dates, 219146)
	require.Equal(t, "1700-01-01", dates[0])
	require.Equal(t, "2300-01-01", dates[len(dates)-1])
	require.Equal(t, "2000-02-29", dates[109631], "leap days are kept across centuries")
}

func TestEnumerateInvalidInput(t *testing.T) {
	for _, tc := range []struct{ start, finish string }{
		{"2022/08/27", "2022-08-29"},
		{"2022-08-27", "29-08-2022"},
		{"", "2022-08-29"},
		{"2022-02-30", "2022-03-01"},
	} {
		_, err := Enumerate(tc.start, tc.finish)
		require.Error(t, err, "start=%q finish=%q", tc.start, tc.finish)
	}
}
