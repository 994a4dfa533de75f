package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextWeeklyExpiry(t *testing.T) {
	cases := []struct {
		name   string
		from   time.Time
		offset int
		want   time.Time
	}{
		{"wednesday to next tuesday", date(2024, time.January, 3), 0, date(2024, time.January, 9)},
		{"tuesday is its own expiry", date(2024, time.January, 9), 0, date(2024, time.January, 9)},
		{"monday to next day", date(2024, time.January, 8), 0, date(2024, time.January, 9)},
		{"one week offset", date(2024, time.January, 3), 1, date(2024, time.January, 16)},
		{"four week offset", date(2024, time.January, 9), 4, date(2024, time.February, 6)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextWeeklyExpiry(tc.from, tc.offset)
			if !got.Equal(tc.want) {
				t.Fatalf("NextWeeklyExpiry(%s, %d) = %s, want %s",
					tc.from.Format(time.DateOnly), tc.offset, got.Format(time.DateOnly), tc.want.Format(time.DateOnly))
			}
			if got.Weekday() != time.Tuesday {
				t.Fatalf("weekly expiry %s is not a Tuesday", got.Format(time.DateOnly))
			}
		})
	}
}

func TestNextMonthlyExpiry(t *testing.T) {
	// 2024-01 的最后一个周四是 1 月 25 日
	got := NextMonthlyExpiry(date(2024, time.January, 10))
	if !got.Equal(date(2024, time.January, 25)) {
		t.Fatalf("NextMonthlyExpiry = %s, want 2024-01-25", got.Format(time.DateOnly))
	}

	// 已过当月到期日，顺延至 2 月的最后一个周四
	got = NextMonthlyExpiry(date(2024, time.January, 26))
	if !got.Equal(date(2024, time.February, 29)) {
		t.Fatalf("NextMonthlyExpiry = %s, want 2024-02-29", got.Format(time.DateOnly))
	}

	// 到期日当天视为已过期，滚动到下月
	got = NextMonthlyExpiry(date(2024, time.January, 25))
	if !got.Equal(date(2024, time.February, 29)) {
		t.Fatalf("NextMonthlyExpiry on expiry day = %s, want 2024-02-29", got.Format(time.DateOnly))
	}
}

func TestNextMonthlyExpiryAlwaysThursday(t *testing.T) {
	d := date(2024, time.January, 1)
	for i := 0; i < 365; i++ {
		got := NextMonthlyExpiry(d)
		if got.Weekday() != time.Thursday {
			t.Fatalf("monthly expiry %s for %s is not a Thursday", got.Format(time.DateOnly), d.Format(time.DateOnly))
		}
		if !got.After(d) {
			t.Fatalf("monthly expiry %s not after %s", got.Format(time.DateOnly), d.Format(time.DateOnly))
		}
		d = d.AddDate(0, 0, 1)
	}
}
