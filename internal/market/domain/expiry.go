package domain

import "time"

// 指数期权的到期规则：周期权每周二到期，月期权为当月最后一个周四。

// NextWeeklyExpiry 计算某日期之后最近的周度到期日（含当日），
// offsetWeeks 用于日历价差等需要远月腿的场景。
func NextWeeklyExpiry(d time.Time, offsetWeeks int) time.Time {
	daysUntil := (int(time.Tuesday) - int(d.Weekday()) + 7) % 7
	expiry := d.AddDate(0, 0, daysUntil)
	if offsetWeeks > 0 {
		expiry = expiry.AddDate(0, 0, 7*offsetWeeks)
	}
	return expiry
}

// NextMonthlyExpiry 计算某日期之后最近的月度到期日
// 已过当月到期日时顺延至下月。
func NextMonthlyExpiry(d time.Time) time.Time {
	expiry := lastThursday(d.Year(), d.Month())
	if !expiry.After(d) {
		next := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location()).AddDate(0, 1, 0)
		expiry = lastThursday(next.Year(), next.Month())
	}
	return expiry
}

func lastThursday(year int, month time.Month) time.Time {
	// 下月首日减一天即当月末
	day := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1)
	for day.Weekday() != time.Thursday {
		day = day.AddDate(0, 0, -1)
	}
	return day
}
