package calendar

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

var yearMonthRegexp = regexp.MustCompile(`^\d{4}-\d{2}$`)

// YearMonth 表示一个自然月，所有由它计算出的时间点都是 UTC 零点
type YearMonth struct {
	Year  int
	Month time.Month
}

func ParseYearMonth(s string) (YearMonth, error) {
	if !yearMonthRegexp.MatchString(s) {
		return YearMonth{}, fmt.Errorf("%w: 年月格式错误，应为 YYYY-MM", domain.ErrInvalidArgument)
	}

	year, _ := strconv.Atoi(s[:4])
	month, _ := strconv.Atoi(s[5:])
	if month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("%w: 月份必须在 01 到 12 之间", domain.ErrInvalidArgument)
	}

	return YearMonth{Year: year, Month: time.Month(month)}, nil
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Start 返回当月第一天的 UTC 零点
func (ym YearMonth) Start() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End 返回下个月第一天的 UTC 零点（不包含）
func (ym YearMonth) End() time.Time {
	return ym.Start().AddDate(0, 1, 0)
}

func (ym YearMonth) LastDay() int {
	return ym.End().AddDate(0, 0, -1).Day()
}

func (ym YearMonth) Date(day int) time.Time {
	return time.Date(ym.Year, ym.Month, day, 0, 0, 0, 0, time.UTC)
}

func (ym YearMonth) Weekday(day int) time.Weekday {
	return ym.Date(day).Weekday()
}

func (ym YearMonth) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(ym.Start()) && t.Before(ym.End())
}

func (ym YearMonth) Prev() YearMonth {
	if ym.Month == time.January {
		return YearMonth{Year: ym.Year - 1, Month: time.December}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// ParseDate 解析 YYYY-MM-DD 并返回 UTC 零点
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: 日期 %q 格式错误，应为 YYYY-MM-DD", domain.ErrInvalidArgument, s)
	}
	return t, nil
}

// FormatDate 按 UTC 日期输出 YYYY-MM-DD
func FormatDate(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// DayOf 取 UTC 日期中的「日」，不能用本地时区，否则会出现差一天的问题
func DayOf(t time.Time) int {
	return t.UTC().Day()
}
