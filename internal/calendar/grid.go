package calendar

import "time"

// Cell 是月历中的一个格子，补位的格子 Date 为 0 且 Weekday 为 nil
type Cell struct {
	Date    int           `json:"date,omitempty"`
	Weekday *time.Weekday `json:"day,omitempty"`
}

var dayLabels = [7]string{"日", "月", "火", "水", "木", "金", "土"}

func DayLabel(d time.Weekday) string {
	return dayLabels[d]
}

func DayLabels() []string {
	return dayLabels[:]
}

// MonthGrid 生成以周日开头、每行 7 格的月历
func MonthGrid(ym YearMonth) [][]Cell {
	grid := make([][]Cell, 0, 6)
	week := make([]Cell, 0, 7)

	first := ym.Weekday(1)
	for i := 0; i < int(first); i++ {
		week = append(week, Cell{})
	}

	for day := 1; day <= ym.LastDay(); day++ {
		if len(week) == 7 {
			grid = append(grid, week)
			week = make([]Cell, 0, 7)
		}
		wd := ym.Weekday(day)
		week = append(week, Cell{Date: day, Weekday: &wd})
	}

	for len(week) < 7 {
		week = append(week, Cell{})
	}
	grid = append(grid, week)

	return grid
}

// DaysOn 返回当月所有落在 weekday 上的日期
func DaysOn(ym YearMonth, weekday time.Weekday) []int {
	days := make([]int, 0, 5)
	for day := 1; day <= ym.LastDay(); day++ {
		if ym.Weekday(day) == weekday {
			days = append(days, day)
		}
	}
	return days
}
