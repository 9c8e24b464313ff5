package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/service"
)

const (
	ByDate = "date"
	ByUser = "user"
)

// utf8BOM 让 Excel 能正确识别编码
const utf8BOM = "\ufeff"

// WriteByDate 每一行是一天：日期、星期、希望人数、希望的人（按报表顺序）
// 定休日不输出
func WriteByDate(w io.Writer, report *service.SubmissionReport, closure time.Weekday) error {
	ym, err := calendar.ParseYearMonth(report.YearMonth)
	if err != nil {
		return err
	}

	names := make(map[int][]string)
	for _, u := range report.Users {
		for _, day := range u.Dates {
			names[day] = append(names[day], u.Name)
		}
	}

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"日付", "曜日", "人数", "氏名"}); err != nil {
		return err
	}

	for day := 1; day <= ym.LastDay(); day++ {
		wd := ym.Weekday(day)
		if wd == closure {
			continue
		}
		record := []string{
			calendar.FormatDate(ym.Date(day)),
			calendar.DayLabel(wd),
			strconv.Itoa(len(names[day])),
			strings.Join(names[day], "、"),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteByUser 每一行是一个人：姓名、邮箱、是否提交、希望天数、希望的日
func WriteByUser(w io.Writer, report *service.SubmissionReport) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"氏名", "メールアドレス", "提出", "希望日数", "希望日"}); err != nil {
		return err
	}

	for _, u := range report.Users {
		submitted := "未提出"
		if u.HasSubmitted {
			submitted = "提出済"
		}

		days := make([]string, len(u.Dates))
		for i, day := range u.Dates {
			days[i] = strconv.Itoa(day)
		}

		record := []string{u.Name, u.Email, submitted, strconv.Itoa(len(u.Dates)), strings.Join(days, " ")}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Filename 返回下载时使用的文件名
func Filename(yearMonth, by string) string {
	return fmt.Sprintf("shift-requests-%s-%s.csv", yearMonth, by)
}
