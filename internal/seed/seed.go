package seed

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/service"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/utils"
)

// Store 是导入数据时用到的存储，由 *repository.Repository 实现
type Store interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetActiveUsers(ctx context.Context) ([]*domain.User, error)
}

// 导入文件的表头与「按人导出」的 CSV 一致，多余的列会被忽略
const (
	headerName      = "氏名"
	headerEmail     = "メールアドレス"
	headerSubmitted = "提出"
	headerDays      = "希望日"
	submittedValue  = "提出済"
)

// Users 插入 n 个随机员工，邮箱冲突的跳过
func Users(ctx context.Context, store Store, n int, password, emailDomain string) (int, error) {
	cnt := 0
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomUser(password, emailDomain)
		if err != nil {
			return cnt, err
		}

		if err := store.CreateUser(ctx, user); err != nil {
			if repository.IsUniqueViolation(err, "users_email_key") {
				slog.Warn("邮箱已存在，跳过", "email", user.Email)
				continue
			}
			return cnt, err
		}
		cnt++
	}

	return cnt, nil
}

// PinnedOptions 把时钟固定在目标月份前一个月的提交期间第一天中午，使脚本随时都能提交
func PinnedOptions(opts service.Options, ym calendar.YearMonth) service.Options {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	prev := ym.Prev()
	pinned := time.Date(prev.Year, prev.Month, opts.WindowStart, 12, 0, 0, 0, loc)
	opts.Now = func() time.Time { return pinned }
	return opts
}

// RandomSubmissions 为每个在职员工随机提交一次希望日期
func RandomSubmissions(ctx context.Context, store Store, reconciler *service.Reconciler, ym calendar.YearMonth) (int, error) {
	users, err := store.GetActiveUsers(ctx)
	if err != nil {
		return 0, err
	}

	cnt := 0
	for _, user := range users {
		days := utils.GenerateRandomSubset(ym.LastDay())
		if _, err := reconciler.SubmitShiftRequests(ctx, user.ID, ym.String(), days); err != nil {
			return cnt, fmt.Errorf("%s: %w", user.Email, err)
		}
		cnt++
	}

	return cnt, nil
}

// ImportSubmissions 读取「按人导出」格式的 CSV 并重新提交，不存在的员工用 passwordHash 新建
// 未提交的行只会创建员工，不会产生提交记录
func ImportSubmissions(ctx context.Context, r io.Reader, store Store, reconciler *service.Reconciler, ym calendar.YearMonth, passwordHash string) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("读取表头失败: %w", err)
	}
	// Excel 保存的文件会带 BOM
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	index := make(map[string]int, len(headers))
	for i, header := range headers {
		index[header] = i
	}
	for _, required := range []string{headerName, headerEmail, headerSubmitted, headerDays} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("没有找到 %s 列", required)
		}
	}

	cnt := 0
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return cnt, fmt.Errorf("读取文件失败: %w", err)
		}

		field := func(name string) string {
			if i := index[name]; i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}

		email := field(headerEmail)
		if email == "" {
			slog.Warn("没有找到邮箱，跳过", "line", line)
			continue
		}

		user, err := store.GetUserByEmail(ctx, email)
		if err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return cnt, err
			}
			// 表示该员工不在数据库中，需要新建并插入
			user = &domain.User{
				Name:         field(headerName),
				Email:        email,
				PasswordHash: passwordHash,
				Role:         domain.RoleStaff,
			}
			if err := store.CreateUser(ctx, user); err != nil {
				return cnt, fmt.Errorf("第 %d 行: 插入员工失败: %w", line, err)
			}
		}

		if field(headerSubmitted) != submittedValue {
			continue
		}

		days, err := parseDays(field(headerDays))
		if err != nil {
			return cnt, fmt.Errorf("第 %d 行: %w", line, err)
		}
		if _, err := reconciler.SubmitShiftRequests(ctx, user.ID, ym.String(), days); err != nil {
			return cnt, fmt.Errorf("第 %d 行: %w", line, err)
		}
		cnt++
	}

	slog.Info("导入提交记录完成", "yearMonth", ym.String(), "count", cnt)

	return cnt, nil
}

// parseDays 接受空格或逗号分隔的日
func parseDays(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '、'
	})

	days := make([]int, 0, len(fields))
	for _, f := range fields {
		day, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%w: 无法解析日期 %q", domain.ErrInvalidArgument, f)
		}
		days = append(days, day)
	}
	return days, nil
}
