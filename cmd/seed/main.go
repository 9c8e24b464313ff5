package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/seed"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/service"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var yearMonth string
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 创建并开放月份, 3: 随机提交希望日期, 4: 从 CSV 导入提交记录, 5: 按需求配置生成并保存排班表)")
	flag.IntVar(&n, "n", 5, "要插入的用户数量")
	flag.StringVar(&yearMonth, "year-month", "", "目标月份 YYYY-MM")
	flag.StringVar(&file, "file", "", "操作 4 为 CSV 文件，操作 5 为需求配置 YAML 文件")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", "error", err)
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		logger.Error("无法加载排班规则", "error", err)
		return
	}

	if op != 1 {
		if _, err := calendar.ParseYearMonth(yearMonth); err != nil {
			logger.Error("请输入合法的月份", "yearMonth", yearMonth)
			return
		}
	}
	ym, _ := calendar.ParseYearMonth(yearMonth)

	// 脚本不受时间限制，统一使用前一个月的提交期间
	seedOpts := seed.PinnedOptions(opts, ym)

	ctx = context.Background()

	// 执行操作
	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		if n <= 0 {
			logger.Error("请输入合法的用户数量")
			return
		}
		cnt, err := seed.Users(ctx, repo, n, cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			logger.Error("无法插入用户", "error", err)
		}
		logger.Info("插入用户成功", "count", cnt)
	case 2:
		// 脚本不连接 redis，api 中缓存的开放月份最多在 REDIS_CURRENT_MONTH_TTL 秒后过期
		registry := service.NewRegistry(repo, repo, repo, nil, nil, opts)
		if _, err := registry.CreateShiftMonth(ctx, ym.String()); err != nil && !errors.Is(err, domain.ErrInvalidArgument) {
			logger.Error("无法创建月份", "error", err)
			return
		}
		m, err := registry.OpenMonth(ctx, ym.String())
		if err != nil {
			logger.Error("无法开放月份", "error", err)
			return
		}
		logger.Info("月份已开放", "yearMonth", m.YearMonth, "status", m.Status)
	case 3:
		reconciler := service.NewReconciler(repo, repo, seedOpts)
		cnt, err := seed.RandomSubmissions(ctx, repo, reconciler, ym)
		if err != nil {
			logger.Error("无法插入提交记录", "error", err)
		}
		logger.Info("插入提交记录成功", "count", cnt)
	case 4:
		f, err := os.Open(file)
		if err != nil {
			logger.Error("打开文件失败", "error", err)
			return
		}
		defer f.Close()

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.User.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("无法生成密码哈希", "error", err)
			return
		}

		reconciler := service.NewReconciler(repo, repo, seedOpts)
		if _, err := seed.ImportSubmissions(ctx, f, repo, reconciler, ym, string(passwordHash)); err != nil {
			logger.Error("导入提交记录失败", "error", err)
		}
	case 5:
		f, err := os.Open(file)
		if err != nil {
			logger.Error("打开文件失败", "error", err)
			return
		}
		defer f.Close()

		preset, err := scheduler.LoadRequirementPreset(f)
		if err != nil {
			logger.Error("无法解析需求配置", "error", err)
			return
		}

		generator, err := scheduler.New(cfg.Shift.Generator)
		if err != nil {
			logger.Error("无法创建排班算法", "error", err)
			return
		}

		roster := service.NewRoster(repo, repo, repo, repo, generator, opts)
		cells, err := roster.GenerateShifts(ctx, ym.String(), service.GenerateRequest{Preset: preset})
		if err != nil {
			logger.Error("无法生成排班表", "error", err)
			return
		}

		inputs := make([]service.ShiftInput, len(cells))
		for i, c := range cells {
			inputs[i] = service.ShiftInput{
				Date:     calendar.FormatDate(c.Date),
				UserID:   c.UserID,
				IsManual: c.IsManual,
				Slot:     c.Slot,
			}
		}
		cnt, err := roster.SaveShifts(ctx, ym.String(), inputs)
		if err != nil {
			logger.Error("无法保存排班表", "error", err)
			return
		}
		logger.Info("排班表已保存", "yearMonth", ym.String(), "count", cnt)
	default:
		logger.Error("指定的操作非法")
	}
}
