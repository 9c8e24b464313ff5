package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
		FrontendURL     string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Name     string `env:"NAME" envDefault:"管理员"`
		Password string `env:"PASSWORD,required"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"336"` // 小时，即 14 天
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD" envDefault:"password"`
		} `envPrefix:"USER_"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN" envDefault:"example.com"`
		SMTP       struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
		TemplateDir string `env:"TEMPLATE_DIR" envDefault:"./templates"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"` // 秒
		CurrentMonthTTL     int    `env:"CURRENT_MONTH_TTL" envDefault:"300"` // 秒
	} `envPrefix:"REDIS_"`
	OTP struct {
		Expiration int `env:"EXPIRATION" envDefault:"900"` // 15 分钟
	} `envPrefix:"OTP_"`
	Invitation struct {
		ExpirationDays int `env:"EXPIRATION_DAYS" envDefault:"7"`
	} `envPrefix:"INVITATION_"`
	Shift struct {
		TimeZone              string `env:"TIME_ZONE" envDefault:"Asia/Tokyo"`
		ClosureWeekday        int    `env:"CLOSURE_WEEKDAY" envDefault:"1"` // 0 为周日，默认周一店休
		SubmissionWindowStart int    `env:"SUBMISSION_WINDOW_START" envDefault:"15"`
		SubmissionWindowEnd   int    `env:"SUBMISSION_WINDOW_END" envDefault:"20"`
		LockPublishedRoster   bool   `env:"LOCK_PUBLISHED_ROSTER" envDefault:"false"`
		Generator             string `env:"GENERATOR" envDefault:"greedy"`
		MaxStaffPerDay        int    `env:"MAX_STAFF_PER_DAY" envDefault:"20"`
	} `envPrefix:"SHIFT_"`
}

func LoadConfig() (*Config, error) {
	// 本地开发时可以把环境变量写在 .env 里，文件不存在时忽略
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if err := cfg.validateShift(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (cfg *Config) validateShift() error {
	if cfg.Shift.ClosureWeekday < 0 || cfg.Shift.ClosureWeekday > 6 {
		return errors.New("SHIFT_CLOSURE_WEEKDAY 必须在 0 到 6 之间")
	}
	if cfg.Shift.SubmissionWindowStart < 1 || cfg.Shift.SubmissionWindowEnd > 31 || cfg.Shift.SubmissionWindowStart > cfg.Shift.SubmissionWindowEnd {
		return errors.New("提交窗口配置错误")
	}
	if cfg.Shift.MaxStaffPerDay < 1 || cfg.Shift.MaxStaffPerDay > 1000 {
		return errors.New("SHIFT_MAX_STAFF_PER_DAY 必须在 1 到 1000 之间")
	}
	if _, err := cfg.Location(); err != nil {
		return err
	}
	return nil
}

// Location 返回判断提交窗口时使用的时区
func (cfg *Config) Location() (*time.Location, error) {
	return time.LoadLocation(cfg.Shift.TimeZone)
}

func (cfg *Config) ClosureWeekday() time.Weekday {
	return time.Weekday(cfg.Shift.ClosureWeekday)
}
