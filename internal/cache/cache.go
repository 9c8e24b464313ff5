package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

// ErrMiss 表示缓存中没有对应的值
var ErrMiss = errors.New("缓存未命中")

const currentOpenMonthKey = "shift_month:current_open"

type Cache struct {
	rdb              *redis.Client
	operationTimeout time.Duration
	currentMonthTTL  time.Duration
}

func New(rdb *redis.Client, operationTimeout, currentMonthTTL time.Duration) *Cache {
	return &Cache{
		rdb:              rdb,
		operationTimeout: operationTimeout,
		currentMonthTTL:  currentMonthTTL,
	}
}

func (c *Cache) GetCurrentOpenMonth(ctx context.Context) (*domain.ShiftMonth, error) {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	data, err := c.rdb.Get(ctx, currentOpenMonthKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}

	m := &domain.ShiftMonth{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}

	return m, nil
}

func (c *Cache) SetCurrentOpenMonth(ctx context.Context, m *domain.ShiftMonth) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	return c.rdb.Set(ctx, currentOpenMonthKey, data, c.currentMonthTTL).Err()
}

// InvalidateCurrentOpenMonth 在任何月份状态变化之后调用
func (c *Cache) InvalidateCurrentOpenMonth(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	return c.rdb.Del(ctx, currentOpenMonthKey).Err()
}

func otpKey(purpose, subject string) string {
	return fmt.Sprintf("otp_%s_%s", subject, purpose)
}

func (c *Cache) SetOTP(ctx context.Context, purpose, subject, otp string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	return c.rdb.Set(ctx, otpKey(purpose, subject), otp, ttl).Err()
}

func (c *Cache) GetOTP(ctx context.Context, purpose, subject string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	otp, err := c.rdb.Get(ctx, otpKey(purpose, subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrMiss
		}
		return "", err
	}

	return otp, nil
}

func (c *Cache) DeleteOTP(ctx context.Context, purpose, subject string) error {
	ctx, cancel := context.WithTimeout(ctx, c.operationTimeout)
	defer cancel()

	return c.rdb.Del(ctx, otpKey(purpose, subject)).Err()
}
