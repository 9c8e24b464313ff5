package storetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/cache"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

// Cache 是 cache.Cache 的内存实现，记录清除次数
type Cache struct {
	mu          sync.Mutex
	month       *domain.ShiftMonth
	otps        map[string]string
	invalidated int
}

func NewCache() *Cache {
	return &Cache{otps: make(map[string]string)}
}

func (c *Cache) GetCurrentOpenMonth(ctx context.Context) (*domain.ShiftMonth, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.month == nil {
		return nil, cache.ErrMiss
	}
	return copyMonth(c.month), nil
}

func (c *Cache) SetCurrentOpenMonth(ctx context.Context, m *domain.ShiftMonth) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.month = copyMonth(m)
	return nil
}

func (c *Cache) InvalidateCurrentOpenMonth(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.month = nil
	c.invalidated++
	return nil
}

// CurrentMonth 返回缓存中的当前月份，没有时为 nil
func (c *Cache) CurrentMonth() *domain.ShiftMonth {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.month == nil {
		return nil
	}
	return copyMonth(c.month)
}

func (c *Cache) Invalidated() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.invalidated
}

func otpKey(purpose, subject string) string {
	return fmt.Sprintf("%s/%s", purpose, subject)
}

// SetOTP 忽略 ttl
func (c *Cache) SetOTP(ctx context.Context, purpose, subject, otp string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.otps[otpKey(purpose, subject)] = otp
	return nil
}

func (c *Cache) GetOTP(ctx context.Context, purpose, subject string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	otp, ok := c.otps[otpKey(purpose, subject)]
	if !ok {
		return "", cache.ErrMiss
	}
	return otp, nil
}

func (c *Cache) DeleteOTP(ctx context.Context, purpose, subject string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.otps, otpKey(purpose, subject))
	return nil
}

// Mail 记录所有投递的邮件
type Mail struct {
	mu   sync.Mutex
	sent []domain.MailMessage
}

func (m *Mail) PublishMail(ctx context.Context, msg domain.MailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, msg)
	return nil
}

func (m *Mail) Sent() []domain.MailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]domain.MailMessage(nil), m.sent...)
}

// Clock 是可以手动调整的时钟
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
