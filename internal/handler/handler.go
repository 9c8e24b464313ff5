package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/policy"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/service"
)

// AccountStore 是账号相关接口直接使用的存储，由 *repository.Repository 实现
type AccountStore interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetActiveUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	CheckEmailIfExists(ctx context.Context, email string) (bool, error)
	CreateInvitation(ctx context.Context, inv *domain.Invitation) error
	GetInvitationByToken(ctx context.Context, token string) (*domain.Invitation, error)
	AcceptInvitation(ctx context.Context, inv *domain.Invitation, user *domain.User) error
}

// OTPCache 保存重置密码时使用的验证码，由 *cache.Cache 实现
type OTPCache interface {
	SetOTP(ctx context.Context, purpose, subject, otp string, ttl time.Duration) error
	GetOTP(ctx context.Context, purpose, subject string) (string, error)
	DeleteOTP(ctx context.Context, purpose, subject string) error
}

type Services struct {
	Registry    *service.Registry
	Reconciler  *service.Reconciler
	Roster      *service.Roster
	Aggregation *service.Aggregation
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	translator ut.Translator
	accounts   AccountStore
	otp        OTPCache
	mail       service.MailPublisher
	services   Services
	now        func() time.Time

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, accounts AccountStore, otp OTPCache, mail service.MailPublisher, services Services) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		translator: trans,
		accounts:   accounts,
		otp:        otp,
		mail:       mail,
		services:   services,
		now:        time.Now,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 通过邀请注册
	h.Mux.Route("/invitations", func(r chi.Router) {
		r.Get("/verify", h.VerifyInvitation)
		r.Post("/signup", h.Signup)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.myInfo)

		r.Route("/my-info", func(r chi.Router) {
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/shift-months", func(r chi.Router) {
			r.With(h.requireCapability(policy.OpViewShiftMonths)).Get("/", h.GetAllShiftMonths)
			r.With(h.requireCapability(policy.OpManageShiftMonths)).Post("/", h.CreateShiftMonth)
			r.With(h.requireCapability(policy.OpViewCurrentMonth)).Get("/current", h.GetCurrentShiftMonth)
			r.Route("/{yearMonth}", func(r chi.Router) {
				r.With(h.requireCapability(policy.OpViewShiftMonths)).Get("/calendar", h.GetMonthCalendar)
				r.Group(func(r chi.Router) {
					r.Use(h.requireCapability(policy.OpManageShiftMonths))
					r.Post("/open", h.OpenShiftMonth)
					r.Post("/close", h.CloseShiftMonth)
				})
				r.With(h.requireCapability(policy.OpPublishRoster)).Post("/publish", h.PublishShiftMonth)
			})
		})

		r.Route("/shift-requests", func(r chi.Router) {
			r.With(h.requireCapability(policy.OpViewOwnShiftRequests)).Get("/", h.GetMyShiftRequests)
			r.With(h.requireCapability(policy.OpSubmitShiftRequest)).Post("/", h.SubmitShiftRequests)
			r.With(h.requireCapability(policy.OpViewReport)).Get("/all", h.GetSubmissionReport)
			r.With(h.requireCapability(policy.OpExportReport)).Get("/export-csv", h.ExportSubmissionReport)
		})

		r.Route("/shifts", func(r chi.Router) {
			r.With(h.requireCapability(policy.OpViewRoster)).Get("/", h.GetShifts)
			r.With(h.requireCapability(policy.OpSaveRoster)).Post("/", h.SaveShifts)
			r.With(h.requireCapability(policy.OpDeleteRoster)).Delete("/", h.DeleteShifts)
			r.With(h.requireCapability(policy.OpGenerateRoster)).Post("/generate", h.GenerateShifts)
			r.With(h.requireCapability(policy.OpPublishRoster)).Post("/publish", h.PublishShifts)
			r.With(h.requireCapability(policy.OpEditShift)).Patch("/{id}", h.UpdateShift)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.requireCapability(policy.OpViewUsers)).Get("/", h.GetAllUsers)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.With(h.requireCapability(policy.OpViewUsers)).Get("/", h.GetUserInfo)
				r.With(h.requireCapability(policy.OpManageUsers), h.preventOperateInitialAdmin).Patch("/", h.UpdateUser)
				r.With(h.requireCapability(policy.OpManageUsers), h.preventOperateInitialAdmin).Delete("/", h.DeleteUser)
			})
		})

		r.With(h.requireCapability(policy.OpCreateInvitation)).Post("/invitations", h.CreateInvitation)
	})
}
