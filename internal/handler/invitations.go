package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func (h *Handler) CreateInvitation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required,max=50"`
		Role  string `json:"role" validate:"required,oneof=STAFF ADMIN"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	exists, err := h.accounts.CheckEmailIfExists(r.Context(), req.Email)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if exists {
		h.errorResponse(w, r, http.StatusBadRequest, "该邮箱已注册")
		return
	}

	token, err := utils.GenerateInvitationToken()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	inv := &domain.Invitation{
		Token:     token,
		Email:     req.Email,
		Name:      req.Name,
		Role:      domain.Role(req.Role),
		ExpiresAt: h.now().AddDate(0, 0, h.config.Invitation.ExpirationDays),
	}
	if err := h.accounts.CreateInvitation(r.Context(), inv); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.mail.PublishMail(r.Context(), domain.MailMessage{
		Type: domain.MailTypeInvitation,
		To:   inv.Email,
		Data: domain.InvitationMailData{
			Name:          inv.Name,
			InvitationURL: fmt.Sprintf("%s/signup?token=%s", h.config.Server.FrontendURL, url.QueryEscape(token)),
			ExpiresIn:     h.config.Invitation.ExpirationDays,
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "邀请邮件已发送", inv)
}

// validInvitation 返回可以用来注册的邀请，不可用时返回 false
func (h *Handler) validInvitation(w http.ResponseWriter, r *http.Request, token string) (*domain.Invitation, bool) {
	inv, err := h.accounts.GetInvitationByToken(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusNotFound, "邀请不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return nil, false
	}

	if inv.Used {
		h.errorResponse(w, r, http.StatusBadRequest, "邀请已被使用")
		return nil, false
	}
	if !h.now().Before(inv.ExpiresAt) {
		h.errorResponse(w, r, http.StatusBadRequest, "邀请已过期")
		return nil, false
	}

	return inv, true
}

func (h *Handler) VerifyInvitation(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "缺少邀请令牌")
		return
	}

	inv, ok := h.validInvitation(w, r, token)
	if !ok {
		return
	}

	h.successResponse(w, r, "邀请有效", inv)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	inv, ok := h.validInvitation(w, r, req.Token)
	if !ok {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Name:         inv.Name,
		Email:        inv.Email,
		PasswordHash: string(hashedPassword),
		Role:         inv.Role,
	}
	if err := h.accounts.AcceptInvitation(r.Context(), inv, user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusBadRequest, "邀请已被使用")
		case repository.IsUniqueViolation(err, "users_email_key"):
			h.errorResponse(w, r, http.StatusBadRequest, "该邮箱已注册")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.issueToken(w, user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "注册成功", user)
}
