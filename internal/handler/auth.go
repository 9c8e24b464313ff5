package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

const otpPurposeResetPassword = "reset_password"

type AuthClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) issueToken(w http.ResponseWriter, user *domain.User) error {
	now := h.now()
	expiration := now.Add(time.Duration(h.config.JWT.Expiration) * time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   strconv.FormatInt(user.ID, 10),
		},
	})
	ss, err := token.SignedString([]byte(h.config.JWT.Secret))
	if err != nil {
		return err
	}

	// 通过 http-only 的 cookie 返回给客户端
	cookie := &http.Cookie{
		Name:     tokenCookieName,
		Value:    ss,
		Expires:  expiration,
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
	}

	if h.config.Environment == "production" {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteStrictMode
	}

	http.SetCookie(w, cookie)
	return nil
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 验证邮箱和密码
	user, err := h.accounts.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusUnauthorized, "邮箱不存在或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if user.IsDeleted {
		h.errorResponse(w, r, http.StatusUnauthorized, "邮箱不存在或密码错误")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			h.errorResponse(w, r, http.StatusUnauthorized, "邮箱不存在或密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.issueToken(w, user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "登录成功", user)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:    tokenCookieName,
		Value:   "",
		Expires: h.now().Add(-time.Hour),
		Path:    "/",
	})

	h.successResponse(w, r, "登出成功", nil)
}

func (h *Handler) RequireResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.accounts.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 用户不存在时同样返回成功，防止接口被用来探测邮箱
			h.successResponse(w, r, "重置密码所需验证码已通过邮件发送", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}
	if user.IsDeleted {
		h.successResponse(w, r, "重置密码所需验证码已通过邮件发送", nil)
		return
	}

	otp, err := utils.GenerateRandomOTP()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	ttl := time.Duration(h.config.OTP.Expiration) * time.Second
	if err := h.otp.SetOTP(r.Context(), otpPurposeResetPassword, user.Email, otp, ttl); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.mail.PublishMail(r.Context(), domain.MailMessage{
		Type: domain.MailTypeResetPassword,
		To:   user.Email,
		Data: domain.ResetPasswordMailData{
			Name:       user.Name,
			OTP:        otp,
			Expiration: h.config.OTP.Expiration / 60, // 邮件中显示的过期时间以分钟为单位，而配置中以秒为单位
		},
	}); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "重置密码所需验证码已通过邮件发送", nil)
}

func (h *Handler) ConfirmResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email" validate:"required,email"`
		OTP      string `json:"otp" validate:"required,len=6,numeric"`
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

	// 检验 OTP，不存在和不一致都视为验证码错误
	otp, err := h.otp.GetOTP(r.Context(), otpPurposeResetPassword, req.Email)
	if err != nil || otp != req.OTP {
		h.errorResponse(w, r, http.StatusBadRequest, "验证码错误")
		return
	}

	user, err := h.accounts.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	user.PasswordHash = string(hashedPassword)

	if err := h.accounts.UpdateUser(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusConflict, "请重试")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 密码已经修改成功，删除失败只记录日志
	if err := h.otp.DeleteOTP(r.Context(), otpPurposeResetPassword, req.Email); err != nil {
		slog.Warn("删除验证码失败", "email", req.Email, "error", err)
	}

	h.successResponse(w, r, "重置密码成功", nil)
}
