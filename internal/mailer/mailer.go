// Package mailer 把队列中的邮件消息渲染成可以直接发送的邮件
package mailer

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

type kind struct {
	file    string
	subject string
	data    func() any
}

var kinds = map[string]kind{
	domain.MailTypeInvitation: {
		file:    "invitation_email.html",
		subject: "排班系统 - 注册邀请",
		data:    func() any { return &domain.InvitationMailData{} },
	},
	domain.MailTypeResetPassword: {
		file:    "reset_password_otp_email.html",
		subject: "排班系统 - 重置密码",
		data:    func() any { return &domain.ResetPasswordMailData{} },
	},
	domain.MailTypeShiftPublished: {
		file:    "shift_published_email.html",
		subject: "排班系统 - 排班表已发布",
		data:    func() any { return &domain.ShiftPublishedMailData{} },
	},
}

type Renderer struct {
	from      string
	templates map[string]*template.Template
}

// NewRenderer 启动时一次性解析全部模板，缺少任何一个都直接报错
func NewRenderer(dir, from string) (*Renderer, error) {
	r := &Renderer{
		from:      from,
		templates: make(map[string]*template.Template, len(kinds)),
	}

	for typ, k := range kinds {
		tmpl, err := template.ParseFiles(filepath.Join(dir, k.file))
		if err != nil {
			return nil, fmt.Errorf("无法解析邮件模板 %s: %w", k.file, err)
		}
		r.templates[typ] = tmpl
	}

	return r, nil
}

// ErrUnknownType 表示消息类型没有对应的模板，这类消息重试也没有意义
var ErrUnknownType = errors.New("不支持的邮件类型")

// Build 解析队列中的消息体并生成邮件
func (r *Renderer) Build(body []byte) (*mail.Msg, error) {
	var raw struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("邮件信息反序列化失败: %w", err)
	}

	k, ok := kinds[raw.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, raw.Type)
	}
	data := k.data()
	if err := json.Unmarshal(raw.Data, data); err != nil {
		return nil, fmt.Errorf("邮件数据反序列化失败: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(r.from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(raw.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}
	msg.Subject(k.subject)
	if err := msg.SetBodyHTMLTemplate(r.templates[raw.Type], data); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}

	return msg, nil
}
