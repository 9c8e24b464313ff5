package domain

const (
	MailTypeInvitation     = "invitation"
	MailTypeResetPassword  = "reset_password"
	MailTypeShiftPublished = "shift_published"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type InvitationMailData struct {
	Name          string `json:"name"`
	InvitationURL string `json:"invitationURL"`
	ExpiresIn     int    `json:"expiresIn"` // 天
}

type ResetPasswordMailData struct {
	Name       string `json:"name"`
	OTP        string `json:"otp"`
	Expiration int    `json:"expiration"`
}

type ShiftPublishedMailData struct {
	Name      string `json:"name"`
	YearMonth string `json:"yearMonth"`
	Days      []int  `json:"days"` // 该用户被排到的日期
}
