package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

func (h *Handler) GetAllShiftMonths(w http.ResponseWriter, r *http.Request) {
	months, err := h.services.Registry.ListShiftMonths(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取月份列表成功", months)
}

func (h *Handler) CreateShiftMonth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		YearMonth string `json:"yearMonth" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	m, err := h.services.Registry.CreateShiftMonth(r.Context(), req.YearMonth)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建月份成功", m)
}

func (h *Handler) GetCurrentShiftMonth(w http.ResponseWriter, r *http.Request) {
	m, err := h.services.Registry.GetCurrentOpenMonth(r.Context())
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取当前开放的月份成功", m)
}

// GetMonthCalendar 返回前端画月历需要的数据，月份不需要已经创建
func (h *Handler) GetMonthCalendar(w http.ResponseWriter, r *http.Request) {
	ym, err := calendar.ParseYearMonth(chi.URLParam(r, "yearMonth"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	closure := h.config.ClosureWeekday()
	h.successResponse(w, r, "获取月历成功", map[string]any{
		"yearMonth":      ym.String(),
		"prev":           ym.Prev().String(),
		"next":           ym.Next().String(),
		"dayLabels":      calendar.DayLabels(),
		"closureWeekday": closure,
		"closureDays":    calendar.DaysOn(ym, closure),
		"weeks":          calendar.MonthGrid(ym),
	})
}

func (h *Handler) OpenShiftMonth(w http.ResponseWriter, r *http.Request) {
	h.transitionShiftMonth(w, r, domain.ShiftMonthOpen)
}

func (h *Handler) CloseShiftMonth(w http.ResponseWriter, r *http.Request) {
	h.transitionShiftMonth(w, r, domain.ShiftMonthClosed)
}

func (h *Handler) PublishShiftMonth(w http.ResponseWriter, r *http.Request) {
	h.transitionShiftMonth(w, r, domain.ShiftMonthPublished)
}

func (h *Handler) transitionShiftMonth(w http.ResponseWriter, r *http.Request, next domain.ShiftMonthStatus) {
	yearMonth := chi.URLParam(r, "yearMonth")

	var (
		m   *domain.ShiftMonth
		err error
		msg string
	)
	switch next {
	case domain.ShiftMonthOpen:
		m, err = h.services.Registry.OpenMonth(r.Context(), yearMonth)
		msg = "已开放提交"
	case domain.ShiftMonthClosed:
		m, err = h.services.Registry.CloseMonth(r.Context(), yearMonth)
		msg = "已截止提交"
	default:
		m, err = h.services.Registry.Publish(r.Context(), yearMonth)
		msg = "排班已发布"
	}
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, msg, m)
}
