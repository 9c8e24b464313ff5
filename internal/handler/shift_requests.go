package handler

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/calendar"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/export"
)

func (h *Handler) GetMyShiftRequests(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	yearMonth := r.URL.Query().Get("yearMonth")

	requests, err := h.services.Reconciler.FindUserShiftRequests(r.Context(), myInfo.ID, yearMonth)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	hasSubmitted, err := h.services.Reconciler.HasSubmitted(r.Context(), myInfo.ID, yearMonth)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	dates := make([]int, len(requests))
	for i, req := range requests {
		dates[i] = calendar.DayOf(req.Date)
	}

	h.successResponse(w, r, "获取希望日期成功", map[string]any{
		"yearMonth":     yearMonth,
		"hasSubmitted":  hasSubmitted,
		"dates":         dates,
		"shiftRequests": requests,
	})
}

func (h *Handler) SubmitShiftRequests(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	// dates 用指针区分「没有传」和「传了空数组」，后者表示这个月一天都不想上
	var req struct {
		YearMonth string `json:"yearMonth" validate:"required"`
		Dates     *[]int `json:"dates" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	result, err := h.services.Reconciler.SubmitShiftRequests(r.Context(), myInfo.ID, req.YearMonth, *req.Dates)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "提交希望日期成功", result)
}

func (h *Handler) GetSubmissionReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.services.Aggregation.BuildSubmissionReport(r.Context(), r.URL.Query().Get("yearMonth"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取提交情况成功", report)
}

func (h *Handler) ExportSubmissionReport(w http.ResponseWriter, r *http.Request) {
	by := r.URL.Query().Get("by")
	if by == "" {
		by = export.ByDate
	}
	if by != export.ByDate && by != export.ByUser {
		h.errorResponse(w, r, http.StatusBadRequest, "by 只能是 date 或 user")
		return
	}

	report, err := h.services.Aggregation.BuildSubmissionReport(r.Context(), r.URL.Query().Get("yearMonth"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	// 先写到缓冲区，出错时还能返回 JSON
	var buf bytes.Buffer
	switch by {
	case export.ByUser:
		err = export.WriteByUser(&buf, report)
	default:
		err = export.WriteByDate(&buf, report, h.config.ClosureWeekday())
	}
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(report.YearMonth, by)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logInternalServerError(r, err)
	}
}
