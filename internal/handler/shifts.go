package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sysu-ecnc-dev/shift-month/backend/internal/service"
)

func (h *Handler) GetShifts(w http.ResponseWriter, r *http.Request) {
	view, err := h.services.Roster.FindByMonth(r.Context(), r.URL.Query().Get("yearMonth"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取排班表成功", view)
}

func (h *Handler) SaveShifts(w http.ResponseWriter, r *http.Request) {
	// 传空数组表示清空这个月的排班
	var req struct {
		YearMonth string                `json:"yearMonth" validate:"required"`
		Shifts    *[]service.ShiftInput `json:"shifts" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	count, err := h.services.Roster.SaveShifts(r.Context(), req.YearMonth, *req.Shifts)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "保存排班表成功", map[string]int{"count": count})
}

func (h *Handler) DeleteShifts(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.services.Roster.DeleteByMonth(r.Context(), r.URL.Query().Get("yearMonth"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "删除排班表成功", map[string]int64{"count": deleted})
}

func (h *Handler) GenerateShifts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		YearMonth string `json:"yearMonth" validate:"required"`
		service.GenerateRequest
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	cells, err := h.services.Roster.GenerateShifts(r.Context(), req.YearMonth, req.GenerateRequest)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "生成排班表成功", cells)
}

func (h *Handler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "排班ID无效")
		return
	}

	// userID 为 null 表示把这个格子空出来
	var req struct {
		UserID   *int64 `json:"userID"`
		IsManual bool   `json:"isManual"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	shift, err := h.services.Roster.UpdateShift(r.Context(), id, req.UserID, req.IsManual)
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新排班成功", shift)
}

func (h *Handler) PublishShifts(w http.ResponseWriter, r *http.Request) {
	m, err := h.services.Registry.Publish(r.Context(), r.URL.Query().Get("yearMonth"))
	if err != nil {
		h.serviceError(w, r, err)
		return
	}

	h.successResponse(w, r, "排班已发布", m)
}
