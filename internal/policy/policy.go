package policy

import (
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/shift-month/backend/internal/domain"
)

type Operation string

const (
	OpSubmitShiftRequest   Operation = "submit_shift_request"
	OpViewOwnShiftRequests Operation = "view_own_shift_requests"
	OpViewRoster           Operation = "view_roster"
	OpViewCurrentMonth     Operation = "view_current_month"
	OpViewShiftMonths      Operation = "view_shift_months"
	OpManageShiftMonths    Operation = "manage_shift_months"
	OpSaveRoster           Operation = "save_roster"
	OpGenerateRoster       Operation = "generate_roster"
	OpPublishRoster        Operation = "publish_roster"
	OpDeleteRoster         Operation = "delete_roster"
	OpEditShift            Operation = "edit_shift"
	OpViewReport           Operation = "view_report"
	OpExportReport         Operation = "export_report"
	OpViewUsers            Operation = "view_users"
	OpManageUsers          Operation = "manage_users"
	OpCreateInvitation     Operation = "create_invitation"
)

// capabilities 是唯一的权限表，所有接口都通过它判断角色能否执行操作
var capabilities = map[Operation][]domain.Role{
	OpSubmitShiftRequest:   {domain.RoleStaff, domain.RoleAdmin},
	OpViewOwnShiftRequests: {domain.RoleStaff, domain.RoleAdmin},
	OpViewRoster:           {domain.RoleStaff, domain.RoleAdmin},
	OpViewCurrentMonth:     {domain.RoleStaff, domain.RoleAdmin},
	OpViewShiftMonths:      {domain.RoleStaff, domain.RoleAdmin},
	OpViewUsers:            {domain.RoleStaff, domain.RoleAdmin},
	OpManageShiftMonths:    {domain.RoleAdmin},
	OpSaveRoster:           {domain.RoleAdmin},
	OpGenerateRoster:       {domain.RoleAdmin},
	OpPublishRoster:        {domain.RoleAdmin},
	OpDeleteRoster:         {domain.RoleAdmin},
	OpEditShift:            {domain.RoleAdmin},
	OpViewReport:           {domain.RoleAdmin},
	OpExportReport:         {domain.RoleAdmin},
	OpManageUsers:          {domain.RoleAdmin},
	OpCreateInvitation:     {domain.RoleAdmin},
}

// Allowed 对未知的操作或角色一律拒绝
func Allowed(role domain.Role, op Operation) bool {
	return slices.Contains(capabilities[op], role)
}

func Check(role domain.Role, op Operation) error {
	if !Allowed(role, op) {
		return fmt.Errorf("%w: 角色 %s 无权执行 %s", domain.ErrForbidden, role, op)
	}
	return nil
}

// Operations 返回权限表中的全部操作
func Operations() []Operation {
	ops := make([]Operation, 0, len(capabilities))
	for op := range capabilities {
		ops = append(ops, op)
	}
	return ops
}
