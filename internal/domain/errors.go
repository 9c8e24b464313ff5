package domain

import "errors"

// 业务错误的三种分类，调用方应使用 errors.Is 判断
var (
	ErrInvalidArgument = errors.New("参数错误")
	ErrForbidden       = errors.New("不允许的操作")
	ErrNotFound        = errors.New("资源不存在")
)
