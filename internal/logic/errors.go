package logic

import (
	"errors"
	"fmt"
)

// Kind 业务错误类别，handler 层据此映射 HTTP 状态码
type Kind int

const (
	KindInternal   Kind = iota // 内部错误
	KindValidation             // 参数错误
	KindNotFound               // 资源不存在
	KindForbidden              // 无权限
	KindConflict               // 业务规则冲突（重复支持、档位售罄、重复捕获等）
	KindUpstream               // 上游支付渠道调用失败
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError 创建业务错误
func NewError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError 包装底层错误
func WrapError(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf 提取错误类别，未识别的一律按内部错误处理
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind 判断错误是否属于指定类别
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
