package proxy

import (
	"errors"
	"fmt"
)

// FailureKind 区分刷新失败的原因，缓存行为上三者等价，仅用于日志与观测。
type FailureKind string

const (
	FailureNetwork     FailureKind = "network"
	FailureStatus      FailureKind = "status"
	FailureInvalidBody FailureKind = "invalid_body"
	FailureStore       FailureKind = "store"
)

var (
	// ErrCacheUnavailable 表示缓存槽从未写入成功且本次刷新也失败，没有可返回的内容。
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrUnexpectedStatus 表示上游返回了非 200 状态码。
	ErrUnexpectedStatus = errors.New("unexpected upstream status")
	// ErrInvalidDocument 表示上游正文不是合法 JSON。
	ErrInvalidDocument = errors.New("upstream body is not valid JSON")
)

// RefreshError 描述一次失败的刷新尝试。
type RefreshError struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *RefreshError) Error() string {
	if e.Kind == FailureStatus {
		return fmt.Sprintf("refresh failed (%s %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("refresh failed (%s): %v", e.Kind, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// FailureKindOf 从任意 error 中提取刷新失败类型，非 RefreshError 时返回空串。
func FailureKindOf(err error) FailureKind {
	var refreshErr *RefreshError
	if errors.As(err, &refreshErr) {
		return refreshErr.Kind
	}
	return ""
}

// upstreamStatusOf 返回刷新失败时记录的上游状态码，未收到响应时为 0。
func upstreamStatusOf(err error) int {
	var refreshErr *RefreshError
	if errors.As(err, &refreshErr) {
		return refreshErr.StatusCode
	}
	return 0
}
