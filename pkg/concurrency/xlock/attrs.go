package xlock

import (
	"fmt"
	"log/slog"
	"time"
)

// =============================================================================
// 日志属性构造函数
// =============================================================================

const (
	logKeyLockName  = "lock"
	logKeyOwner     = "owner"
	logKeyRequestID = "request_id"
	logKeyState     = "state"
	logKeyDeadline  = "deadline"
)

// ownerString 将 owner 转为低开销的日志/追踪表示。
func ownerString(owner any) string {
	if s, ok := owner.(string); ok {
		return s
	}
	if s, ok := owner.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", owner)
}

// AttrLockName 返回锁名称属性。
func AttrLockName(name string) slog.Attr {
	return slog.String(logKeyLockName, name)
}

// AttrOwner 返回 owner 属性。
func AttrOwner(owner any) slog.Attr {
	return slog.String(logKeyOwner, ownerString(owner))
}

// AttrRequestID 返回请求 ID 属性。
func AttrRequestID(id string) slog.Attr {
	return slog.String(logKeyRequestID, id)
}

// AttrState 返回状态属性。
func AttrState(state LockState) slog.Attr {
	return slog.String(logKeyState, state.String())
}

// AttrDeadline 返回截止时刻属性（单调时刻）。
func AttrDeadline(deadline time.Duration) slog.Attr {
	return slog.String(logKeyDeadline, deadline.String())
}
