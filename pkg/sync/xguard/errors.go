package xguard

import "errors"

// ErrNotCommitted 表示 UseAllRetry 用尽重试次数仍未获得全部锁。
var ErrNotCommitted = errors.New("xguard: transaction not committed")
