package xlockdiag

import "errors"

// ErrInvalidShardCount 表示分片数量不是 2 的幂或超出范围。
var ErrInvalidShardCount = errors.New("xlockdiag: invalid shard count")
