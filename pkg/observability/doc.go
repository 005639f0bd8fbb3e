// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，支持 lumberjack 文件轮转
//
// 锁的指标见 xlock.Metrics（OpenTelemetry），持有关系诊断见 xlockdiag。
package observability
