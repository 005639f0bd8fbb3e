// Package xlog 基于 log/slog 的结构化日志库，供锁引擎及其工具使用。
//
// # 定位
//
// 锁引擎本身默认不输出任何日志：只有通过 xlock.WithLogger / xlockdiag.WithLogger
// 显式注入 Logger 时，才会在使用错误（释放未持有的锁等）或诊断导出时写日志。
// 因此 xlog 只保留锁场景需要的最小能力：
//
//   - Builder 模式配置（输出目标、级别、格式、按大小轮转）
//   - 动态级别调整
//   - 带堆栈的错误日志（Stack），用于使用错误的现场记录
//   - 锁领域的便捷属性（LockName、OwnerAttr、IntentionAttr 等）
//
// # 创建 Logger
//
// Builder 采用 first-error-wins 语义：遇到第一个配置错误后，后续 Set 操作被跳过，
// Build 返回该错误。
//
//	logger, cleanup, err := xlog.New().
//	    SetLevel(xlog.LevelDebug).
//	    SetFormat("json").
//	    SetRotation("/var/log/app/locks.log", xlog.WithMaxSize(100)).
//	    Build()
//	if err != nil {
//	    return err
//	}
//	defer cleanup()
//
// # 全局 Logger
//
// [Default] 惰性创建 stderr/Info/text 的 Logger，适用于 cmd 工具等简单场景；
// 库代码一律通过依赖注入持有 Logger。[Discard] 返回丢弃所有输出的 Logger。
package xlog
