// Package xlock 提供进程内可重入、可超时、区分意图的锁。
//
// # 两种锁
//
//	特性          Mutex                       IntentLock
//	──────────────────────────────────────────────────────────────
//	意图          全部按 Exclusive 处理         Exclusive/ReadOnly/UpgradableRead
//	重入          ✓ 深度计数                   ✓ 每个 (持有者, 意图) 一个计数
//	底层          semaphore.Weighted(1)        持有记录表 + 表锁 + 变更信号
//	等待          信号量队列                   广播信号 + 等待切片兜底
//
// 两者都实现 Lockable，多资源事务（xguard.UseAll）可以混用。
//
// # 持有者
//
// Go 没有线程标识。锁的持有者（Owner）默认是当前 goroutine；
// 需要跨 goroutine 持有时，用 NewOwner 创建令牌并通过 WithOwner 放入 ctx。
// 所有方法的 ctx 都不得为 nil，否则 panic。
//
// # 超时约定
//
//	timeout < 0 (Infinite)  无限等待
//	timeout == 0 (NoWait)   只尝试一次，不等待
//	timeout > 0             最多等待 timeout
//
// Try* 返回 bool，超时或 ctx 取消时返回 false，属于正常结果而非错误。
// Lock/Acquire 没有失败返回，ctx 取消不会中断等待。
//
// # 兼容策略
//
// 持有者 t 请求意图 i，按优先级：
//  1. t 已持有 i：直接重入
//  2. ReadOnly：t 持有 Exclusive，或没有其他持有者持有 Exclusive
//  3. UpgradableRead：其他持有者既无 Exclusive 也无 UpgradableRead
//  4. Exclusive：没有其他持有者的任何记录
//
// 同一时刻最多一个 UpgradableRead 持有者，两个可升级读者互相等待升级的死锁因此不会发生。
// 不提供原地升级操作。
//
// # 使用错误
//
// 释放未持有的锁、过度释放、非持有者释放都是调用方缺陷，以 *UsageError panic，
// 可用 errors.Is 匹配 ErrNotHeld/ErrNotOwner。注入了日志器时，panic 前先输出一条 Stack 日志。
// 除此之外锁不输出任何日志。
//
// # 诊断与指标
//
// WithRegistry 注入 xlockdiag.Registry，净获取时登记、净释放时注销。
// WithMetrics 注入 OpenTelemetry 指标。两者都不影响加锁结果。
//
// 设计决策: 诊断登记表由启动代码通过 Config.Bootstrap 创建并注入，不设包级全局实例，
// 测试之间互不影响。
package xlock
