// Package xlockdiag 提供进程内锁持有关系的诊断登记表。
//
// Registry 记录"哪个持有者正持有哪把锁"，用于死锁排查和运行时巡检。
// 它只是调试辅助：登记与否不影响任何加锁结果，也不能用于正确性判断。
//
// # 生命周期
//
// Registry 由进程启动代码创建，并通过 xlock.WithRegistry 注入到锁的构造函数中，
// 不存在包级全局实例。新建的 Registry 处于关闭状态，Register/Unregister 均为空操作；
// 调用 Enable 后开始记录，且无法再关闭。
//
// nil *Registry 是合法值，所有方法均为空操作，锁在未注入时即使用 nil。
//
// # 登记规则
//
// 锁在净获取（重入深度 0→1）时调用 Register，在净释放（1→0）时调用 Unregister。
// 键为 (Kind, Owner, LockID)：同一持有者对同一把锁以不同意图持有时各占一条。
//
// # 查看
//
//   - Snapshot：按锁、持有者排序的快照
//   - OwnersOf：某把锁的当前持有者
//   - WriteTo：文本表格，供命令行工具输出
//   - Report：每条记录输出一行结构化日志
//
// 设计决策: 分片按 LockID 的 xxhash 选择，同一把锁的所有记录落在同一分片，
// OwnersOf 只需锁定一个分片。
package xlockdiag
