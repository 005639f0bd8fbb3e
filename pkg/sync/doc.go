// Package sync 提供进程内同步原语的子包。
//
// 子包列表：
//   - xlock: 可重入 Mutex 与区分意图的 IntentLock
//   - xguard: 将值与锁绑定的 Guard[T]，以及多资源全有或全无事务 UseAll
//   - xlockdiag: 可选的持有关系诊断登记表
package sync
