// Package xguard 把一个受保护的值与一把锁绑定，提供作用域式访问。
//
// 调用方声明意图和超时，Guard 获取锁、以指针把值交给回调、在任何退出路径上释放锁，
// 包括回调 panic（先释放，再继续 panic）。
//
// # 基本用法
//
//	g, _ := xguard.New(map[string]int{})
//	_ = g.Use(ctx, func(m *map[string]int) error { (*m)["a"]++; return nil })
//	n, _ := xguard.Get(ctx, g, xlock.ReadOnly, func(m *map[string]int) (int, error) {
//	    return (*m)["a"], nil
//	})
//
// 回调不得在返回后保留指针：锁只在回调期间持有。
// ReadOnly/UpgradableRead 回调不得修改值，这是约定而非强制检查，违反会导致数据竞争。
//
// # 锁的选择
//
//	New(v)                    独占 xlock.Mutex，所有意图都按独占处理
//	New(v, WithIntentLock())  xlock.IntentLock，读者可并发
//	NewShared(v, lock)        绑定外部锁；共享同一把锁的 Guard 作为一组互斥
//
// NewShared 让两个不同类型的值受同一把锁保护。
//
// # 多资源事务
//
// UseAll 先获取主资源，再按切片顺序获取各从资源，全部成功才执行回调；
// 任一失败则按获取顺序释放已获得的从资源，再释放主资源，返回 committed=false、err=nil。
//
// 事务只保证单次调用的原子性，不提供跨事务的加锁顺序：两个事务以不同顺序请求重叠的资源
// 可能互相等待。所有调用点必须使用一致的资源顺序，或使用有限超时。
package xguard
