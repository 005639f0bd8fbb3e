package xlock

import (
	"cmp"
	"slices"
)

// HeldRecord 是 IntentLock 上一个 (持有者, 意图) 的持有记录。
type HeldRecord struct {
	Owner     Owner
	Intention Intention
	// Count 是重入次数，始终 >= 1；归零时记录被删除。
	Count int
}

type recordKey struct {
	owner  Owner
	intent Intention
}

// lockTable 记录一把 IntentLock 的全部持有记录。
// 所有方法都要求调用方已持有表锁。
type lockTable struct {
	records map[recordKey]int
}

func newLockTable() lockTable {
	return lockTable{records: make(map[recordKey]int)}
}

func (t *lockTable) holds(o Owner, i Intention) bool {
	return t.records[recordKey{o, i}] > 0
}

// grantable 按优先级评估兼容策略：
//  1. o 已持有 i：重入，直接允许
//  2. ReadOnly：o 持有 Exclusive，或其他持有者都没有 Exclusive
//  3. UpgradableRead：其他持有者没有 Exclusive 也没有 UpgradableRead
//  4. Exclusive：其他持有者没有任何记录
//
// 2-4 均等价于"o 之外的每条记录都与 i 兼容"，另加规则 2 的自持独占例外。
func (t *lockTable) grantable(o Owner, i Intention) bool {
	if t.holds(o, i) {
		return true
	}
	if i == ReadOnly && t.holds(o, Exclusive) {
		return true
	}
	for k := range t.records {
		if k.owner != o && !Compatible(k.intent, i) {
			return false
		}
	}
	return true
}

// tryGrant 评估并在允许时登记，first 表示新建了记录。
func (t *lockTable) tryGrant(o Owner, i Intention) (granted, first bool) {
	if !t.grantable(o, i) {
		return false, false
	}
	k := recordKey{o, i}
	n := t.records[k]
	t.records[k] = n + 1
	return true, n == 0
}

// release 递减记录，last 表示记录被删除。
func (t *lockTable) release(o Owner, i Intention) (found, last bool) {
	k := recordKey{o, i}
	n, ok := t.records[k]
	if !ok {
		return false, false
	}
	if n <= 1 {
		delete(t.records, k)
		return true, true
	}
	t.records[k] = n - 1
	return true, false
}

func (t *lockTable) snapshot() []HeldRecord {
	out := make([]HeldRecord, 0, len(t.records))
	for k, n := range t.records {
		out = append(out, HeldRecord{Owner: k.owner, Intention: k.intent, Count: n})
	}
	slices.SortFunc(out, func(a, b HeldRecord) int {
		return cmp.Or(cmp.Compare(a.Owner, b.Owner), cmp.Compare(a.Intention, b.Intention))
	})
	return out
}
