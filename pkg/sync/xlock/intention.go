package xlock

import (
	"fmt"
	"strings"
)

// Intention 是加锁前声明的访问意图。
type Intention uint8

const (
	// Exclusive 独占访问，可修改受保护的值。
	Exclusive Intention = iota
	// ReadOnly 共享只读访问。
	ReadOnly
	// UpgradableRead 可升级读：与 ReadOnly 共存，但同一时刻最多一个持有者。
	UpgradableRead

	intentionCount
)

var intentionNames = [intentionCount]string{
	Exclusive:      "Exclusive",
	ReadOnly:       "ReadOnly",
	UpgradableRead: "UpgradableRead",
}

// String 返回意图名称，非法值返回 "Intention(N)"。
func (i Intention) String() string {
	if i.IsValid() {
		return intentionNames[i]
	}
	return fmt.Sprintf("Intention(%d)", uint8(i))
}

// IsValid 报告 i 是否为已定义的意图。
func (i Intention) IsValid() bool {
	return i < intentionCount
}

// ParseIntention 解析意图名称，大小写不敏感，接受 "exclusive"、"readonly"/"read"、
// "upgradableread"/"upgradable"。
func ParseIntention(s string) (Intention, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exclusive", "write":
		return Exclusive, nil
	case "readonly", "read":
		return ReadOnly, nil
	case "upgradableread", "upgradable":
		return UpgradableRead, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidIntention, s)
	}
}

// MarshalText 实现 encoding.TextMarshaler。
func (i Intention) MarshalText() ([]byte, error) {
	if !i.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidIntention, uint8(i))
	}
	return []byte(i.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler，配置文件可直接写意图名称。
func (i *Intention) UnmarshalText(data []byte) error {
	parsed, err := ParseIntention(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// Compatible 报告其他持有者以 held 持有时，是否允许以 requested 获取。
//
//	held \ requested   Exclusive  ReadOnly  UpgradableRead
//	Exclusive          ✗          ✗         ✗
//	ReadOnly           ✗          ✓         ✓
//	UpgradableRead     ✗          ✓         ✗
//
// 同一持有者自身的记录不参与该矩阵，见 IntentLock。
func Compatible(held, requested Intention) bool {
	if held == Exclusive || requested == Exclusive {
		return false
	}
	return held == ReadOnly || requested == ReadOnly
}
