// Package xconf 基于 koanf 的最小化配置加载器。
//
// 锁引擎的配置（诊断开关、等待切片、诊断表分片数、日志级别）在进程启动时加载，
// 见 xlock.LoadConfig；诊断开关与日志级别可经 xlock.Runtime.Watch 热更新。xconf 只负责：
//
//   - 从文件（.yaml/.yml/.json，按扩展名识别）或字节数据加载
//   - 按路径反序列化到结构体（koanf tag，支持 "50ms" 之类的 time.Duration 字符串
//     以及实现了 encoding.TextUnmarshaler 的字段）
//   - 显式 Reload（文件来源），或用 Watch 监视文件变更后自动 Reload（fsnotify，带防抖）
//
// 不做默认值注入和必选字段校验，这些由调用方的 Validate 完成。
//
// 并发安全：Reload 解析成功后原子替换内部 koanf 实例；Client 返回的指针在
// Reload 之后仍可使用，但指向旧快照。
package xconf
