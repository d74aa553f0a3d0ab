package automation

import (
	"assurify/internal/models"
)

// LogKey 构造 (rule, policy) 对的去重键
func LogKey(ruleID, policyID string) string {
	return ruleID + "_" + policyID
}

// ReminderLog 已触发 (rule, policy) 对的只追加账本。
// 由调用方在每次运行前提供、运行后取回扩展过的副本；
// 组件自身不跨运行持有状态，持久化是调用方的责任。
type ReminderLog struct {
	entries []models.ReminderLogEntry
	keys    map[string]struct{}
}

// NewReminderLog 从已有条目构建账本
func NewReminderLog(entries []models.ReminderLogEntry) ReminderLog {
	log := ReminderLog{
		entries: make([]models.ReminderLogEntry, len(entries)),
		keys:    make(map[string]struct{}, len(entries)),
	}
	copy(log.entries, entries)
	for _, e := range entries {
		log.keys[e.LogKey] = struct{}{}
	}
	return log
}

// Has 报告该 (rule, policy) 对是否已触发过
func (l ReminderLog) Has(ruleID, policyID string) bool {
	_, ok := l.keys[LogKey(ruleID, policyID)]
	return ok
}

// Entries 返回条目副本
func (l ReminderLog) Entries() []models.ReminderLogEntry {
	out := make([]models.ReminderLogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len 返回条目数
func (l ReminderLog) Len() int {
	return len(l.entries)
}

// clone 复制账本，运行只在自己的副本上追加，入参账本不被修改
func (l ReminderLog) clone() ReminderLog {
	return NewReminderLog(l.entries)
}

func (l *ReminderLog) append(entry models.ReminderLogEntry) {
	l.entries = append(l.entries, entry)
	l.keys[entry.LogKey] = struct{}{}
}
