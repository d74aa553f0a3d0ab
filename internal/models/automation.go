package models

import "time"

// TriggerEventType 由天数差映射出的符号化事件
type TriggerEventType string

const (
	EventPolicyExpiringSoon  TriggerEventType = "POLICY_EXPIRING_SOON"
	EventPaymentDueIn30Days  TriggerEventType = "PAYMENT_DUE_IN_30_DAYS"
	EventPaymentDueIn7Days   TriggerEventType = "PAYMENT_DUE_IN_7_DAYS"
	EventPaymentDueToday     TriggerEventType = "PAYMENT_DUE_TODAY"
	EventPaymentOverdue3Days TriggerEventType = "PAYMENT_OVERDUE_3_DAYS"
)

// ActionType 规则触发后执行的动作类型
type ActionType string

const (
	ActionCreateTask ActionType = "CREATE_TASK"
	ActionSendEmail  ActionType = "SEND_EMAIL"
	ActionSendSMS    ActionType = "SEND_SMS"
)

// Condition 操作符
const (
	OpEquals      = "EQUALS"
	OpGreaterThan = "GREATER_THAN"
	OpLessThan    = "LESS_THAN"
)

// TriggerParameters 触发参数（按事件类型取其一）
type TriggerParameters struct {
	DaysBefore *int `json:"daysBefore,omitempty"`
	DaysAfter  *int `json:"daysAfter,omitempty"`
}

// Trigger 规则触发器定义
type Trigger struct {
	EventType  TriggerEventType  `json:"eventType"`
	Parameters TriggerParameters `json:"parameters"`
}

// Condition 对上下文的单个断言，全部满足才触发（AND 语义）
type Condition struct {
	Field    string      `json:"field"`    // 点分路径，例如 policy.premium
	Operator string      `json:"operator"` // EQUALS, GREATER_THAN, LESS_THAN
	Value    interface{} `json:"value"`
}

// ActionParameters 动作参数
type ActionParameters struct {
	TemplateID string `json:"templateId,omitempty"`
}

// Action 规则触发后的单个副作用
type Action struct {
	ActionType ActionType       `json:"actionType"`
	Template   string           `json:"template,omitempty"` // CREATE_TASK 使用的内联模板
	Parameters ActionParameters `json:"parameters,omitempty"`
}

// RuleDefinition 一条自动化规则，加载后在单次运行内只读
type RuleDefinition struct {
	ID         string      `json:"id"`
	Trigger    Trigger     `json:"trigger"`
	Conditions []Condition `json:"conditions"`
	Actions    []Action    `json:"actions"`
	IsEnabled  bool        `json:"isEnabled"`
}

// ReminderLogEntry 去重日志条目，LogKey 形如 "<ruleId>_<policyId>"。
// 只追加，运行内不得修改或删除；log_key 上的唯一索引保证并发运行时
// 的 check-and-append 在数据库层面是一次条件插入。
type ReminderLogEntry struct {
	ID       uint      `gorm:"primaryKey" json:"-"`
	LogKey   string    `gorm:"uniqueIndex;not null" json:"logKey"`
	RuleID   string    `gorm:"index" json:"ruleId"`
	PolicyID string    `gorm:"index" json:"policyId"`
	SentAt   time.Time `json:"sentAt"`
}

// AutomationRun 每次引擎运行的审计记录
type AutomationRun struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Domain          string    `gorm:"index" json:"domain"` // renewal, payment
	Status          string    `gorm:"index" json:"status"` // success, failed
	TasksCreated    int       `json:"tasks_created"`
	EntriesAppended int       `json:"entries_appended"`
	Message         string    `gorm:"type:text" json:"message"`
	CreatedAt       time.Time `json:"created_at"`
}
