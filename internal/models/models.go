package models

import (
	"time"

	"gorm.io/gorm"
)

// 用户模型（代理人/管理员）
type User struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Phone     string         `json:"phone"`
	Role      string         `gorm:"default:'agent'" json:"role"`    // agent, admin
	Status    string         `gorm:"default:'active'" json:"status"` // active, inactive
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// 客户模型
type Customer struct {
	ID              string         `gorm:"primaryKey" json:"id"`
	FirstName       string         `gorm:"not null" json:"first_name"`
	LastName        string         `json:"last_name"`
	Email           string         `gorm:"index" json:"email"`
	Phone           string         `json:"phone"`
	Language        string         `gorm:"default:'en'" json:"language"` // 提醒消息使用的语言
	AssignedAgentID string         `gorm:"index" json:"assigned_agent_id"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`

	// 关联关系
	Policies []Policy `gorm:"foreignKey:CustomerID" json:"policies,omitempty"`
}

// 保单模型
type Policy struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	CustomerID     string         `gorm:"index" json:"customer_id"`
	PolicyNumber   string         `gorm:"unique;not null" json:"policy_number"`
	Type           string         `json:"type"` // auto, home, life, health
	Premium        float64        `json:"premium"`
	IsActive       bool           `gorm:"default:true" json:"is_active"`
	StartDate      *time.Time     `json:"start_date"`
	EndDate        *time.Time     `json:"end_date"`
	PaymentDueDate *time.Time     `json:"payment_due_date"`
	PaymentStatus  string         `gorm:"default:'pending'" json:"payment_status"` // pending, paid, overdue
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// 自动化产生的跟进任务
type AutomatedTask struct {
	ID         string    `gorm:"primaryKey" json:"id"`
	Type       string    `gorm:"index" json:"type"` // renewal_reminder, payment_reminder
	PolicyID   string    `gorm:"index" json:"policy_id"`
	CustomerID string    `gorm:"index" json:"customer_id"`
	AgentID    string    `gorm:"index" json:"agent_id"`
	Message    string    `gorm:"type:text" json:"message"`
	Status     string    `gorm:"default:'open'" json:"status"` // open, done, dismissed
	CreatedAt  time.Time `json:"created_at"`
}
