package services

import (
	"context"
	"time"

	"assurify/internal/automation"
	"assurify/internal/models"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReminderService 是提醒引擎的持久化外壳：从数据库装载客户、
// 代理人和去重日志，运行纯求值核心，再把新任务与新日志条目写回。
// 日志条目借助 log_key 唯一索引做条件插入，并发运行也不会重复。
type ReminderService struct {
	db     *gorm.DB
	logger *logrus.Logger
	engine *automation.Engine
	hub    *TaskHub
	tracer trace.Tracer
}

// NewReminderService 创建提醒服务，hub 可为 nil
func NewReminderService(db *gorm.DB, logger *logrus.Logger, engine *automation.Engine, hub *TaskHub) *ReminderService {
	if logger == nil {
		logger = logrus.New()
	}
	return &ReminderService{
		db:     db,
		logger: logger,
		engine: engine,
		hub:    hub,
		tracer: otel.Tracer("assurify.reminder"),
	}
}

// RunSummary 单个领域一次运行的结果摘要
type RunSummary struct {
	Domain          string `json:"domain"`
	Status          string `json:"status"` // success, failed
	TasksCreated    int    `json:"tasks_created"`
	EntriesAppended int    `json:"entries_appended"`
	Message         string `json:"message,omitempty"`
}

// RunChecks 依次执行续保和缴费检查并持久化产出。
// 单个领域失败不阻断另一个领域。
func (s *ReminderService) RunChecks(ctx context.Context, language string) ([]RunSummary, error) {
	ctx, span := s.tracer.Start(ctx, "reminder.run_checks")
	defer span.End()

	in, err := s.loadInput(ctx, language)
	if err != nil {
		return nil, err
	}

	summaries := make([]RunSummary, 0, 2)

	renewalRes, renewalErr := s.engine.RunRenewalCheck(ctx, in)
	summaries = append(summaries, s.persistRun(ctx, "renewal", renewalRes, renewalErr))

	// 缴费检查在续保结果的账本上继续，同一次调用内不会互相覆盖
	in.Log = renewalRes.Log
	paymentRes, paymentErr := s.engine.RunPaymentCheck(ctx, in)
	summaries = append(summaries, s.persistRun(ctx, "payment", paymentRes, paymentErr))

	span.SetAttributes(
		attribute.Int("reminder.tasks", len(renewalRes.Tasks)+len(paymentRes.Tasks)),
		attribute.Int("reminder.entries", len(renewalRes.NewEntries)+len(paymentRes.NewEntries)),
	)

	return summaries, nil
}

// loadInput 组装一次运行的全部输入
func (s *ReminderService) loadInput(ctx context.Context, language string) (automation.RunInput, error) {
	var in automation.RunInput
	in.Language = language

	if err := s.db.WithContext(ctx).Preload("Policies").Find(&in.Customers).Error; err != nil {
		return in, err
	}
	if err := s.db.WithContext(ctx).Where("role = ? AND status = ?", "agent", "active").Find(&in.Agents).Error; err != nil {
		return in, err
	}

	var entries []models.ReminderLogEntry
	if err := s.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return in, err
	}
	in.Log = automation.NewReminderLog(entries)

	return in, nil
}

// persistRun 写回单个领域的任务与日志条目并记录审计行
func (s *ReminderService) persistRun(ctx context.Context, domain string, res automation.RunResult, runErr error) RunSummary {
	summary := RunSummary{Domain: domain, Status: "success"}

	if runErr != nil {
		summary.Status = "failed"
		summary.Message = runErr.Error()
		s.recordRun(ctx, summary)
		return summary
	}

	for i := range res.NewEntries {
		// log_key 冲突时静默忽略：并发运行下先写者胜出
		if err := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "log_key"}},
				DoNothing: true,
			}).
			Create(&res.NewEntries[i]).Error; err != nil {
			s.logger.Warnf("reminder: persist log entry %s failed: %v", res.NewEntries[i].LogKey, err)
			continue
		}
		summary.EntriesAppended++
	}

	for _, task := range res.Tasks {
		t := task
		if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
			s.logger.Warnf("reminder: persist task %s failed: %v", t.ID, err)
			continue
		}
		summary.TasksCreated++
		if s.hub != nil {
			s.hub.BroadcastTask(t)
		}
	}

	s.recordRun(ctx, summary)
	return summary
}

func (s *ReminderService) recordRun(ctx context.Context, summary RunSummary) {
	run := &models.AutomationRun{
		Domain:          summary.Domain,
		Status:          summary.Status,
		TasksCreated:    summary.TasksCreated,
		EntriesAppended: summary.EntriesAppended,
		Message:         summary.Message,
		CreatedAt:       time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		s.logger.Warnf("reminder: record run failed: %v", err)
	}
}

// ListTasks 返回自动化产生的任务，按创建时间降序
func (s *ReminderService) ListTasks(ctx context.Context, limit int) ([]models.AutomatedTask, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var tasks []models.AutomatedTask
	if err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListLogEntries 返回去重日志条目，按发送时间降序
func (s *ReminderService) ListLogEntries(ctx context.Context, limit int) ([]models.ReminderLogEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.ReminderLogEntry
	if err := s.db.WithContext(ctx).Order("sent_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ListRuns 返回引擎运行审计记录
func (s *ReminderService) ListRuns(ctx context.Context, limit int) ([]models.AutomationRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []models.AutomationRun
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}

// RenewalRules 暴露当前生效的续保规则
func (s *ReminderService) RenewalRules(ctx context.Context) ([]models.RuleDefinition, error) {
	return s.engine.RenewalRules(ctx)
}

// PaymentRules 暴露当前生效的缴费规则
func (s *ReminderService) PaymentRules(ctx context.Context) ([]models.RuleDefinition, error) {
	return s.engine.PaymentRules(ctx)
}
