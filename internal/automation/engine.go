package automation

import (
	"context"
	"time"

	"assurify/internal/metrics"
	"assurify/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Clock 注入当前时间，测试时可固定"今天"
type Clock func() time.Time

// Engine 续保/缴费提醒的求值引擎。单次运行是同步计算：
// 规则与模板资产在迭代前一次性加载，之后只有算术和字符串工作。
type Engine struct {
	renewalRules   RuleProvider
	paymentRules   RuleProvider
	emailTemplates EmailTemplateProvider
	smsTemplates   SMSTemplateProvider
	dispatcher     Dispatcher
	logger         *logrus.Logger
	now            Clock
}

// EngineConfig 引擎依赖项
type EngineConfig struct {
	RenewalRules   RuleProvider
	PaymentRules   RuleProvider
	EmailTemplates EmailTemplateProvider
	SMSTemplates   SMSTemplateProvider
	Dispatcher     Dispatcher
	Logger         *logrus.Logger
	Now            Clock
}

func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Dispatcher == nil {
		cfg.Dispatcher = NewLogDispatcher(cfg.Logger)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Engine{
		renewalRules:   cfg.RenewalRules,
		paymentRules:   cfg.PaymentRules,
		emailTemplates: cfg.EmailTemplates,
		smsTemplates:   cfg.SMSTemplates,
		dispatcher:     cfg.Dispatcher,
		logger:         cfg.Logger,
		now:            cfg.Now,
	}
}

// RunInput 一次编排运行的全部输入。Log 由调用方提供，
// 运行结束后调用方负责持久化 RunResult.Log，否则下次运行可能重复提醒。
type RunInput struct {
	Customers []models.Customer
	Agents    []models.User
	Log       ReminderLog
	Language  string
}

// RunResult 一次运行的产出。Log 是入参账本加上 NewEntries 的新副本，
// 入参账本不被修改，失败的运行可以整体丢弃重试。
type RunResult struct {
	Tasks      []models.AutomatedTask
	NewEntries []models.ReminderLogEntry
	Log        ReminderLog
}

// domainSpec 两个领域（续保/缴费）在共享循环上的差异点
type domainSpec struct {
	name         string
	taskType     string
	skip         func(p models.Policy) bool
	relevantDate func(p models.Policy) *time.Time
	match        func(r models.RuleDefinition, days int) bool
}

// runState 单次运行内的共享状态
type runState struct {
	spec     domainSpec
	agents   map[string]models.User
	language string
	emailDoc *EmailTemplateDoc
	smsDoc   *SMSTemplateDoc
	res      *RunResult
}

// run 是两个领域共用的编排循环。资产加载失败按领域级失败处理：
// 返回空任务和未改动的账本，宁可跳过一个提醒周期也不冒重复或
// 错漏通知的风险。单条规则/保单的问题只影响自身。
func (e *Engine) run(ctx context.Context, spec domainSpec, provider RuleProvider, in RunInput) (RunResult, error) {
	rules, err := provider.Rules(ctx)
	if err != nil {
		e.logger.Errorf("automation: %s rules unavailable, run skipped: %v", spec.name, err)
		metrics.IncRunFailure(spec.name)
		return RunResult{Log: in.Log}, err
	}

	emailDoc, smsDoc, err := e.loadTemplates(ctx, rules)
	if err != nil {
		e.logger.Errorf("automation: %s templates unavailable, run skipped: %v", spec.name, err)
		metrics.IncRunFailure(spec.name)
		return RunResult{Log: in.Log}, err
	}

	res := RunResult{Log: in.Log.clone()}
	st := &runState{
		spec:     spec,
		agents:   indexAgents(in.Agents),
		language: in.Language,
		emailDoc: emailDoc,
		smsDoc:   smsDoc,
		res:      &res,
	}

	today := e.now()
	for _, customer := range in.Customers {
		for _, policy := range customer.Policies {
			if spec.skip(policy) {
				continue
			}
			date := spec.relevantDate(policy)
			if date == nil {
				continue
			}
			days := DayDifference(today, *date)
			for _, rule := range rules {
				if !rule.IsEnabled || !spec.match(rule, days) {
					continue
				}
				e.fireRule(ctx, st, rule, customer, policy)
			}
		}
	}

	metrics.IncRun(spec.name)
	return res, nil
}

// loadTemplates 仅当有规则用到邮件/短信动作时才拉取对应模板文档
func (e *Engine) loadTemplates(ctx context.Context, rules []models.RuleDefinition) (*EmailTemplateDoc, *SMSTemplateDoc, error) {
	needEmail, needSMS := false, false
	for _, r := range rules {
		for _, a := range r.Actions {
			switch a.ActionType {
			case models.ActionSendEmail:
				needEmail = true
			case models.ActionSendSMS:
				needSMS = true
			}
		}
	}

	var emailDoc *EmailTemplateDoc
	var smsDoc *SMSTemplateDoc
	var err error

	if needEmail && e.emailTemplates != nil {
		if emailDoc, err = e.emailTemplates.Templates(ctx); err != nil {
			return nil, nil, err
		}
	}
	if needSMS && e.smsTemplates != nil {
		if smsDoc, err = e.smsTemplates.Templates(ctx); err != nil {
			return nil, nil, err
		}
	}
	return emailDoc, smsDoc, nil
}

// fireRule 对单个 (rule, policy) 执行代理人解析、去重、条件求值与动作，
// 触发成功后按规则（而非按动作）追加一条去重日志。
func (e *Engine) fireRule(ctx context.Context, st *runState, rule models.RuleDefinition, customer models.Customer, policy models.Policy) {
	// 没有代理人就无法归属和投递，静默跳过且不写日志，
	// 补上归属后下次运行仍可触发
	agent, ok := st.agents[customer.AssignedAgentID]
	if !ok {
		e.logger.Debugf("automation: rule %s skipped, agent %q not found for customer %s",
			rule.ID, customer.AssignedAgentID, customer.ID)
		return
	}

	if st.res.Log.Has(rule.ID, policy.ID) {
		metrics.IncDedupSkip(st.spec.name)
		return
	}

	cctx := BuildContext(customer, policy, agent, e.now())
	if !EvaluateConditions(rule.Conditions, cctx) {
		return
	}

	language := customer.Language
	if language == "" {
		language = st.language
	}

	for _, action := range rule.Actions {
		e.executeAction(ctx, st, action, rule, customer, policy, agent, cctx, language)
	}

	// 日志按规则记一条：部分动作被跳过的规则也视为已发送
	entry := models.ReminderLogEntry{
		LogKey:   LogKey(rule.ID, policy.ID),
		RuleID:   rule.ID,
		PolicyID: policy.ID,
		SentAt:   e.now(),
	}
	st.res.Log.append(entry)
	st.res.NewEntries = append(st.res.NewEntries, entry)
}

func (e *Engine) executeAction(ctx context.Context, st *runState, action models.Action, rule models.RuleDefinition,
	customer models.Customer, policy models.Policy, agent models.User, cctx Context, language string) {
	switch action.ActionType {
	case models.ActionCreateTask:
		task := models.AutomatedTask{
			ID:         uuid.NewString(),
			Type:       st.spec.taskType,
			PolicyID:   policy.ID,
			CustomerID: customer.ID,
			AgentID:    agent.ID,
			Message:    RenderTemplate(action.Template, cctx),
			Status:     "open",
			CreatedAt:  e.now(),
		}
		st.res.Tasks = append(st.res.Tasks, task)
		metrics.IncTaskCreated(st.spec.name)

	case models.ActionSendEmail:
		id := action.Parameters.TemplateID
		if id == "" || st.emailDoc == nil {
			e.logger.Warnf("automation: rule %s email action without template, skipped", rule.ID)
			return
		}
		variant, ok := st.emailDoc.Find(id, language)
		if !ok {
			e.logger.Warnf("automation: email template %q not found, action skipped", id)
			return
		}
		subject := RenderTemplate(variant.Subject, cctx)
		body := RenderTemplate(variant.Body, cctx)
		if err := e.dispatcher.SendEmail(ctx, customer.Email, subject, body); err != nil {
			metrics.IncDispatchFailure("email")
			e.logger.Warnf("automation: rule %s email dispatch failed: %v", rule.ID, err)
		}

	case models.ActionSendSMS:
		id := action.Parameters.TemplateID
		if id == "" || st.smsDoc == nil {
			e.logger.Warnf("automation: rule %s sms action without template, skipped", rule.ID)
			return
		}
		body, ok := st.smsDoc.Find(id, language)
		if !ok {
			e.logger.Warnf("automation: sms template %q not found, action skipped", id)
			return
		}
		if err := e.dispatcher.SendSMS(ctx, customer.Phone, RenderTemplate(body, cctx)); err != nil {
			metrics.IncDispatchFailure("sms")
			e.logger.Warnf("automation: rule %s sms dispatch failed: %v", rule.ID, err)
		}

	default:
		e.logger.Warnf("automation: unsupported action type %q on rule %s", action.ActionType, rule.ID)
	}
}

func indexAgents(agents []models.User) map[string]models.User {
	out := make(map[string]models.User, len(agents))
	for _, a := range agents {
		out[a.ID] = a
	}
	return out
}

// RenewalRules 返回当前生效的续保规则
func (e *Engine) RenewalRules(ctx context.Context) ([]models.RuleDefinition, error) {
	return e.renewalRules.Rules(ctx)
}

// PaymentRules 返回当前生效的缴费规则
func (e *Engine) PaymentRules(ctx context.Context) ([]models.RuleDefinition, error) {
	return e.paymentRules.Rules(ctx)
}
