package automation

import (
	"context"
	"strings"
	"testing"

	"assurify/internal/models"
)

func paymentRules() []models.RuleDefinition {
	return []models.RuleDefinition{
		{
			ID:      "PR-030",
			Trigger: models.Trigger{EventType: models.EventPaymentDueIn30Days},
			Actions: []models.Action{
				{ActionType: models.ActionCreateTask, Template: "Payment for {policy.policyNumber} due in 30 days."},
			},
			IsEnabled: true,
		},
		{
			ID:      "PR-007",
			Trigger: models.Trigger{EventType: models.EventPaymentDueIn7Days},
			Actions: []models.Action{
				{ActionType: models.ActionSendEmail, Parameters: models.ActionParameters{TemplateID: "payment-due-7"}},
			},
			IsEnabled: true,
		},
		{
			ID:      "PR-000",
			Trigger: models.Trigger{EventType: models.EventPaymentDueToday},
			Actions: []models.Action{
				{ActionType: models.ActionSendSMS, Parameters: models.ActionParameters{TemplateID: "payment-due-today"}},
			},
			IsEnabled: true,
		},
		{
			ID:      "PR-103",
			Trigger: models.Trigger{EventType: models.EventPaymentOverdue3Days},
			Actions: []models.Action{
				{ActionType: models.ActionCreateTask, Template: "Payment for {policy.policyNumber} is 3 days overdue."},
			},
			IsEnabled: true,
		},
	}
}

func paymentTemplateDocs() (*EmailTemplateDoc, *SMSTemplateDoc) {
	emailDoc := &EmailTemplateDoc{Templates: []EmailTemplate{
		{
			ID: "payment-due-7",
			Variants: map[string]EmailVariant{
				"en": {
					Subject: "Payment due for {policy.policyNumber}",
					Body:    "Hi {customer.firstName}, your payment of {policy.premiumFormatted} is due on {policy.paymentDueDate}. Contact {agent.name} at {agent.phone}.",
				},
				"es": {
					Subject: "Pago pendiente de {policy.policyNumber}",
					Body:    "Hola {customer.firstName}, su pago de {policy.premiumFormatted} vence el {policy.paymentDueDate}.",
				},
			},
		},
	}}
	smsDoc := &SMSTemplateDoc{Templates: []SMSTemplate{
		{
			ID: "payment-due-today",
			Variants: map[string]string{
				"en": "{customer.firstName}, payment for {policy.policyNumber} is due today.",
			},
		},
	}}
	return emailDoc, smsDoc
}

func newPaymentEngine(dispatcher Dispatcher) *Engine {
	emailDoc, smsDoc := paymentTemplateDocs()
	return NewEngine(EngineConfig{
		RenewalRules:   NewStaticRuleProvider(nil),
		PaymentRules:   NewStaticRuleProvider(paymentRules()),
		EmailTemplates: NewStaticEmailTemplates(*emailDoc),
		SMSTemplates:   NewStaticSMSTemplates(*smsDoc),
		Dispatcher:     dispatcher,
		Logger:         quietLogger(),
		Now:            fixedClock,
	})
}

func TestClassifyPaymentTrigger(t *testing.T) {
	tests := []struct {
		days    int
		want    models.TriggerEventType
		matched bool
	}{
		{30, models.EventPaymentDueIn30Days, true},
		{7, models.EventPaymentDueIn7Days, true},
		{0, models.EventPaymentDueToday, true},
		{-3, models.EventPaymentOverdue3Days, true},
		{29, "", false},
		{8, "", false},
		{-1, "", false},
		{-4, "", false},
	}
	for _, tt := range tests {
		evt, ok := ClassifyPaymentTrigger(tt.days)
		if ok != tt.matched || evt != tt.want {
			t.Errorf("ClassifyPaymentTrigger(%d) = (%q, %v), want (%q, %v)", tt.days, evt, ok, tt.want, tt.matched)
		}
	}
}

func TestRunPaymentCheck_TriggerExactness(t *testing.T) {
	// 恰好 7 天后到期：只应命中 PR-007，不应命中 30 天或当日规则
	policy := models.Policy{
		ID:             "P1",
		PolicyNumber:   "POL-2201",
		Premium:        350.5,
		PaymentStatus:  "pending",
		PaymentDueDate: daysFromToday(7),
	}
	dispatcher := &recordingDispatcher{}
	engine := newPaymentEngine(dispatcher)

	res, err := engine.RunPaymentCheck(context.Background(), RunInput{
		Customers: []models.Customer{testCustomer(policy)},
		Agents:    []models.User{testAgent()},
		Log:       NewReminderLog(nil),
		Language:  "en",
	})
	if err != nil {
		t.Fatalf("RunPaymentCheck failed: %v", err)
	}

	if len(res.NewEntries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(res.NewEntries))
	}
	if res.NewEntries[0].RuleID != "PR-007" {
		t.Errorf("fired rule = %s, want PR-007", res.NewEntries[0].RuleID)
	}

	emails := dispatcher.byKind("email")
	if len(emails) != 1 {
		t.Fatalf("expected 1 email, got %d", len(emails))
	}
	if emails[0].To != "ana@example.test" {
		t.Errorf("email to = %q", emails[0].To)
	}
	if emails[0].Subject != "Payment due for POL-2201" {
		t.Errorf("email subject = %q", emails[0].Subject)
	}
	if !strings.Contains(emails[0].Body, "350.50") {
		t.Errorf("email body missing formatted premium: %q", emails[0].Body)
	}
	if !strings.Contains(emails[0].Body, "Dana Reyes") {
		t.Errorf("email body missing agent name: %q", emails[0].Body)
	}
}

func TestRunPaymentCheck_DueTodaySendsSMS(t *testing.T) {
	policy := models.Policy{
		ID:             "P1",
		PolicyNumber:   "POL-2201",
		PaymentStatus:  "pending",
		PaymentDueDate: daysFromToday(0),
	}
	dispatcher := &recordingDispatcher{}
	engine := newPaymentEngine(dispatcher)

	res, err := engine.RunPaymentCheck(context.Background(), RunInput{
		Customers: []models.Customer{testCustomer(policy)},
		Agents:    []models.User{testAgent()},
		Log:       NewReminderLog(nil),
		Language:  "en",
	})
	if err != nil {
		t.Fatalf("RunPaymentCheck failed: %v", err)
	}

	sms := dispatcher.byKind("sms")
	if len(sms) != 1 {
		t.Fatalf("expected 1 sms, got %d", len(sms))
	}
	if sms[0].To != "+15550199" {
		t.Errorf("sms to = %q", sms[0].To)
	}
	if sms[0].Body != "Ana, payment for POL-2201 is due today." {
		t.Errorf("sms body = %q", sms[0].Body)
	}
	if len(res.NewEntries) != 1 || res.NewEntries[0].LogKey != "PR-000_P1" {
		t.Errorf("unexpected log entries: %+v", res.NewEntries)
	}
}

func TestRunPaymentCheck_OffsetMissProducesNothing(t *testing.T) {
	// 8 天后到期：不在精确偏移集合内，本次运行无触发
	policy := models.Policy{
		ID:             "P1",
		PolicyNumber:   "POL-2201",
		PaymentStatus:  "pending",
		PaymentDueDate: daysFromToday(8),
	}
	engine := newPaymentEngine(&recordingDispatcher{})

	res, err := engine.RunPaymentCheck(context.Background(), RunInput{
		Customers: []models.Customer{testCustomer(policy)},
		Agents:    []models.User{testAgent()},
		Log:       NewReminderLog(nil),
	})
	if err != nil {
		t.Fatalf("RunPaymentCheck failed: %v", err)
	}
	if len(res.Tasks) != 0 || len(res.NewEntries) != 0 {
		t.Errorf("expected nothing, got %d tasks, %d entries", len(res.Tasks), len(res.NewEntries))
	}
}

func TestRunPaymentCheck_PaidPolicySkipped(t *testing.T) {
	policy := models.Policy{
		ID:             "P1",
		PolicyNumber:   "POL-2201",
		PaymentStatus:  "paid",
		PaymentDueDate: daysFromToday(7),
	}
	engine := newPaymentEngine(&recordingDispatcher{})

	res, err := engine.RunPaymentCheck(context.Background(), RunInput{
		Customers: []models.Customer{testCustomer(policy)},
		Agents:    []models.User{testAgent()},
		Log:       NewReminderLog(nil),
	})
	if err != nil {
		t.Fatalf("RunPaymentCheck failed: %v", err)
	}
	if len(res.NewEntries) != 0 {
		t.Errorf("paid policy fired %d rules", len(res.NewEntries))
	}
}

func TestRunPaymentCheck_DedupIdempotence(t *testing.T) {
	policy := models.Policy{
		ID:             "P1",
		PolicyNumber:   "POL-2201",
		PaymentStatus:  "pending",
		PaymentDueDate: daysFromToday(30),
	}
	engine := newPaymentEngine(&recordingDispatcher{})
	in := RunInput{
		Customers: []models.Customer{testCustomer(policy)},
		Agents:    []models.User{testAgent()},
		Log:       NewReminderLog(nil),
	}

	first, err := engine.RunPaymentCheck(context.Background(), in)
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if len(first.Tasks) != 1 || len(first.NewEntries) != 1 {
		t.Fatalf("first run: %d tasks, %d entries", len(first.Tasks), len(first.NewEntries))
	}

	in.Log = first.Log
	second, err := engine.RunPaymentCheck(context.Background(), in)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if len(second.Tasks) != 0 || len(second.NewEntries) != 0 {
		t.Errorf("second run not idempotent: %d tasks, %d entries", len(second.Tasks), len(second.NewEntries))
	}
}

func TestRunPaymentCheck_MissingTemplateStillLogsRule(t *testing.T) {
	// 邮件模板缺失：动作被跳过，但规则仍按"已发送"记日志（按规则而非按动作）
	rules := []models.RuleDefinition{
		{
			ID:      "PR-007",
			Trigger: models.Trigger{EventType: models.EventPaymentDueIn7Days},
			Actions: []models.Action{
				{ActionType: models.ActionSendEmail, Parameters: models.ActionParameters{TemplateID: "no-such-template"}},
				{ActionType: models.ActionCreateTask, Template: "Chase payment for {policy.policyNumber}."},
			},
			IsEnabled: true,
		},
	}
	emailDoc, smsDoc := paymentTemplateDocs()
	dispatcher := &recordingDispatcher{}
	engine := NewEngine(EngineConfig{
		RenewalRules:   NewStaticRuleProvider(nil),
		PaymentRules:   NewStaticRuleProvider(rules),
		EmailTemplates: NewStaticEmailTemplates(*emailDoc),
		SMSTemplates:   NewStaticSMSTemplates(*smsDoc),
		Dispatcher:     dispatcher,
		Logger:         quietLogger(),
		Now:            fixedClock,
	})

	policy := models.Policy{
		ID: "P1", PolicyNumber: "POL-2201", PaymentStatus: "pending", PaymentDueDate: daysFromToday(7),
	}
	res, err := engine.RunPaymentCheck(context.Background(), RunInput{
		Customers: []models.Customer{testCustomer(policy)},
		Agents:    []models.User{testAgent()},
		Log:       NewReminderLog(nil),
	})
	if err != nil {
		t.Fatalf("RunPaymentCheck failed: %v", err)
	}

	if len(dispatcher.byKind("email")) != 0 {
		t.Error("email dispatched despite missing template")
	}
	if len(res.Tasks) != 1 {
		t.Errorf("other actions on the rule should still run, got %d tasks", len(res.Tasks))
	}
	if len(res.NewEntries) != 1 {
		t.Errorf("rule should still be logged, got %d entries", len(res.NewEntries))
	}
}

func TestRunPaymentCheck_LanguageVariantSelected(t *testing.T) {
	policy := models.Policy{
		ID: "P1", PolicyNumber: "POL-2201", Premium: 100, PaymentStatus: "pending", PaymentDueDate: daysFromToday(7),
	}
	customer := testCustomer(policy)
	customer.Language = "es"

	dispatcher := &recordingDispatcher{}
	engine := newPaymentEngine(dispatcher)

	if _, err := engine.RunPaymentCheck(context.Background(), RunInput{
		Customers: []models.Customer{customer},
		Agents:    []models.User{testAgent()},
		Log:       NewReminderLog(nil),
		Language:  "en",
	}); err != nil {
		t.Fatalf("RunPaymentCheck failed: %v", err)
	}

	emails := dispatcher.byKind("email")
	if len(emails) != 1 {
		t.Fatalf("expected 1 email, got %d", len(emails))
	}
	if emails[0].Subject != "Pago pendiente de POL-2201" {
		t.Errorf("expected spanish variant, got subject %q", emails[0].Subject)
	}
}

func TestRunPaymentCheck_TemplateFetchFailureFailsSafe(t *testing.T) {
	existing := NewReminderLog(nil)
	engine := NewEngine(EngineConfig{
		RenewalRules:   NewStaticRuleProvider(nil),
		PaymentRules:   NewStaticRuleProvider(paymentRules()),
		EmailTemplates: failingEmailTemplates{},
		Logger:         quietLogger(),
		Now:            fixedClock,
	})

	policy := models.Policy{
		ID: "P1", PolicyNumber: "POL-2201", PaymentStatus: "pending", PaymentDueDate: daysFromToday(7),
	}
	res, err := engine.RunPaymentCheck(context.Background(), RunInput{
		Customers: []models.Customer{testCustomer(policy)},
		Agents:    []models.User{testAgent()},
		Log:       existing,
	})
	if err == nil {
		t.Fatal("expected error on template fetch failure")
	}
	if len(res.Tasks) != 0 || res.Log.Len() != 0 {
		t.Errorf("failed run produced output: %d tasks, %d log entries", len(res.Tasks), res.Log.Len())
	}
}
