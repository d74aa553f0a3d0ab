package automation

import (
	"context"
	"errors"
	"sync"
	"time"

	"assurify/internal/models"

	"github.com/sirupsen/logrus"
)

// 测试公共脚手架：固定时钟、记录投递、必定失败的规则来源

var testToday = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testToday }

func daysFromToday(days int) *time.Time {
	d := testToday.AddDate(0, 0, days)
	return &d
}

type recordedMessage struct {
	Kind    string
	To      string
	Subject string
	Body    string
}

type recordingDispatcher struct {
	mu       sync.Mutex
	messages []recordedMessage
}

func (d *recordingDispatcher) SendEmail(ctx context.Context, to, subject, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, recordedMessage{Kind: "email", To: to, Subject: subject, Body: body})
	return nil
}

func (d *recordingDispatcher) SendSMS(ctx context.Context, to, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.messages = append(d.messages, recordedMessage{Kind: "sms", To: to, Body: body})
	return nil
}

func (d *recordingDispatcher) byKind(kind string) []recordedMessage {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []recordedMessage
	for _, m := range d.messages {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

type failingRuleProvider struct{}

func (failingRuleProvider) Rules(ctx context.Context) ([]models.RuleDefinition, error) {
	return nil, errors.New("asset fetch failed")
}

type failingEmailTemplates struct{}

func (failingEmailTemplates) Templates(ctx context.Context) (*EmailTemplateDoc, error) {
	return nil, errors.New("template fetch failed")
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testAgent() models.User {
	return models.User{
		ID:    "AG-1",
		Name:  "Dana Reyes",
		Email: "dana@agency.test",
		Phone: "+15550100",
		Role:  "agent",
	}
}

func testCustomer(policies ...models.Policy) models.Customer {
	return models.Customer{
		ID:              "C1",
		FirstName:       "Ana",
		LastName:        "Silva",
		Email:           "ana@example.test",
		Phone:           "+15550199",
		Language:        "en",
		AssignedAgentID: "AG-1",
		Policies:        policies,
	}
}
