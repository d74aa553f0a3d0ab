package automation

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Dispatcher 邮件/短信投递的外部协作方。
// 引擎对投递采取 fire-and-log：不等待投递确认，
// 日志条目写入后投递失败不会重试。
type Dispatcher interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// LogDispatcher 把投递模拟为日志输出，开发与测试用
type LogDispatcher struct {
	logger *logrus.Logger
}

func NewLogDispatcher(logger *logrus.Logger) *LogDispatcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendEmail(ctx context.Context, to, subject, body string) error {
	d.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Infof("dispatch email: %s", body)
	return nil
}

func (d *LogDispatcher) SendSMS(ctx context.Context, to, body string) error {
	d.logger.WithField("to", to).Infof("dispatch sms: %s", body)
	return nil
}
