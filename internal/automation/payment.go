package automation

import (
	"context"
	"time"

	"assurify/internal/models"
)

// paymentOffsets 符号化缴费触发器的精确天数偏移。
// 偏移未命中的日子不产生任何触发：检查未运行的那天，
// 该偏移的提醒对这张保单永久跳过（at-most-once，不补发）。
var paymentOffsets = map[int]models.TriggerEventType{
	30: models.EventPaymentDueIn30Days,
	7:  models.EventPaymentDueIn7Days,
	0:  models.EventPaymentDueToday,
	-3: models.EventPaymentOverdue3Days,
}

// ClassifyPaymentTrigger 把带符号的天数差映射为符号化事件
func ClassifyPaymentTrigger(days int) (models.TriggerEventType, bool) {
	evt, ok := paymentOffsets[days]
	return evt, ok
}

// paymentSpec 缴费领域：跳过已缴费或无应缴日的保单，
// 规则按分类出的事件类型匹配。
var paymentSpec = domainSpec{
	name:     "payment",
	taskType: "payment_reminder",
	skip: func(p models.Policy) bool {
		return p.PaymentStatus == "paid"
	},
	relevantDate: func(p models.Policy) *time.Time {
		return p.PaymentDueDate
	},
	match: func(r models.RuleDefinition, days int) bool {
		evt, ok := ClassifyPaymentTrigger(days)
		return ok && r.Trigger.EventType == evt
	},
}

// RunPaymentCheck 对所有客户保单执行一次缴费提醒检查
func (e *Engine) RunPaymentCheck(ctx context.Context, in RunInput) (RunResult, error) {
	return e.run(ctx, paymentSpec, e.paymentRules, in)
}
