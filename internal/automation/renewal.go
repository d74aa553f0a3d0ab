package automation

import (
	"context"
	"time"

	"assurify/internal/models"
)

// renewalSpec 续保领域：跳过失效或无到期日的保单，
// 规则按 daysBefore 与天数差精确匹配。
var renewalSpec = domainSpec{
	name:     "renewal",
	taskType: "renewal_reminder",
	skip: func(p models.Policy) bool {
		return !p.IsActive
	},
	relevantDate: func(p models.Policy) *time.Time {
		return p.EndDate
	},
	match: func(r models.RuleDefinition, days int) bool {
		if r.Trigger.EventType != models.EventPolicyExpiringSoon {
			return false
		}
		return r.Trigger.Parameters.DaysBefore != nil && *r.Trigger.Parameters.DaysBefore == days
	},
}

// RunRenewalCheck 对所有客户保单执行一次续保提醒检查
func (e *Engine) RunRenewalCheck(ctx context.Context, in RunInput) (RunResult, error) {
	return e.run(ctx, renewalSpec, e.renewalRules, in)
}
