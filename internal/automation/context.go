package automation

import (
	"fmt"
	"time"

	"assurify/internal/models"
)

// Context 是按点分键展开的扁平投影，条件求值与模板渲染都只消费它，
// 不做任意对象图的反射遍历。编排器为每个保单显式构建一份。
type Context map[string]interface{}

const dateLayout = "2006-01-02"

// BuildContext 组装 customer/policy/agent 及派生字段。
// 货币、日期等需要格式化的值在这里预先转成字符串，
// 模板本身不做任何格式化。
func BuildContext(customer models.Customer, policy models.Policy, agent models.User, today time.Time) Context {
	ctx := Context{
		"customer.id":        customer.ID,
		"customer.firstName": customer.FirstName,
		"customer.lastName":  customer.LastName,
		"customer.fullName":  fmt.Sprintf("%s %s", customer.FirstName, customer.LastName),
		"customer.email":     customer.Email,
		"customer.phone":     customer.Phone,
		"customer.language":  customer.Language,

		"policy.id":               policy.ID,
		"policy.policyNumber":     policy.PolicyNumber,
		"policy.type":             policy.Type,
		"policy.premium":          policy.Premium,
		"policy.premiumFormatted": fmt.Sprintf("%.2f", policy.Premium),
		"policy.paymentStatus":    policy.PaymentStatus,
		"policy.isActive":         policy.IsActive,

		"agent.id":    agent.ID,
		"agent.name":  agent.Name,
		"agent.email": agent.Email,
		"agent.phone": agent.Phone,
	}

	if policy.EndDate != nil {
		ctx["policy.endDate"] = policy.EndDate.Format(dateLayout)
		ctx["policy.daysUntilExpiry"] = DayDifference(today, *policy.EndDate)
	}
	if policy.PaymentDueDate != nil {
		ctx["policy.paymentDueDate"] = policy.PaymentDueDate.Format(dateLayout)
		ctx["policy.daysUntilDue"] = DayDifference(today, *policy.PaymentDueDate)
	}

	return ctx
}
