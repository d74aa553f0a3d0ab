package automation

import (
	"context"
	"fmt"

	"assurify/internal/models"
	"assurify/pkg/assets"
)

// RuleProvider 统一静态规则表与外部加载规则的来源。
// 实现方返回的切片归调用方所有，运行期间视为只读。
type RuleProvider interface {
	Rules(ctx context.Context) ([]models.RuleDefinition, error)
}

// StaticRuleProvider 代码/配置常驻的规则表
type StaticRuleProvider struct {
	rules []models.RuleDefinition
}

func NewStaticRuleProvider(rules []models.RuleDefinition) *StaticRuleProvider {
	return &StaticRuleProvider{rules: rules}
}

func (p *StaticRuleProvider) Rules(ctx context.Context) ([]models.RuleDefinition, error) {
	out := make([]models.RuleDefinition, len(p.rules))
	copy(out, p.rules)
	return out, nil
}

// AssetRuleProvider 从外部资产路径拉取规则 JSON 文档，
// 文档是 RuleDefinition 数组。拉取或解析失败原样上抛，
// 由编排器降级为"本次无规则、无任务"。
type AssetRuleProvider struct {
	client *assets.Client
	path   string
}

func NewAssetRuleProvider(client *assets.Client, path string) *AssetRuleProvider {
	return &AssetRuleProvider{client: client, path: path}
}

func (p *AssetRuleProvider) Rules(ctx context.Context) ([]models.RuleDefinition, error) {
	var rules []models.RuleDefinition
	if err := p.client.GetJSON(ctx, p.path, &rules); err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	return rules, nil
}

// DefaultRenewalRules 续保提醒的内置规则表
func DefaultRenewalRules() []models.RuleDefinition {
	days30 := 30
	days7 := 7
	return []models.RuleDefinition{
		{
			ID: "RR-001",
			Trigger: models.Trigger{
				EventType:  models.EventPolicyExpiringSoon,
				Parameters: models.TriggerParameters{DaysBefore: &days30},
			},
			Actions: []models.Action{
				{
					ActionType: models.ActionCreateTask,
					Template:   "Follow up with {customer.firstName} about policy {policy.policyNumber} expiring on {policy.endDate}.",
				},
			},
			IsEnabled: true,
		},
		{
			ID: "RR-002",
			Trigger: models.Trigger{
				EventType:  models.EventPolicyExpiringSoon,
				Parameters: models.TriggerParameters{DaysBefore: &days7},
			},
			Conditions: []models.Condition{
				{Field: "policy.premium", Operator: models.OpGreaterThan, Value: 500},
			},
			Actions: []models.Action{
				{
					ActionType: models.ActionCreateTask,
					Template:   "Urgent: policy {policy.policyNumber} for {customer.fullName} expires in 7 days. Premium {policy.premiumFormatted}.",
				},
			},
			IsEnabled: true,
		},
	}
}
