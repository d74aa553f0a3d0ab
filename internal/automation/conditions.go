package automation

import (
	"fmt"
	"strconv"

	"assurify/internal/models"
)

// EvaluateConditions 对上下文逐条求值，全部满足才返回 true（AND 语义）。
// 空条件列表恒为 true。字段缺失按不满足处理（fail-closed）：
// 与模板渲染相反，宁可不发提醒也不发错提醒。
func EvaluateConditions(conditions []models.Condition, ctx Context) bool {
	for _, cond := range conditions {
		if !evaluateCondition(cond, ctx) {
			return false
		}
	}
	return true
}

func evaluateCondition(cond models.Condition, ctx Context) bool {
	val, ok := ctx[cond.Field]
	if !ok {
		return false
	}

	switch cond.Operator {
	case models.OpEquals:
		// 宽松相等：双方都转字符串再比较
		return fmt.Sprintf("%v", val) == fmt.Sprintf("%v", cond.Value)
	case models.OpGreaterThan:
		a, aok := toFloat(val)
		b, bok := toFloat(cond.Value)
		return aok && bok && a > b
	case models.OpLessThan:
		a, aok := toFloat(val)
		b, bok := toFloat(cond.Value)
		return aok && bok && a < b
	default:
		return false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
