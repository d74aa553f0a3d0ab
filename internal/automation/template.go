package automation

import (
	"fmt"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+)*)\}`)

// RenderTemplate 将模板中的 {dotted.path} 占位符替换为上下文中的值。
// 解析不到的占位符原样保留（fail-open）：模板与数据漂移时宁可在
// 消息里露出占位符，也不在投递路径上抛错。数值使用默认字符串形式，
// 需要格式化的值必须在构建上下文时处理好。
func RenderTemplate(template string, ctx Context) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(match string) string {
		path := match[1 : len(match)-1]
		val, ok := ctx[path]
		if !ok {
			return match
		}
		return fmt.Sprintf("%v", val)
	})
}
