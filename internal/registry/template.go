package registry

import "strings"

// Template 通知文案模板，占位符形如 {{name}}
type Template struct {
	Title string
	Body  string
}

// Resolve 按字面替换占位符。未提供值的占位符原样保留，
// 文案可能不够优雅但绝不为空白。
func (t Template) Resolve(vars map[string]string) (title, body string) {
	return resolve(t.Title, vars), resolve(t.Body, vars)
}

func resolve(s string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(s, "{{") {
		return s
	}
	for k, v := range vars {
		s = strings.ReplaceAll(s, "{{"+k+"}}", v)
	}
	return s
}

// ResolveTemplate 查找渠道模板并渲染。模板名不存在时回落到 default，
// default 也不存在时返回类型名本身，保证调用方拿到非空文案。
func ResolveTemplate(def ChannelDefinition, name string, vars map[string]string) (title, body string) {
	tpl, ok := def.Templates[name]
	if !ok {
		tpl, ok = def.Templates["default"]
	}
	if !ok {
		return string(def.Type), string(def.Type)
	}
	return tpl.Resolve(vars)
}
