package reporting

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/report.html.tmpl
var reportTemplateText string

type sectionContext struct {
	VM     *ViewModel
	Number int
}

type sectionHeader struct {
	Number int
	Title  HTML
}

type fieldView struct {
	Label HTML
	Value HTML
}

// Values reach the template only as HTML produced by Escape, as constants, or
// as numbers, so text/template is used and performs no escaping of its own.
var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"bind": func(vm *ViewModel, s Section) sectionContext {
		return sectionContext{VM: vm, Number: s.Number}
	},
	"title": func(ctx sectionContext, title string) sectionHeader {
		return sectionHeader{Number: ctx.Number, Title: HTML(title)}
	},
	"field": func(label string, value HTML) fieldView {
		return fieldView{Label: HTML(label), Value: value}
	},
}).Parse(reportTemplateText))

// Render maps a view model to one self-contained HTML document.
func Render(vm ViewModel) (string, error) {
	var b strings.Builder
	b.Grow(32 << 10)
	if err := reportTemplate.Execute(&b, &vm); err != nil {
		return "", fmt.Errorf("execute report template: %w", err)
	}
	return b.String(), nil
}
