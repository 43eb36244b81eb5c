package reporting

import "strings"

// HTML is markup that is safe to interpolate into the report document.
// Values only become HTML through Escape or a constant in this package.
type HTML string

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape is the single escaping function for user-supplied report text.
func Escape(s string) HTML {
	if s == "" {
		return ""
	}
	return HTML(htmlEscaper.Replace(s))
}

const notProvided HTML = "Non renseigné"

func orPlaceholder(v HTML, placeholder HTML) HTML {
	if strings.TrimSpace(string(v)) == "" {
		return placeholder
	}
	return v
}
