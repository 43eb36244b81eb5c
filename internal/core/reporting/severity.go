package reporting

import "strings"

type SeverityClass string

const (
	SeverityFavorable   SeverityClass = "favorable"
	SeverityReserve     SeverityClass = "reserve"
	SeverityDefavorable SeverityClass = "defavorable"
)

type Severity struct {
	Class SeverityClass
	Label HTML
}

// ClassifySeverity maps a stored severity tag to one of three display tiers.
// Unknown tags fall into the middle tier.
func ClassifySeverity(tag string) Severity {
	switch {
	case strings.EqualFold(tag, "legere"):
		return Severity{Class: SeverityFavorable, Label: "LÉGÈRE"}
	case strings.EqualFold(tag, "importante"):
		return Severity{Class: SeverityDefavorable, Label: "IMPORTANTE"}
	default:
		return Severity{Class: SeverityReserve, Label: "MOYENNE"}
	}
}
