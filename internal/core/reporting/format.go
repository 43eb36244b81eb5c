package reporting

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	dateLayout      = "02/01/2006"
	timestampLayout = "02/01/2006 15:04:05"
	isoDateLayout   = "2006-01-02"
)

var frenchPrinter = message.NewPrinter(language.French)

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', 1, 64) + "h"
}

func formatMileage(km float64) HTML {
	if km <= 0 {
		return ""
	}
	return HTML(frenchPrinter.Sprintf("%d", int64(math.Round(km))) + " km")
}

func formatYear(y float64) HTML {
	if y <= 0 {
		return ""
	}
	return HTML(strconv.FormatInt(int64(y), 10))
}

var accidentDateLayouts = []string{
	isoDateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// formatAccidentDate renders a stored date in the report format. Values that
// do not parse are shown escaped as entered.
func formatAccidentDate(raw string, loc *time.Location) HTML {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range accidentDateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		if layout == time.RFC3339 {
			t = t.In(loc)
		}
		return HTML(t.Format(dateLayout))
	}
	return Escape(raw)
}
