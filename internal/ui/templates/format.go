package templates

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.BritishEnglish)

// Money formats pounds with thousands separators, e.g. £1,234.50.
func Money(v float64) string {
	if v < 0 {
		return printer.Sprintf("-£%.2f", -v)
	}
	return printer.Sprintf("£%.2f", v)
}

func Int(n int) string {
	return printer.Sprintf("%d", n)
}

// Percent renders a ratio such as 0.2375 as 23.75%.
func Percent(ratio float64) string {
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return "n/a"
	}
	return printer.Sprintf("%.2f%%", ratio*100)
}
