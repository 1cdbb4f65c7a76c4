package unitprice

import "github.com/mmynk/pricebook/internal/money"

type headlineRule struct {
	metric Metric
	suffix func(b Breakdown) (Metric, string)
}

func fixed(m Metric, suffix string) func(Breakdown) (Metric, string) {
	return func(Breakdown) (Metric, string) { return m, suffix }
}

// headlinePriority lists the most specific, most comparable metrics first.
// Create and price-edit flows both go through Headline, so a given
// (unit text, price) always yields the same headline.
var headlinePriority = []headlineRule{
	{PerMeter, fixed(PerMeter, "/m")},
	{Per100g, fixed(Per100g, "/100g")},
	{PerKg, fixed(PerKg, "/kg")},
	{Per100ml, fixed(Per100ml, "/100ml")},
	{PerLiter, fixed(PerLiter, "/L")},
	{PerUnit, fixed(PerUnit, "/unit")},
	{PerContainer, containerHeadline},
	{PerRoll, fixed(PerRoll, "/roll")},
	{PerSheet, fixed(PerSheet, "/sheet")},
	{Generic, fixed(Generic, "/unit")},
}

func containerHeadline(b Breakdown) (Metric, string) {
	per100 := "/100g"
	if b.Content == "ml" || b.Content == "l" {
		per100 = "/100ml"
	}
	switch {
	case b.Has(PackPer100):
		return PackPer100, per100
	case b.Has(PackPer100Base):
		return PackPer100Base, per100
	default:
		return PerContainer, "/container"
	}
}

// Headline picks the single most comparable unit price, e.g. "$5.20/kg".
func Headline(b Breakdown) string {
	for _, rule := range headlinePriority {
		if !b.Has(rule.metric) {
			continue
		}
		m, suffix := rule.suffix(b)
		return money.DisplayFloat(b.Metrics[m]) + suffix
	}
	return ""
}

// Line is one labelled derived metric, ready for display.
type Line struct {
	Metric Metric
	Label  string
	Value  float64
}

var displayOrder = []struct {
	metric Metric
	label  string
}{
	{PerKg, "Price per kg"},
	{Per100g, "Price per 100g"},
	{PerLiter, "Price per litre"},
	{Per100ml, "Price per 100ml"},
	{PerUnit, "Price per unit"},
	{PerContainer, "Price per container"},
	{PackPer100, "Price per 100 (g/ml)"},
	{PackPerBase, "Price per kg/L"},
	{PackPer100Base, "Price per 100 (g/ml)"},
	{PerRoll, "Price per roll"},
	{PerMeter, "Price per metre"},
	{PerSheet, "Price per sheet"},
	{Generic, "Price per unit"},
}

// Lines lists every derived metric of b in a stable display order.
func Lines(b Breakdown) []Line {
	var lines []Line
	for _, d := range displayOrder {
		if v, ok := b.Metrics[d.metric]; ok {
			lines = append(lines, Line{Metric: d.metric, Label: d.label, Value: v})
		}
	}
	return lines
}
