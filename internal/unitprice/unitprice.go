// Package unitprice parses free-form quantity text ("12 rolls 30m", "3 tubes of 60g",
// "1.5 kg") and derives comparable per-unit costs from a purchase price.
//
// Recognized quantity shapes are tried in a fixed order and the first match wins;
// text matching no shape yields the raw price as a generic unit price.
package unitprice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Metric names one derived per-unit cost.
type Metric string

const (
	PerMeter     Metric = "per_meter"
	PerRoll      Metric = "per_roll"
	PerKg        Metric = "per_kg"
	Per100g      Metric = "per_100g"
	PerLiter     Metric = "per_liter"
	Per100ml     Metric = "per_100ml"
	PerUnit      Metric = "per_unit"
	PerContainer Metric = "per_container"
	// PackPer100 is the cost per 100 g or 100 ml of a multi-pack sized in g/ml.
	PackPer100 Metric = "pack_per_100"
	// PackPerBase is the cost per kg or litre of a multi-pack sized in kg/l.
	PackPerBase Metric = "pack_per_base"
	// PackPer100Base is the cost per 100 g or 100 ml of a multi-pack sized in kg/l.
	PackPer100Base Metric = "pack_per_100_base"
	PerSheet       Metric = "per_sheet"
	// Generic is the raw price, used when no shape matched.
	Generic Metric = "unit_price"
)

// Shape identifies which quantity pattern matched.
type Shape string

const (
	ShapeRollsLength Shape = "rolls_length"
	ShapeMultiPack   Shape = "multi_pack"
	ShapeKg          Shape = "kg"
	ShapeGram        Shape = "g"
	ShapeLiter       Shape = "l"
	ShapeMilliliter  Shape = "ml"
	ShapeUnits       Shape = "units"
	ShapeRolls       Shape = "rolls"
	ShapeSheets      Shape = "sheets"
	ShapeNone        Shape = "none"
)

// Breakdown is the result of normalizing one (unit text, price) pair.
type Breakdown struct {
	Shape Shape

	// Quantity is the normalized display of the matched quantity (e.g. "12 rolls, 30m").
	// For ShapeNone it is the original unit text, verbatim.
	Quantity string

	// Content is the content unit of a multi-pack ("kg", "g", "l" or "ml"); empty otherwise.
	Content string

	Metrics map[Metric]float64
}

// Has reports whether the metric was derived.
func (b Breakdown) Has(m Metric) bool {
	_, ok := b.Metrics[m]
	return ok
}

const num = `(\d+(?:[.,]\d+)?)`

type shape struct {
	name  Shape
	re    *regexp.Regexp
	build func(m []string, price float64) (Breakdown, bool)
}

// shapes is ordered: earlier entries take precedence.
var shapes = []shape{
	{
		name:  ShapeRollsLength,
		re:    regexp.MustCompile(num + `\s*(?:rolls?|rolos?)\s+` + num + `\s*m(?:eters?|etres?|etros?)?\b`),
		build: buildRollsLength,
	},
	{
		name:  ShapeMultiPack,
		re:    regexp.MustCompile(num + `\s*(tubes?|packs?|boxes|box|tubos?|pacotes?|caixas?)\s+(?:of|de)\s+` + num + `\s*(kg|g|ml|l)\b`),
		build: buildMultiPack,
	},
	{
		name:  ShapeKg,
		re:    regexp.MustCompile(num + `\s*(?:kg|kilos?|quilos?)\b`),
		build: single(ShapeKg, "%skg", func(v, p float64) map[Metric]float64 { return map[Metric]float64{PerKg: p / v} }),
	},
	{
		name:  ShapeGram,
		re:    regexp.MustCompile(num + `\s*(?:g|gr|grams?|gramas?)\b`),
		build: single(ShapeGram, "%sg", func(v, p float64) map[Metric]float64 { return map[Metric]float64{Per100g: p / v * 100} }),
	},
	{
		name: ShapeLiter,
		re:   regexp.MustCompile(num + `\s*(?:l|liters?|litres?|litros?)\b`),
		build: single(ShapeLiter, "%sL", func(v, p float64) map[Metric]float64 {
			ml := v * 1000
			return map[Metric]float64{PerLiter: p / v, Per100ml: p / ml * 100}
		}),
	},
	{
		name:  ShapeMilliliter,
		re:    regexp.MustCompile(num + `\s*ml\b`),
		build: single(ShapeMilliliter, "%sml", func(v, p float64) map[Metric]float64 { return map[Metric]float64{Per100ml: p / v * 100} }),
	},
	{
		name:  ShapeUnits,
		re:    regexp.MustCompile(num + `\s*(?:und|units?|unidades?)\b`),
		build: single(ShapeUnits, "%s units", func(v, p float64) map[Metric]float64 { return map[Metric]float64{PerUnit: p / v} }),
	},
	{
		name:  ShapeRolls,
		re:    regexp.MustCompile(num + `\s*(?:rolls?|rolos?)\b`),
		build: single(ShapeRolls, "%s rolls", func(v, p float64) map[Metric]float64 { return map[Metric]float64{PerRoll: p / v} }),
	},
	{
		name:  ShapeSheets,
		re:    regexp.MustCompile(num + `\s*(?:sheets?|folhas?)\b`),
		build: single(ShapeSheets, "%s sheets", func(v, p float64) map[Metric]float64 { return map[Metric]float64{PerSheet: p / v} }),
	},
}

// Normalize derives per-unit costs for price paid for the quantity described by unitText.
// It is a pure function: identical inputs always produce identical output.
func Normalize(unitText string, price float64) Breakdown {
	text := strings.ToLower(strings.TrimSpace(unitText))
	for _, s := range shapes {
		m := s.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if b, ok := s.build(m, price); ok {
			return b
		}
		// A zero magnitude matched the shape but cannot be divided by.
		break
	}
	return Breakdown{
		Shape:    ShapeNone,
		Quantity: unitText,
		Metrics:  map[Metric]float64{Generic: price},
	}
}

func buildRollsLength(m []string, price float64) (Breakdown, bool) {
	rolls, meters := magnitude(m[1]), magnitude(m[2])
	if rolls <= 0 || meters <= 0 {
		return Breakdown{}, false
	}
	return Breakdown{
		Shape:    ShapeRollsLength,
		Quantity: fmt.Sprintf("%s rolls, %sm", formatMagnitude(rolls), formatMagnitude(meters)),
		Metrics: map[Metric]float64{
			PerRoll:  price / rolls,
			PerMeter: price / meters,
		},
	}, true
}

func buildMultiPack(m []string, price float64) (Breakdown, bool) {
	count, container, size, content := magnitude(m[1]), m[2], magnitude(m[3]), m[4]
	if count <= 0 || size <= 0 {
		return Breakdown{}, false
	}
	total := count * size
	metrics := map[Metric]float64{PerContainer: price / count}
	switch content {
	case "g", "ml":
		metrics[PackPer100] = price / total * 100
	case "kg", "l":
		perBase := price / total
		metrics[PackPerBase] = perBase
		// 1 kg = 10 x 100 g, 1 l = 10 x 100 ml
		metrics[PackPer100Base] = perBase / 10
	}
	return Breakdown{
		Shape:    ShapeMultiPack,
		Quantity: fmt.Sprintf("%s %s of %s%s", formatMagnitude(count), container, formatMagnitude(size), content),
		Content:  content,
		Metrics:  metrics,
	}, true
}

func single(name Shape, quantity string, metrics func(v, price float64) map[Metric]float64) func([]string, float64) (Breakdown, bool) {
	return func(m []string, price float64) (Breakdown, bool) {
		v := magnitude(m[1])
		if v <= 0 {
			return Breakdown{}, false
		}
		return Breakdown{
			Shape:    name,
			Quantity: fmt.Sprintf(quantity, formatMagnitude(v)),
			Metrics:  metrics(v, price),
		}, true
	}
}

func magnitude(s string) float64 {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0
	}
	return v
}

// formatMagnitude drops the fractional part of whole numbers: 12 -> "12", 1.5 -> "1.5".
func formatMagnitude(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
