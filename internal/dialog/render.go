package dialog

import (
	"fmt"
	"strings"

	"github.com/mmynk/pricebook/internal/models"
	"github.com/mmynk/pricebook/internal/money"
	"github.com/mmynk/pricebook/internal/unitprice"
)

var helpText = strings.Join([]string{
	"❓ *How to use Pricebook*",
	"",
	LabelAdd + " records a purchase. Send one line:",
	"`name, type, brand, unit, price[, notes]`",
	"",
	"Examples:",
	"`Rice, White, BrandX, 5 kg, 25.99`",
	"`Toilet Paper, Compact, BrandY, 12 rolls 30m, 14.90`",
	"`Toothpaste, Mint, BrandZ, 3 tubes of 90g, 12.50, promo`",
	"",
	"Units understood: kg, g, L, ml, units (und), rolls, rolls with metres, sheets, and packs like `3 tubes of 60g`.",
	"",
	LabelList + " shows the latest records, " + LabelSearch + " finds them by name, and " +
		LabelEdit + " changes a price or removes a record.",
	"Sending any other text searches by name.",
	"",
	LabelShare + " shows your group code; " + LabelJoin + " joins someone else's list.",
	"Send " + LabelCancel + " at any time to start over.",
}, "\n")

func renderConfirmation(p *models.Product, b unitprice.Breakdown) string {
	var sb strings.Builder
	sb.WriteString("Please confirm:\n\n")
	sb.WriteString(renderCard(p))
	fmt.Fprintf(&sb, "\n\n📏 Quantity: %s", b.Quantity)
	for _, l := range unitprice.Lines(b) {
		fmt.Fprintf(&sb, "\n• %s: %s", l.Label, money.DisplayFloat(l.Value))
	}
	fmt.Fprintf(&sb, "\n\n⭐ Unit price: %s", p.UnitPrice)
	return sb.String()
}

// renderCard shows every attribute of one record.
func renderCard(p *models.Product) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*", p.Name)
	if p.Type != "" {
		fmt.Fprintf(&sb, "\nType: %s", p.Type)
	}
	if p.Brand != "" {
		fmt.Fprintf(&sb, "\nBrand: %s", p.Brand)
	}
	fmt.Fprintf(&sb, "\nUnit: %s", p.Unit)
	fmt.Fprintf(&sb, "\nPrice: %s", money.Display(p.Price))
	if p.UnitPrice != "" {
		fmt.Fprintf(&sb, " (%s)", p.UnitPrice)
	}
	if p.Notes != "" {
		fmt.Fprintf(&sb, "\nNotes: %s", p.Notes)
	}
	return sb.String()
}

func renderProducts(title string, products []*models.Product) string {
	var sb strings.Builder
	sb.WriteString(title)
	for _, p := range products {
		sb.WriteString("\n\n")
		sb.WriteString(renderLine(p))
	}
	return sb.String()
}

func renderCandidates(products []*models.Product) string {
	var sb strings.Builder
	sb.WriteString("Several products match. Send the number of the one you want:")
	for i, p := range products {
		fmt.Fprintf(&sb, "\n\n%d. %s", i+1, renderLine(p))
	}
	return sb.String()
}

// renderLine is the compact one-record form used in lists.
func renderLine(p *models.Product) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s*", p.Name)
	if p.Brand != "" {
		fmt.Fprintf(&sb, " (%s)", p.Brand)
	}
	fmt.Fprintf(&sb, " · %s · %s", p.Unit, money.Display(p.Price))
	if p.UnitPrice != "" {
		fmt.Fprintf(&sb, " → %s", p.UnitPrice)
	}
	if p.Notes != "" {
		fmt.Fprintf(&sb, "\n📝 %s", p.Notes)
	}
	return sb.String()
}
