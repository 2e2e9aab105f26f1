package documents

import (
	"github.com/shopspring/decimal"

	"github.com/halynka/rentgo/internal/domain"
)

// QuotePricing is the priced form of a line-item set.
type QuotePricing struct {
	LineItems []domain.InvoiceLineItem
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal
}

// Compose prices line items against the current catalog. Pure: both the
// automatic and the manual quote path go through here so pricing cannot
// drift between them. Unmatched product names price at zero — ad-hoc
// services are quoted by hand afterwards. Tax is zero system-wide pending
// tax configuration.
func Compose(
	items []domain.LineItem,
	catalog map[string]decimal.Decimal,
	discount decimal.Decimal,
) QuotePricing {
	out := QuotePricing{
		LineItems: make([]domain.InvoiceLineItem, 0, len(items)),
		Subtotal:  decimal.Zero,
		Tax:       decimal.Zero,
	}

	for _, li := range items {
		unit := catalog[li.ProductRef]
		sub := unit.Mul(decimal.NewFromInt(int64(li.Quantity)))

		out.LineItems = append(out.LineItems, domain.InvoiceLineItem{
			ProductRef: li.ProductRef,
			Quantity:   li.Quantity,
			UnitPrice:  unit,
			Subtotal:   sub,
			Note:       li.Note,
		})

		out.Subtotal = out.Subtotal.Add(sub)
	}

	out.Total = out.Subtotal.Sub(discount)

	return out
}
