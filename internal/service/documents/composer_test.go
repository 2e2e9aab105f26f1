package documents

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halynka/rentgo/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCompose_PricesFromCatalog(t *testing.T) {
	catalog := map[string]decimal.Decimal{
		"Chair": dec("2.50"),
		"Table": dec("10.00"),
	}
	items := []domain.LineItem{
		{ProductRef: "Chair", Quantity: 4},
		{ProductRef: "Table", Quantity: 2},
	}

	p := Compose(items, catalog, decimal.Zero)

	require.Len(t, p.LineItems, 2)
	assert.True(t, p.LineItems[0].UnitPrice.Equal(dec("2.50")))
	assert.True(t, p.LineItems[0].Subtotal.Equal(dec("10.00")))
	assert.True(t, p.LineItems[1].Subtotal.Equal(dec("20.00")))
	assert.True(t, p.Subtotal.Equal(dec("30.00")))
	assert.True(t, p.Tax.IsZero())
	assert.True(t, p.Total.Equal(dec("30.00")))
}

func TestCompose_UnmatchedRefsPriceZero(t *testing.T) {
	catalog := map[string]decimal.Decimal{"Chair": dec("2.50")}
	items := []domain.LineItem{
		{ProductRef: "DJ Services", Quantity: 1},
		{ProductRef: "Chair", Quantity: 2},
	}

	p := Compose(items, catalog, decimal.Zero)

	require.Len(t, p.LineItems, 2)
	assert.True(t, p.LineItems[0].UnitPrice.IsZero())
	assert.True(t, p.LineItems[0].Subtotal.IsZero())
	assert.True(t, p.Subtotal.Equal(dec("5.00")))
}

func TestCompose_AppliesDiscount(t *testing.T) {
	catalog := map[string]decimal.Decimal{"Chair": dec("3.00")}
	items := []domain.LineItem{{ProductRef: "Chair", Quantity: 10}}

	p := Compose(items, catalog, dec("5.00"))

	assert.True(t, p.Subtotal.Equal(dec("30.00")))
	assert.True(t, p.Total.Equal(dec("25.00")))
}

func TestCompose_EmptyItems(t *testing.T) {
	p := Compose(nil, nil, decimal.Zero)

	assert.Empty(t, p.LineItems)
	assert.True(t, p.Subtotal.IsZero())
	assert.True(t, p.Total.IsZero())
}
