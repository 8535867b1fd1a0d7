package services

import (
	"testing"

	"salon-backoffice/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func TestUnitPrice_Tiers(t *testing.T) {
	full := models.Service{
		SinglePrice:        floatPtr(1000),
		CombinedPrice:      floatPtr(800),
		ChildPrice:         floatPtr(600),
		ChildCombinedPrice: floatPtr(500),
	}

	assert.Equal(t, 1000.0, UnitPrice(full, false, false))
	assert.Equal(t, 800.0, UnitPrice(full, false, true))
	assert.Equal(t, 600.0, UnitPrice(full, true, false))
	assert.Equal(t, 500.0, UnitPrice(full, true, true))
}

func TestUnitPrice_FallsBackToSingle(t *testing.T) {
	single := models.Service{SinglePrice: floatPtr(1200)}

	assert.Equal(t, 1200.0, UnitPrice(single, false, true))
	assert.Equal(t, 1200.0, UnitPrice(single, true, false))
	assert.Equal(t, 1200.0, UnitPrice(single, true, true))

	// child+combined does not fall back to the child tier
	childOnly := models.Service{SinglePrice: floatPtr(1200), ChildPrice: floatPtr(700)}
	assert.Equal(t, 1200.0, UnitPrice(childOnly, true, true))

	assert.Equal(t, 0.0, UnitPrice(models.Service{}, false, false))
}

func TestPriceLines(t *testing.T) {
	shampoo := models.Service{ID: uuid.New(), Name: "Shampoo", SinglePrice: floatPtr(1500), CombinedPrice: floatPtr(1000)}
	cut := models.Service{ID: uuid.New(), Name: "Cut", SinglePrice: floatPtr(2500), ChildPrice: floatPtr(1500)}
	catalog := map[uuid.UUID]models.Service{shampoo.ID: shampoo, cut.ID: cut}

	items, total, err := PriceLines([]LineInput{
		{ServiceID: shampoo.ID, Quantity: 2, IsCombined: true},
		{ServiceID: cut.ID, IsChild: true},
	}, catalog)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 1000.0, items[0].UnitPrice)
	assert.Equal(t, 2000.0, items[0].TotalPrice)
	assert.Equal(t, "Shampoo", items[0].ServiceName)

	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, 1500.0, items[1].TotalPrice)
	assert.True(t, items[1].IsChild)

	assert.Equal(t, 3500.0, total)
	assert.Equal(t, []string{"Shampoo", "Cut"}, ServiceNames(items))
}

func TestPriceLines_UnknownService(t *testing.T) {
	_, _, err := PriceLines([]LineInput{{ServiceID: uuid.New()}}, map[uuid.UUID]models.Service{})
	assert.ErrorIs(t, err, ErrServiceNotFound)
}
