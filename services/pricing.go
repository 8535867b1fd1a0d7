package services

import (
	"fmt"

	"salon-backoffice/models"

	"github.com/google/uuid"
)

// LineInput is one requested service on a visit.
type LineInput struct {
	ServiceID  uuid.UUID `json:"serviceId" binding:"required"`
	Quantity   int       `json:"quantity" binding:"omitempty,min=1"`
	IsChild    bool      `json:"isChild"`
	IsCombined bool      `json:"isCombined"`
}

// UnitPrice picks the price tier for a line. A missing tier falls back to
// the single price, and a missing single price prices at zero.
func UnitPrice(svc models.Service, isChild, isCombined bool) float64 {
	var tier *float64
	switch {
	case isChild && isCombined:
		tier = svc.ChildCombinedPrice
	case isChild:
		tier = svc.ChildPrice
	case isCombined:
		tier = svc.CombinedPrice
	default:
		tier = svc.SinglePrice
	}
	if tier == nil {
		tier = svc.SinglePrice
	}
	if tier == nil {
		return 0
	}
	return *tier
}

// PriceLines resolves each line against the loaded services and returns
// the visit items together with the visit total.
func PriceLines(lines []LineInput, catalog map[uuid.UUID]models.Service) ([]models.VisitItem, float64, error) {
	items := make([]models.VisitItem, 0, len(lines))
	var total float64

	for _, line := range lines {
		svc, ok := catalog[line.ServiceID]
		if !ok {
			return nil, 0, fmt.Errorf("%w: %s", ErrServiceNotFound, line.ServiceID)
		}

		quantity := line.Quantity
		if quantity <= 0 {
			quantity = 1
		}

		unit := UnitPrice(svc, line.IsChild, line.IsCombined)
		lineTotal := unit * float64(quantity)
		total += lineTotal

		items = append(items, models.VisitItem{
			ServiceID:   svc.ID,
			ServiceName: svc.Name,
			Quantity:    quantity,
			UnitPrice:   unit,
			TotalPrice:  lineTotal,
			IsChild:     line.IsChild,
			IsCombined:  line.IsCombined,
		})
	}

	return items, total, nil
}

// ServiceNames lists the service name of every priced item.
func ServiceNames(items []models.VisitItem) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.ServiceName
	}
	return names
}
