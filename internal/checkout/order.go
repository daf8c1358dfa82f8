package checkout

import (
	"strings"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

func validLine(it domain.LineItem) bool {
	return it.ID != "" &&
		strings.TrimSpace(it.Name) != "" &&
		domain.ValidPrice(it.Price) &&
		it.Quantity >= 1
}

// buildOrder copies values out of the snapshot; the order never references cart state.
func buildOrder(userID string, snap domain.Snapshot, shipping domain.ShippingDetails, now time.Time) domain.Order {
	items := make([]domain.OrderItem, 0, len(snap.Items))
	for _, it := range snap.Items {
		items = append(items, domain.OrderItem{
			Name:      it.Name,
			ProductID: it.ID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return domain.Order{
		UserID:          userID,
		Items:           items,
		TotalAmount:     snap.Total(),
		ShippingDetails: shipping.Trimmed(),
		CreatedAt:       now,
	}
}
