package cart

import "github.com/fjod/go_storefront/internal/domain"

// Transitions are pure: they never touch the input snapshot and never do I/O.

func applyAdd(s domain.Snapshot, li domain.LineItem) domain.Snapshot {
	next := s.Clone()
	if i := next.IndexOf(li.ID); i >= 0 {
		next.Items[i].Quantity += li.Quantity
	} else {
		next.Items = append(next.Items, li)
	}
	next.TotalPrice = next.Total()
	return next
}

// applyRemove reports false when no line item has id.
func applyRemove(s domain.Snapshot, id domain.ItemID) (domain.Snapshot, bool) {
	i := s.IndexOf(id)
	if i < 0 {
		return s, false
	}
	next := domain.Snapshot{Items: make([]domain.LineItem, 0, len(s.Items)-1)}
	next.Items = append(next.Items, s.Items[:i]...)
	next.Items = append(next.Items, s.Items[i+1:]...)
	next.TotalPrice = next.Total()
	return next, true
}

// applySettle subtracts the ordered quantities from s. Lines that were not ordered, and
// units added on top of an ordered line, stay in the cart.
func applySettle(s, ordered domain.Snapshot) domain.Snapshot {
	next := domain.Snapshot{Items: make([]domain.LineItem, 0, len(s.Items))}
	for _, it := range s.Items {
		if i := ordered.IndexOf(it.ID); i >= 0 {
			it.Quantity -= ordered.Items[i].Quantity
			if it.Quantity < 1 {
				continue
			}
		}
		next.Items = append(next.Items, it)
	}
	next.TotalPrice = next.Total()
	return next
}

// checkLoaded rejects persisted snapshots that could not have been produced by the transitions.
func checkLoaded(s domain.Snapshot) bool {
	seen := make(map[domain.ItemID]struct{}, len(s.Items))
	for _, it := range s.Items {
		if it.ID == "" || it.Quantity < 1 || !domain.ValidPrice(it.Price) {
			return false
		}
		if _, dup := seen[it.ID]; dup {
			return false
		}
		seen[it.ID] = struct{}{}
	}
	return true
}
