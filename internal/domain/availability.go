package domain

import "fmt"

// InsufficientStockError names the first product whose requested quantity
// exceeds what is available on the target day.
type InsufficientStockError struct {
	Product   string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for %q: available %d, requested %d",
		e.Product, e.Available, e.Requested,
	)
}

// ComputeAvailability nets total stock against the quantities reserved by
// the given events. Callers are expected to pass only events in a reserving
// status on the target day, with the edited event (if any) already excluded.
// Line items that reference the same product are summed, and references
// that match no catalog product are ignored.
func ComputeAvailability(products []Product, events []Event) map[string]Availability {
	used := make(map[string]int)
	for _, ev := range events {
		for _, li := range ev.LineItems {
			used[li.ProductRef] += li.Quantity
		}
	}

	out := make(map[string]Availability, len(products))
	for _, p := range products {
		u := used[p.Name]
		avail := p.Stock - u
		if avail < 0 {
			avail = 0
		}
		out[p.Name] = Availability{Total: p.Stock, Used: u, Available: avail}
	}

	return out
}

// CheckReservation validates proposed line items against computed
// availability. All-or-nothing: the first violation aborts the whole
// booking. Items whose product is not in the availability map are ad-hoc
// services and always pass. Duplicate references to the same product
// within the proposal are summed before checking.
func CheckReservation(items []LineItem, avail map[string]Availability) error {
	requested := make(map[string]int)
	order := make([]string, 0, len(items))
	for _, li := range items {
		if _, seen := requested[li.ProductRef]; !seen {
			order = append(order, li.ProductRef)
		}
		requested[li.ProductRef] += li.Quantity
	}

	for _, name := range order {
		a, ok := avail[name]
		if !ok {
			continue
		}
		if requested[name] > a.Available {
			return &InsufficientStockError{
				Product:   name,
				Available: a.Available,
				Requested: requested[name],
			}
		}
	}

	return nil
}
