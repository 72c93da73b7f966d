package fares

import "sort"

// VehicleClass identifies a tier of ride offering (e.g. "car", "bike").
type VehicleClass string

// Estimate is the price and pickup ETA for one vehicle class.
type Estimate struct {
	Price float64 `json:"price"`
	ETA   int     `json:"eta"` // minutes
}

// Quote maps each offered vehicle class to its estimate for one
// (pickup, destination) pair.
type Quote map[VehicleClass]Estimate

// Has reports whether class was offered in this quote.
func (q Quote) Has(class VehicleClass) bool {
	_, ok := q[class]
	return ok
}

// Classes returns the offered classes, cheapest first.
func (q Quote) Classes() []VehicleClass {
	out := make([]VehicleClass, 0, len(q))
	for c := range q {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if q[out[i]].Price != q[out[j]].Price {
			return q[out[i]].Price < q[out[j]].Price
		}
		return out[i] < out[j]
	})
	return out
}

// Clone returns an independent copy.
func (q Quote) Clone() Quote {
	if q == nil {
		return nil
	}
	out := make(Quote, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}
