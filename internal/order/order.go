// Package order generates fractional sort keys so an item can be inserted
// between two siblings without rewriting the rest of the list.
package order

// MinGap is the smallest neighbour distance at which a midpoint is still
// taken. Below it the sibling list should be rebalanced.
const MinGap = 1e-9

// Between returns a key strictly between before and after. A nil bound
// means the list has no item on that side.
func Between(before, after *float64) float64 {
	switch {
	case before == nil && after == nil:
		return 1.0
	case before == nil:
		return *after / 2
	case after == nil:
		return *before + 1
	default:
		return (*before + *after) / 2
	}
}

// NeedsRebalance reports whether no usable key remains between the bounds.
func NeedsRebalance(before, after *float64) bool {
	if before == nil || after == nil {
		if after != nil && *after <= MinGap {
			return true
		}
		return false
	}
	if *after-*before < MinGap {
		return true
	}
	mid := Between(before, after)
	return !(mid > *before && mid < *after)
}

// Rebalance returns integer keys 1..n for a list of n siblings in their
// current order.
func Rebalance(n int) []float64 {
	keys := make([]float64, n)
	for i := range keys {
		keys[i] = float64(i + 1)
	}
	return keys
}

// Ptr returns a pointer to v, for building Between arguments.
func Ptr(v float64) *float64 { return &v }

// Insert returns the key for an item placed at index pos of a sibling list
// whose keys, in order and without the item, are given. When the
// neighbouring keys are too close, the siblings are rebalanced first and
// their new keys are returned as well; otherwise rebalanced is nil.
func Insert(keys []float64, pos int) (key float64, rebalanced []float64) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(keys) {
		pos = len(keys)
	}
	bounds := func(ks []float64) (*float64, *float64) {
		var before, after *float64
		if pos > 0 {
			before = Ptr(ks[pos-1])
		}
		if pos < len(ks) {
			after = Ptr(ks[pos])
		}
		return before, after
	}

	before, after := bounds(keys)
	if NeedsRebalance(before, after) {
		rebalanced = Rebalance(len(keys))
		before, after = bounds(rebalanced)
	}
	return Between(before, after), rebalanced
}
