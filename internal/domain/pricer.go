package domain

// RequestedItem is one unpriced line of a create-order request. ProductID
// is an unauthenticated reference until the validator confirms it.
type RequestedItem struct {
	ProductID int64
	Quantity  int32
}

// PriceOrder computes the order totals from the requested quantities and
// the validator's snapshots. Pure and deterministic: no I/O, no clock.
// Every requested product id must be present in the snapshot set;
// otherwise a ProductNotFoundError listing the absent ids is returned and
// no totals are produced.
func PriceOrder(items []RequestedItem, snapshots []ProductSnapshot) (amountMinor int64, totalItems int32, err error) {
	index := SnapshotIndex(snapshots)

	var missing []int64
	seenMissing := make(map[int64]bool)
	for _, item := range items {
		snapshot, ok := index[item.ProductID]
		if !ok {
			if !seenMissing[item.ProductID] {
				seenMissing[item.ProductID] = true
				missing = append(missing, item.ProductID)
			}
			continue
		}
		amountMinor += int64(item.Quantity) * snapshot.PriceMinor
		totalItems += item.Quantity
	}
	if len(missing) > 0 {
		return 0, 0, &ProductNotFoundError{ProductIDs: missing}
	}

	return amountMinor, totalItems, nil
}
