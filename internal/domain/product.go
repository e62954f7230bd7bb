package domain

// ProductSnapshot is the authoritative product record returned by the
// products service for one validation request. Snapshots are transient:
// they are used to price the order and enrich responses, never cached
// across requests.
type ProductSnapshot struct {
	ID        int64
	Name      string
	// PriceMinor is the current catalog price in minor currency units.
	PriceMinor int64
	Available  bool
}

// SnapshotIndex builds a productID lookup over a validator response.
func SnapshotIndex(snapshots []ProductSnapshot) map[int64]ProductSnapshot {
	index := make(map[int64]ProductSnapshot, len(snapshots))
	for _, s := range snapshots {
		index[s.ID] = s
	}
	return index
}
