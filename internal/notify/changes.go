package notify

import (
	"slices"

	"github.com/GerlachSG/Cruciflix/internal/domain"
)

// Changed reports whether fresh differs from the previous snapshot.
// Only membership and freshness timestamps count: a nil snapshot, a length
// change, a different id set, or a different sequence of freshness values
// (in fetch order) is a change. Edits that leave updatedAt untouched are not.
func Changed[T domain.Entity](snapshot []T, hadSnapshot bool, fresh []T) bool {
	if !hadSnapshot {
		return true
	}
	if len(snapshot) != len(fresh) {
		return true
	}

	if !slices.Equal(sortedIDs(snapshot), sortedIDs(fresh)) {
		return true
	}

	for i := range fresh {
		if snapshot[i].Freshness() != fresh[i].Freshness() {
			return true
		}
	}
	return false
}

func sortedIDs[T domain.Entity](items []T) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.GetID()
	}
	slices.Sort(ids)
	return ids
}

// Entities widens a typed list for publication
func Entities[T domain.Entity](items []T) []domain.Entity {
	out := make([]domain.Entity, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
