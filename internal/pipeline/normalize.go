package pipeline

import (
	"fmt"

	"confectionary-dashboard/internal/models"
)

// Aliases maps known spelling variants of a product name to its canonical
// spelling. Names missing from the map are already canonical.
type Aliases map[string]string

// DefaultAliases returns a fresh copy of the variants seen in the source
// data. New misspellings need an entry here.
func DefaultAliases() Aliases {
	return Aliases{
		"Choclate Chunk": "Chocolate Chunk",
		"Caramel nut":    "Caramel Nut",
	}
}

func (a Aliases) Canonical(name string) string {
	if canonical, ok := a[name]; ok {
		return canonical
	}
	return name
}

// Validate rejects chained aliases, where a canonical name is itself mapped
// to something else. Without chains Canonical is idempotent.
func (a Aliases) Validate() error {
	for variant, canonical := range a {
		if next, ok := a[canonical]; ok && next != canonical {
			return fmt.Errorf("alias %q -> %q is chained to %q", variant, canonical, next)
		}
	}
	return nil
}

// Normalize returns a copy of records with CanonicalProduct set. No row is
// dropped.
func Normalize(records []models.SalesRecord, aliases Aliases) []models.SalesRecord {
	out := make([]models.SalesRecord, len(records))
	for i, rec := range records {
		rec.CanonicalProduct = aliases.Canonical(rec.Product)
		out[i] = rec
	}
	return out
}
