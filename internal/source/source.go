// Package source provides adapters that fetch the raw observation sequence
// for a requested scope. The engine does not know how the sequence was
// obtained; every adapter returns the same ordered []model.RawRecord.
package source

import (
	"context"

	"github.com/ahead-health/dq-cli/internal/model"
)

// DataSource fetches raw observations for a scope. Implementations must
// return records in a stable order for a given scope so downstream duplicate
// resolution stays deterministic across runs.
type DataSource interface {
	Fetch(ctx context.Context, scope model.Scope) ([]model.RawRecord, error)
}

// inRange reports whether the period falls inside the scope's optional
// inclusive date bounds.
func inRange(p model.Period, scope model.Scope) bool {
	if scope.DateMin != nil && p.Before(*scope.DateMin) {
		return false
	}
	if scope.DateMax != nil && p.After(*scope.DateMax) {
		return false
	}
	return true
}
