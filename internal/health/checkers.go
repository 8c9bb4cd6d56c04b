package health

import (
	"context"
	"fmt"

	"github.com/mkessler-dev/supportctx/internal/dataset"
)

// DatasetChecker reports ready once a non-empty dataset store with a complete
// escalation rule table has been loaded. Store construction only warns about
// a missing rule, so readiness is where an incomplete table surfaces.
func DatasetChecker(store *dataset.Store) Checker {
	return Checker{
		Name: "dataset",
		Check: func(_ context.Context) error {
			if store == nil {
				return fmt.Errorf("dataset not loaded")
			}
			counts := store.Counts()
			if counts.Customers == 0 {
				return fmt.Errorf("dataset has no customer records")
			}
			for _, tier := range dataset.Tiers {
				if _, ok := store.RuleFor(tier); !ok {
					return fmt.Errorf("no escalation rule for tier %q", tier)
				}
			}
			return nil
		},
	}
}
