package repositories

import (
	"context"
	"time"

	"github.com/retailsim/retailsim/pkg/domain/entities"
)

// BasketProvider is the external customer/basket collaborator. For each store
// hour it produces the receipts (with line items) generated by simulated
// customer visits. The core consumes them as opaque records: lines become
// ordinary SALE adjustments against the ledger.
type BasketProvider interface {
	GenerateStoreHour(
		ctx context.Context,
		store *entities.Store,
		hourStart time.Time,
	) ([]*entities.Receipt, error)
}
