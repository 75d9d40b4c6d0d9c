package baskets

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/retailsim/retailsim/pkg/domain/entities"
	"github.com/retailsim/retailsim/pkg/domain/repositories"
)

// Synthetic is a stand-in for the external customer/basket collaborator. It
// produces a deterministic (per-seed) stream of store receipts so the core
// can be driven without the full customer simulation.
type Synthetic struct {
	products         []*entities.Product
	customers        []*entities.Customer
	rng              *rand.Rand
	maxVisitsPerHour int
}

// NewSynthetic creates a synthetic basket provider
func NewSynthetic(products []*entities.Product, customers []*entities.Customer, rng *rand.Rand, maxVisitsPerHour int) *Synthetic {
	if maxVisitsPerHour <= 0 {
		maxVisitsPerHour = 5
	}
	return &Synthetic{
		products:         products,
		customers:        customers,
		rng:              rng,
		maxVisitsPerHour: maxVisitsPerHour,
	}
}

// Verify interface compliance
var _ repositories.BasketProvider = (*Synthetic)(nil)

// GenerateStoreHour produces the receipts for one store hour. Stores are
// closed overnight; daytime hours see up to the configured visit count.
func (p *Synthetic) GenerateStoreHour(ctx context.Context, store *entities.Store, hourStart time.Time) ([]*entities.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hour := hourStart.Hour()
	if hour < 8 || hour > 21 {
		return nil, nil
	}

	visits := p.rng.Intn(p.maxVisitsPerHour + 1)
	receipts := make([]*entities.Receipt, 0, visits)

	for v := 0; v < visits; v++ {
		customer := p.customers[p.rng.Intn(len(p.customers))]

		lineCount := 1 + p.rng.Intn(4)
		lines := make([]entities.ReceiptLine, 0, lineCount)
		for i := 0; i < lineCount; i++ {
			product := p.products[p.rng.Intn(len(p.products))]
			qty := entities.Quantity(1 + p.rng.Intn(3))
			lines = append(lines, entities.ReceiptLine{
				ProductID: product.ID,
				Quantity:  qty,
				UnitPrice: product.UnitPrice,
				LineTotal: product.UnitPrice.Mul(decimalFromQuantity(qty)),
			})
		}

		issuedAt := hourStart.Add(time.Duration(p.rng.Intn(60)) * time.Minute)
		receipt, err := entities.NewReceipt(uuid.NewString(), store.ID, customer.ID, issuedAt, lines)
		if err != nil {
			return nil, fmt.Errorf("generate receipt for %s: %w", store.ID, err)
		}
		receipts = append(receipts, receipt)
	}

	return receipts, nil
}

func decimalFromQuantity(q entities.Quantity) decimal.Decimal {
	return decimal.NewFromInt(int64(q))
}
