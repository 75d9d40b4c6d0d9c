package ledger

import (
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/retailsim/retailsim/pkg/domain/entities"
)

// Config holds reorder evaluation tuning for the ledger
type Config struct {
	// ReorderTargetMinMultiple and ReorderTargetMaxMultiple bound the
	// randomized reorder target as multiples of the product's reorder point.
	ReorderTargetMinMultiple float64
	ReorderTargetMaxMultiple float64
}

// DefaultConfig returns the standard reorder configuration
func DefaultConfig() Config {
	return Config{
		ReorderTargetMinMultiple: 2.0,
		ReorderTargetMaxMultiple: 4.0,
	}
}

type balanceKey struct {
	nodeType  entities.NodeType
	nodeID    entities.NodeID
	productID entities.ProductID
}

type transitKey struct {
	storeID   entities.NodeID
	productID entities.ProductID
}

// Ledger maintains in-memory inventory balances for DCs and stores, plus the
// in-transit quantities aboard trucks destined for each store. It is owned by
// the orchestrator for the duration of a run and never writes to storage.
type Ledger struct {
	balances  map[balanceKey]entities.Quantity
	inTransit map[transitKey]entities.Quantity
	cfg       Config
	rng       *rand.Rand
}

// New creates an empty ledger
func New(cfg Config, rng *rand.Rand) *Ledger {
	if cfg.ReorderTargetMinMultiple <= 0 {
		cfg = DefaultConfig()
	}
	return &Ledger{
		balances:  make(map[balanceKey]entities.Quantity),
		inTransit: make(map[transitKey]entities.Quantity),
		cfg:       cfg,
		rng:       rng,
	}
}

// Reset clears all balances for a new run
func (l *Ledger) Reset() {
	l.balances = make(map[balanceKey]entities.Quantity)
	l.inTransit = make(map[transitKey]entities.Quantity)
}

// Seed sets the opening balance for a (node, product) pair at run start
func (l *Ledger) Seed(nodeType entities.NodeType, nodeID entities.NodeID, productID entities.ProductID, qty entities.Quantity) {
	l.balances[balanceKey{nodeType, nodeID, productID}] = qty
}

// Adjust applies a signed delta to a balance and returns the new balance plus
// the transaction record for persistence. Destructive reasons clamp at zero;
// all other reasons apply the delta as-is, and callers are responsible for
// not oversupplying negative balances beyond what the reason permits.
func (l *Ledger) Adjust(
	nodeType entities.NodeType,
	nodeID entities.NodeID,
	productID entities.ProductID,
	delta entities.Quantity,
	reason entities.AdjustmentReason,
	at time.Time,
) (entities.Quantity, *entities.InventoryTransaction) {
	key := balanceKey{nodeType, nodeID, productID}
	balance := l.balances[key] + delta

	if balance < 0 && reason.IsDestructive() {
		balance = 0
	}
	l.balances[key] = balance

	txn := &entities.InventoryTransaction{
		ID:         uuid.NewString(),
		NodeType:   nodeType,
		NodeID:     nodeID,
		ProductID:  productID,
		Delta:      delta,
		Reason:     reason,
		Balance:    balance,
		OccurredAt: at,
	}
	return balance, txn
}

// Balance returns the current on-hand balance for a (node, product) pair
func (l *Ledger) Balance(nodeType entities.NodeType, nodeID entities.NodeID, productID entities.ProductID) entities.Quantity {
	return l.balances[balanceKey{nodeType, nodeID, productID}]
}

// AddInTransit records quantity aboard trucks destined for a store
func (l *Ledger) AddInTransit(storeID entities.NodeID, productID entities.ProductID, qty entities.Quantity) {
	l.inTransit[transitKey{storeID, productID}] += qty
}

// ReduceInTransit removes delivered quantity from the in-transit total,
// clamping at zero.
func (l *Ledger) ReduceInTransit(storeID entities.NodeID, productID entities.ProductID, qty entities.Quantity) {
	key := transitKey{storeID, productID}
	remaining := l.inTransit[key] - qty
	if remaining <= 0 {
		delete(l.inTransit, key)
		return
	}
	l.inTransit[key] = remaining
}

// InTransit returns the quantity currently aboard trucks for a store
func (l *Ledger) InTransit(storeID entities.NodeID, productID entities.ProductID) entities.Quantity {
	return l.inTransit[transitKey{storeID, productID}]
}

// EffectiveStoreInventory returns on-hand plus in-transit inventory for a
// store. Reorder decisions use this figure so stock already on a truck is not
// reordered a second time.
func (l *Ledger) EffectiveStoreInventory(storeID entities.NodeID, productID entities.ProductID) entities.Quantity {
	return l.Balance(entities.NodeStore, storeID, productID) + l.InTransit(storeID, productID)
}

// ReorderCandidates scans every (store, product) pair and emits a candidate
// for each whose effective inventory is at or below the product's reorder
// point, with a randomized target quantity in the configured range.
func (l *Ledger) ReorderCandidates(stores []*entities.Store, products []*entities.Product) []entities.ReorderCandidate {
	var candidates []entities.ReorderCandidate

	for _, store := range stores {
		for _, product := range products {
			if product.ReorderPoint <= 0 {
				continue
			}
			effective := l.EffectiveStoreInventory(store.ID, product.ID)
			if effective > product.ReorderPoint {
				continue
			}

			span := l.cfg.ReorderTargetMaxMultiple - l.cfg.ReorderTargetMinMultiple
			multiple := l.cfg.ReorderTargetMinMultiple + l.rng.Float64()*span
			target := entities.Quantity(float64(product.ReorderPoint) * multiple)
			if target < 1 {
				target = 1
			}

			candidates = append(candidates, entities.ReorderCandidate{
				StoreID:      store.ID,
				ProductID:    product.ID,
				EffectiveQty: effective,
				TargetQty:    target,
			})
		}
	}

	// Stable output order keeps generation deterministic for a fixed seed
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].StoreID != candidates[j].StoreID {
			return candidates[i].StoreID < candidates[j].StoreID
		}
		return candidates[i].ProductID < candidates[j].ProductID
	})

	return candidates
}
