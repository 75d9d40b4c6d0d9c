package testing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/retailsim/retailsim/pkg/domain/entities"
	"github.com/retailsim/retailsim/pkg/infrastructure/repositories/memory"
)

// BuildRetailScenario builds a small but complete retail network: two DCs,
// four stores, a product catalog, customers, and a mixed fleet of
// DC-assigned and pooled trucks.
func BuildRetailScenario() *memory.MasterDataRepository {
	repo := memory.NewMasterDataRepository()

	repo.AddDistributionCenter(&entities.DistributionCenter{ID: "DC-EAST", Name: "East Regional DC", Region: "EAST"})
	repo.AddDistributionCenter(&entities.DistributionCenter{ID: "DC-WEST", Name: "West Regional DC", Region: "WEST"})

	repo.AddStore(&entities.Store{ID: "STORE-0001", Name: "Downtown Flagship", Region: "EAST"})
	repo.AddStore(&entities.Store{ID: "STORE-0002", Name: "Riverside Mall", Region: "WEST"})
	repo.AddStore(&entities.Store{ID: "STORE-0003", Name: "Airport Plaza", Region: "EAST"})
	repo.AddStore(&entities.Store{ID: "STORE-0004", Name: "Harbor Point", Region: "WEST"})

	products := []struct {
		id       string
		name     string
		category string
		price    string
		reorder  int64
	}{
		{"SKU-MILK-1L", "Whole Milk 1L", "DAIRY", "2.49", 60},
		{"SKU-BREAD-WHT", "White Bread Loaf", "BAKERY", "1.99", 40},
		{"SKU-EGGS-12", "Eggs Dozen", "DAIRY", "3.79", 50},
		{"SKU-COFFEE-250", "Ground Coffee 250g", "GROCERY", "6.99", 30},
		{"SKU-PASTA-500", "Penne Pasta 500g", "GROCERY", "1.29", 35},
		{"SKU-SODA-6PK", "Cola Six Pack", "BEVERAGE", "4.49", 45},
		{"SKU-CHIPS-150", "Potato Chips 150g", "SNACKS", "2.19", 40},
		{"SKU-SOAP-BAR", "Bath Soap Bar", "HOUSEHOLD", "0.99", 25},
	}
	for _, p := range products {
		price, _ := decimal.NewFromString(p.price)
		product, _ := entities.NewProduct(
			entities.ProductID(p.id), p.name, p.category, price, entities.Quantity(p.reorder),
		)
		repo.AddProduct(product)
	}

	for i := 1; i <= 40; i++ {
		repo.AddCustomer(&entities.Customer{
			ID:   fmt.Sprintf("CUST-%04d", i),
			Name: fmt.Sprintf("Customer %d", i),
		})
	}

	repo.AddTruck(&entities.Truck{ID: "TRUCK-E1", HomeDC: "DC-EAST"})
	repo.AddTruck(&entities.Truck{ID: "TRUCK-E2", HomeDC: "DC-EAST"})
	repo.AddTruck(&entities.Truck{ID: "TRUCK-W1", HomeDC: "DC-WEST"})
	repo.AddTruck(&entities.Truck{ID: "TRUCK-P1"})
	repo.AddTruck(&entities.Truck{ID: "TRUCK-P2"})

	return repo
}

// BuildEmptyScenario returns a repository with no master data, for
// exercising the fail-fast prerequisite checks.
func BuildEmptyScenario() *memory.MasterDataRepository {
	return memory.NewMasterDataRepository()
}
