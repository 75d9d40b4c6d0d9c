package repositories

import "github.com/retailsim/retailsim/pkg/domain/entities"

// MasterDataRepository provides read-only access to the reference data that
// seeds a generation run. It is loaded once before the run starts.
type MasterDataRepository interface {
	GetStores() ([]*entities.Store, error)
	GetDistributionCenters() ([]*entities.DistributionCenter, error)
	GetProducts() ([]*entities.Product, error)
	GetCustomers() ([]*entities.Customer, error)
	GetTrucks() ([]*entities.Truck, error)
}
