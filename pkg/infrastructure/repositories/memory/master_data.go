package memory

import (
	"github.com/retailsim/retailsim/pkg/domain/entities"
	"github.com/retailsim/retailsim/pkg/domain/repositories"
)

// MasterDataRepository provides in-memory master data storage
type MasterDataRepository struct {
	stores    []*entities.Store
	dcs       []*entities.DistributionCenter
	products  []*entities.Product
	customers []*entities.Customer
	trucks    []*entities.Truck
}

// NewMasterDataRepository creates an empty in-memory master data repository
func NewMasterDataRepository() *MasterDataRepository {
	return &MasterDataRepository{}
}

// Verify interface compliance
var _ repositories.MasterDataRepository = (*MasterDataRepository)(nil)

// AddStore adds a store to the repository
func (r *MasterDataRepository) AddStore(store *entities.Store) {
	r.stores = append(r.stores, store)
}

// AddDistributionCenter adds a DC to the repository
func (r *MasterDataRepository) AddDistributionCenter(dc *entities.DistributionCenter) {
	r.dcs = append(r.dcs, dc)
}

// AddProduct adds a product to the repository
func (r *MasterDataRepository) AddProduct(product *entities.Product) {
	r.products = append(r.products, product)
}

// AddCustomer adds a customer to the repository
func (r *MasterDataRepository) AddCustomer(customer *entities.Customer) {
	r.customers = append(r.customers, customer)
}

// AddTruck adds a truck to the repository
func (r *MasterDataRepository) AddTruck(truck *entities.Truck) {
	r.trucks = append(r.trucks, truck)
}

// GetStores returns all stores
func (r *MasterDataRepository) GetStores() ([]*entities.Store, error) {
	return r.stores, nil
}

// GetDistributionCenters returns all DCs
func (r *MasterDataRepository) GetDistributionCenters() ([]*entities.DistributionCenter, error) {
	return r.dcs, nil
}

// GetProducts returns all products
func (r *MasterDataRepository) GetProducts() ([]*entities.Product, error) {
	return r.products, nil
}

// GetCustomers returns all customers
func (r *MasterDataRepository) GetCustomers() ([]*entities.Customer, error) {
	return r.customers, nil
}

// GetTrucks returns all trucks
func (r *MasterDataRepository) GetTrucks() ([]*entities.Truck, error) {
	return r.trucks, nil
}
