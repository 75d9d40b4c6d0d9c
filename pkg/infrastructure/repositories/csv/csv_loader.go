package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/retailsim/retailsim/pkg/domain/entities"
	"github.com/retailsim/retailsim/pkg/infrastructure/repositories/memory"
)

// Loader handles loading master data from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadStores loads stores from a CSV file
func (l *Loader) LoadStores(filename string) ([]*entities.Store, error) {
	records, err := readCSV(filename, []string{"store_id", "name", "region"})
	if err != nil {
		return nil, fmt.Errorf("stores CSV: %w", err)
	}

	var stores []*entities.Store
	for _, record := range records {
		stores = append(stores, &entities.Store{
			ID:     entities.NodeID(record[0]),
			Name:   record[1],
			Region: record[2],
		})
	}
	return stores, nil
}

// LoadDistributionCenters loads DCs from a CSV file
func (l *Loader) LoadDistributionCenters(filename string) ([]*entities.DistributionCenter, error) {
	records, err := readCSV(filename, []string{"dc_id", "name", "region"})
	if err != nil {
		return nil, fmt.Errorf("distribution centers CSV: %w", err)
	}

	var dcs []*entities.DistributionCenter
	for _, record := range records {
		dcs = append(dcs, &entities.DistributionCenter{
			ID:     entities.NodeID(record[0]),
			Name:   record[1],
			Region: record[2],
		})
	}
	return dcs, nil
}

// LoadProducts loads products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]*entities.Product, error) {
	records, err := readCSV(filename, []string{"product_id", "name", "category", "unit_price", "reorder_point"})
	if err != nil {
		return nil, fmt.Errorf("products CSV: %w", err)
	}

	var products []*entities.Product
	for i, record := range records {
		price, err := decimal.NewFromString(record[3])
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: invalid unit_price %q", i+2, record[3])
		}
		reorderPoint, err := strconv.ParseInt(record[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: invalid reorder_point %q", i+2, record[4])
		}

		product, err := entities.NewProduct(
			entities.ProductID(record[0]), record[1], record[2],
			price, entities.Quantity(reorderPoint),
		)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		products = append(products, product)
	}
	return products, nil
}

// LoadCustomers loads customers from a CSV file
func (l *Loader) LoadCustomers(filename string) ([]*entities.Customer, error) {
	records, err := readCSV(filename, []string{"customer_id", "name"})
	if err != nil {
		return nil, fmt.Errorf("customers CSV: %w", err)
	}

	var customers []*entities.Customer
	for _, record := range records {
		customers = append(customers, &entities.Customer{ID: record[0], Name: record[1]})
	}
	return customers, nil
}

// LoadTrucks loads trucks from a CSV file. An empty home_dc column puts the
// truck in the shared pool.
func (l *Loader) LoadTrucks(filename string) ([]*entities.Truck, error) {
	records, err := readCSV(filename, []string{"truck_id", "home_dc"})
	if err != nil {
		return nil, fmt.Errorf("trucks CSV: %w", err)
	}

	var trucks []*entities.Truck
	for _, record := range records {
		trucks = append(trucks, &entities.Truck{
			ID:     record[0],
			HomeDC: entities.NodeID(record[1]),
		})
	}
	return trucks, nil
}

// LoadRepository loads every master data file from a scenario directory into
// an in-memory repository. Trucks are optional; everything else is required.
func (l *Loader) LoadRepository(dir string) (*memory.MasterDataRepository, error) {
	repo := memory.NewMasterDataRepository()

	stores, err := l.LoadStores(dir + "/stores.csv")
	if err != nil {
		return nil, err
	}
	for _, store := range stores {
		repo.AddStore(store)
	}

	dcs, err := l.LoadDistributionCenters(dir + "/distribution_centers.csv")
	if err != nil {
		return nil, err
	}
	for _, dc := range dcs {
		repo.AddDistributionCenter(dc)
	}

	products, err := l.LoadProducts(dir + "/products.csv")
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		repo.AddProduct(product)
	}

	customers, err := l.LoadCustomers(dir + "/customers.csv")
	if err != nil {
		return nil, err
	}
	for _, customer := range customers {
		repo.AddCustomer(customer)
	}

	if _, err := os.Stat(dir + "/trucks.csv"); err == nil {
		trucks, err := l.LoadTrucks(dir + "/trucks.csv")
		if err != nil {
			return nil, err
		}
		for _, truck := range trucks {
			repo.AddTruck(truck)
		}
	}

	return repo, nil
}

// readCSV reads a file, validates its header, and returns the data rows
func readCSV(filename string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%s must have header and at least one data row", filename)
	}
	if !validateHeader(records[0], expectedHeader) {
		return nil, fmt.Errorf("%s header mismatch. Expected: %v, Got: %v", filename, expectedHeader, records[0])
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s row %d: expected %d columns, got %d",
				filename, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i := range expected {
		if strings.TrimSpace(strings.ToLower(actual[i])) != expected[i] {
			return false
		}
	}
	return true
}
