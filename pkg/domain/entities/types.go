package entities

// ProductID represents a unique product (SKU) identifier
type ProductID string

// NodeID identifies an inventory-holding node (a distribution center or a store)
type NodeID string

// Quantity represents an integer quantity value for discrete retail units
type Quantity int64

// NodeType distinguishes the kinds of inventory-holding nodes
type NodeType int

const (
	NodeDC NodeType = iota
	NodeStore
)

// String method for NodeType enum
func (n NodeType) String() string {
	switch n {
	case NodeDC:
		return "DC"
	case NodeStore:
		return "STORE"
	default:
		return "Unknown"
	}
}
