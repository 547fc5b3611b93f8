package entity

type OrderItem struct {
	MenuItemID string
	Name       string
	Quantity   float64
	Price      float64
	Unit       string
	OrderType  string
}

type Order struct {
	ID              string
	Status          string
	Total           float64
	Items           []OrderItem
	SavedQuantities map[string]float64
	CreatedAt       string
	UpdatedAt       string
}

type Ingredient struct {
	Name     string
	Quantity float64
	Unit     string
}

type Recipe struct {
	MenuItemID  string
	Ingredients []Ingredient
}

type InventoryItem struct {
	ID            string
	Name          string
	StockQuantity float64
	Unit          string
	UpdatedAt     string
}

// ReconciliationRun is one entry of an order's inventory audit trail.
type ReconciliationRun struct {
	RunID       string
	Kind        string
	Status      string
	Fingerprint string
	Adjustments []byte
	Failures    []byte
	TraceID     string
	At          string
}
