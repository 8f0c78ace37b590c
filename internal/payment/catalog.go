package payment

// Package is a purchasable token bundle
type Package struct {
	// ID is the catalog identifier
	ID int `json:"id"`
	// Name is the display name
	Name string `json:"name"`
	// Tokens is the number of usage tokens granted
	Tokens int64 `json:"tokens"`
	// Price is the price in the catalog currency
	Price float64 `json:"price"`
	// Currency is the ISO currency code
	Currency string `json:"currency"`
	// Description is the marketing copy shown in the store
	Description string `json:"description"`
	// Popular marks the package highlighted in the store
	Popular bool `json:"popular,omitempty"`
}

// packages is the static token package catalog
var packages = []Package{
	{
		ID:          1,
		Name:        "Starter Pack",
		Tokens:      1000,
		Price:       4.99,
		Currency:    "USD",
		Description: "Perfect for trying out the platform",
	},
	{
		ID:          2,
		Name:        "Creator Pack",
		Tokens:      5000,
		Price:       19.99,
		Currency:    "USD",
		Description: "Great for regular plugin development",
		Popular:     true,
	},
	{
		ID:          3,
		Name:        "Pro Pack",
		Tokens:      15000,
		Price:       49.99,
		Currency:    "USD",
		Description: "Best value for power users",
	},
	{
		ID:          4,
		Name:        "Enterprise Pack",
		Tokens:      50000,
		Price:       149.99,
		Currency:    "USD",
		Description: "For large-scale development",
	},
}

// Packages returns the token package catalog
func Packages() []Package {
	result := make([]Package, len(packages))
	copy(result, packages)
	return result
}

// PackageByID looks up a catalog package by its identifier
func PackageByID(id int) (*Package, bool) {
	for i := range packages {
		if packages[i].ID == id {
			p := packages[i]
			return &p, true
		}
	}
	return nil, false
}
