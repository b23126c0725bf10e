package models

import "github.com/shopspring/decimal"

// MovementType classifies a transaction as an expense or an income.
type MovementType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"` // "Expense", "Income"
}

// Category is a household spending/income category ("Rent", "Salary", ...).
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PaymentMethod is how a transaction was paid ("Card", "MBWay", ...).
type PaymentMethod struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductType is the asset class of an investment ("ETF", "Stock", ...).
type ProductType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Transaction records one expense or income event.
type Transaction struct {
	ID              int64           `json:"id,omitempty"` // Database primary key
	TransactionDate string          `json:"transaction_date"`
	CreatedAt       string          `json:"created_at,omitempty"` // Assigned by the database on insert
	MovementTypeID  int64           `json:"movement_type_id"`
	Amount          decimal.Decimal `json:"amount"`   // Always > 0; sign is carried by the movement type
	Currency        string          `json:"currency"` // e.g. "EUR"
	CategoryID      int64           `json:"category_id"`
	PaymentMethodID *int64          `json:"payment_method_id,omitempty"` // Optional
	Source          *string         `json:"source,omitempty"`            // Store/source free text
	Notes           *string         `json:"notes,omitempty"`
}

// Investment records one investment purchase.
type Investment struct {
	ID             int64           `json:"id,omitempty"`
	InvestmentDate string          `json:"investment_date"`
	CreatedAt      string          `json:"created_at,omitempty"`
	Ticker         string          `json:"ticker"` // e.g. AAPL, VWCE, BTC
	ProductTypeID  int64           `json:"product_type_id"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       decimal.Decimal `json:"quantity"`
	TotalValue     decimal.Decimal `json:"total_value"` // unit_price * quantity, fixed at insert time
	Currency       string          `json:"currency"`
	Notes          *string         `json:"notes,omitempty"`
}

// Choice is one (display name, identifier) pair offered by a lookup table.
type Choice struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
