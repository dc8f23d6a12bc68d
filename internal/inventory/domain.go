package inventory

import (
	"errors"
)

// ProductStatus marks whether a product is listed.
type ProductStatus string

const (
	// StatusActive products count towards stock value and alerts.
	StatusActive ProductStatus = "active"
	// StatusInactive products are soft deleted.
	StatusInactive ProductStatus = "inactive"
)

// TransactionType enumerates supported stock movements.
type TransactionType string

const (
	// TransactionPurchase increases stock.
	TransactionPurchase TransactionType = "purchase"
	// TransactionSale decreases stock, clamped at zero.
	TransactionSale TransactionType = "sale"
	// TransactionAdjustment records a correction without touching stock.
	TransactionAdjustment TransactionType = "adjustment"
)

// CashflowType is the direction of a cashflow entry.
type CashflowType string

const (
	CashflowIncome  CashflowType = "income"
	CashflowExpense CashflowType = "expense"
)

// AuditAction enumerates audit log actions.
type AuditAction string

const (
	ActionCreate AuditAction = "CREATE"
	ActionUpdate AuditAction = "UPDATE"
	ActionDelete AuditAction = "DELETE"
)

// EntityType names the audited entity.
type EntityType string

const (
	EntityProduct     EntityType = "product"
	EntityTransaction EntityType = "transaction"
	EntityCashflow    EntityType = "cashflow"
)

// SystemUser is recorded when no caller identity is known.
const SystemUser = "system"

// Errors returned by the orchestrator.
var (
	ErrProductNotFound = errors.New("inventory: product not found")
	ErrStepFailed      = errors.New("inventory: step failed")
)

// Product is a stocked item.
type Product struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	SKU          string        `json:"sku"`
	Category     string        `json:"category"`
	CurrentStock int           `json:"currentStock"`
	MinStock     int           `json:"minStock"`
	MaxStock     int           `json:"maxStock"`
	UnitCost     float64       `json:"unitCost"`
	SellingPrice float64       `json:"sellingPrice"`
	Supplier     string        `json:"supplier"`
	LastUpdated  string        `json:"lastUpdated"`
	Status       ProductStatus `json:"status"`
}

// IsActive reports whether the product is listed.
func (p Product) IsActive() bool {
	return p.Status == StatusActive
}

// IsLowStock reports whether an active product sits at or below its minimum.
func (p Product) IsLowStock() bool {
	return p.IsActive() && p.CurrentStock <= p.MinStock
}

// ProductPatch carries a partial product update. Nil fields are left as is.
type ProductPatch struct {
	Name         *string        `json:"name,omitempty"`
	SKU          *string        `json:"sku,omitempty"`
	Category     *string        `json:"category,omitempty"`
	CurrentStock *int           `json:"currentStock,omitempty"`
	MinStock     *int           `json:"minStock,omitempty"`
	MaxStock     *int           `json:"maxStock,omitempty"`
	UnitCost     *float64       `json:"unitCost,omitempty"`
	SellingPrice *float64       `json:"sellingPrice,omitempty"`
	Supplier     *string        `json:"supplier,omitempty"`
	Status       *ProductStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// Apply returns p with the non-nil patch fields applied.
func (patch ProductPatch) Apply(p Product) Product {
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.SKU != nil {
		p.SKU = *patch.SKU
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.CurrentStock != nil {
		p.CurrentStock = *patch.CurrentStock
	}
	if patch.MinStock != nil {
		p.MinStock = *patch.MinStock
	}
	if patch.MaxStock != nil {
		p.MaxStock = *patch.MaxStock
	}
	if patch.UnitCost != nil {
		p.UnitCost = *patch.UnitCost
	}
	if patch.SellingPrice != nil {
		p.SellingPrice = *patch.SellingPrice
	}
	if patch.Supplier != nil {
		p.Supplier = *patch.Supplier
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	return p
}

// Changes flattens the patch into an audit snapshot.
func (patch ProductPatch) Changes() map[string]any {
	changes := make(map[string]any)
	if patch.Name != nil {
		changes["name"] = *patch.Name
	}
	if patch.SKU != nil {
		changes["sku"] = *patch.SKU
	}
	if patch.Category != nil {
		changes["category"] = *patch.Category
	}
	if patch.CurrentStock != nil {
		changes["currentStock"] = *patch.CurrentStock
	}
	if patch.MinStock != nil {
		changes["minStock"] = *patch.MinStock
	}
	if patch.MaxStock != nil {
		changes["maxStock"] = *patch.MaxStock
	}
	if patch.UnitCost != nil {
		changes["unitCost"] = *patch.UnitCost
	}
	if patch.SellingPrice != nil {
		changes["sellingPrice"] = *patch.SellingPrice
	}
	if patch.Supplier != nil {
		changes["supplier"] = *patch.Supplier
	}
	if patch.Status != nil {
		changes["status"] = string(*patch.Status)
	}
	return changes
}

// Transaction records a stock movement. Transactions are immutable.
type Transaction struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Type        TransactionType `json:"type"`
	Quantity    int             `json:"quantity"`
	UnitPrice   float64         `json:"unitPrice"`
	TotalAmount float64         `json:"totalAmount"`
	Date        string          `json:"date"`
	Notes       string          `json:"notes,omitempty"`
	UserID      string          `json:"userId"`
}

// CashflowEntry is a money movement, usually mirrored from a transaction.
type CashflowEntry struct {
	ID            string       `json:"id"`
	Date          string       `json:"date"`
	Type          CashflowType `json:"type"`
	Amount        float64      `json:"amount"`
	Description   string       `json:"description"`
	Category      string       `json:"category"`
	TransactionID string       `json:"transactionId,omitempty"`
}

// AuditLog is an append-only change record.
type AuditLog struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Action     AuditAction    `json:"action"`
	EntityType EntityType     `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Changes    map[string]any `json:"changes"`
	Timestamp  string         `json:"timestamp"`
}

// ProductInput is the create payload: a product without id.
type ProductInput struct {
	Name         string        `json:"name"`
	SKU          string        `json:"sku"`
	Category     string        `json:"category"`
	CurrentStock int           `json:"currentStock"`
	MinStock     int           `json:"minStock"`
	MaxStock     int           `json:"maxStock"`
	UnitCost     float64       `json:"unitCost"`
	SellingPrice float64       `json:"sellingPrice"`
	Supplier     string        `json:"supplier"`
	Status       ProductStatus `json:"status" validate:"omitempty,oneof=active inactive"`
}

// Product converts the input into an unsaved product.
func (in ProductInput) Product() Product {
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	return Product{
		Name:         in.Name,
		SKU:          in.SKU,
		Category:     in.Category,
		CurrentStock: in.CurrentStock,
		MinStock:     in.MinStock,
		MaxStock:     in.MaxStock,
		UnitCost:     in.UnitCost,
		SellingPrice: in.SellingPrice,
		Supplier:     in.Supplier,
		Status:       status,
	}
}

// TransactionInput is the create payload: a transaction without id.
type TransactionInput struct {
	ProductID   string          `json:"productId" validate:"required"`
	ProductName string          `json:"productName"`
	Type        TransactionType `json:"type" validate:"required,oneof=purchase sale adjustment"`
	Quantity    int             `json:"quantity"`
	UnitPrice   float64         `json:"unitPrice"`
	TotalAmount float64         `json:"totalAmount"`
	Date        string          `json:"date"`
	Notes       string          `json:"notes"`
	UserID      string          `json:"userId"`
}

// Transaction converts the input into an unsaved transaction.
func (in TransactionInput) Transaction() Transaction {
	user := in.UserID
	if user == "" {
		user = SystemUser
	}
	return Transaction{
		ProductID:   in.ProductID,
		ProductName: in.ProductName,
		Type:        in.Type,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		TotalAmount: in.TotalAmount,
		Date:        in.Date,
		Notes:       in.Notes,
		UserID:      user,
	}
}
