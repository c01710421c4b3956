package domain

import "time"

type MovementType string

const (
	MovementSale       MovementType = "sale"
	MovementAdjustment MovementType = "adjustment"
)

// StockMovement is one audited change to a product's stock counter.
type StockMovement struct {
	ID             string       `json:"id"`
	ProductID      string       `json:"product_id"`
	MovementType   MovementType `json:"movement_type"`
	QuantityChange int64        `json:"quantity_change"`
	QuantityBefore int64        `json:"quantity_before"`
	QuantityAfter  int64        `json:"quantity_after"`
	ReferenceID    *string      `json:"reference_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
