package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"makemybill/m/domain"
)

type movementRow struct {
	ID             string         `db:"id"`
	ProductID      string         `db:"product_id"`
	MovementType   string         `db:"movement_type"`
	QuantityChange int64          `db:"quantity_change"`
	QuantityBefore int64          `db:"quantity_before"`
	QuantityAfter  int64          `db:"quantity_after"`
	ReferenceID    sql.NullString `db:"reference_id"`
	CreatedAt      time.Time      `db:"created_at"`
}

type MovementRepo struct {
	db *sqlx.DB
}

// Insert appends a movement using the caller's transaction.
func (r *MovementRepo) Insert(ctx context.Context, tx *sqlx.Tx, m domain.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	row := movementRow{
		ID:             m.ID,
		ProductID:      m.ProductID,
		MovementType:   string(m.MovementType),
		QuantityChange: m.QuantityChange,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		ReferenceID:    nullString(m.ReferenceID),
		CreatedAt:      m.CreatedAt,
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO stock_movements (
            id, product_id, movement_type, quantity_change, quantity_before, quantity_after, reference_id, created_at
        ) VALUES (
            :id, :product_id, :movement_type, :quantity_change, :quantity_before, :quantity_after, :reference_id, :created_at
        )`, row)
	if err != nil {
		return mapErr(fmt.Errorf("log movement: %w", err))
	}
	return nil
}

func (r *MovementRepo) ListByProduct(ctx context.Context, productID string) ([]domain.StockMovement, error) {
	var rows []movementRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(`SELECT id, product_id, movement_type, quantity_change,
        quantity_before, quantity_after, reference_id, created_at
        FROM stock_movements WHERE product_id = ? ORDER BY created_at DESC`), productID)
	if err != nil {
		return nil, mapErr(fmt.Errorf("list movements: %w", err))
	}
	out := make([]domain.StockMovement, len(rows))
	for i, row := range rows {
		out[i] = domain.StockMovement{
			ID:             row.ID,
			ProductID:      row.ProductID,
			MovementType:   domain.MovementType(row.MovementType),
			QuantityChange: row.QuantityChange,
			QuantityBefore: row.QuantityBefore,
			QuantityAfter:  row.QuantityAfter,
			ReferenceID:    stringPtr(row.ReferenceID),
			CreatedAt:      row.CreatedAt,
		}
	}
	return out, nil
}
