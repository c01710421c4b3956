package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"makemybill/m/domain"
)

type customerRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	Address   string    `db:"address"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r customerRow) toDomain() domain.Customer {
	return domain.Customer(r)
}

const customerColumns = `id, name, phone, email, address, created_at, updated_at`

type CustomerRepo struct {
	db *sqlx.DB
}

func (r *CustomerRepo) List(ctx context.Context) ([]domain.Customer, error) {
	var rows []customerRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC, name`); err != nil {
		return nil, mapErr(fmt.Errorf("list customers: %w", err))
	}
	out := make([]domain.Customer, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

func (r *CustomerRepo) Get(ctx context.Context, id string) (domain.Customer, error) {
	return getCustomer(ctx, r.db, id)
}

// GetCustomerTx reads a customer through an open transaction.
func GetCustomerTx(ctx context.Context, tx *sqlx.Tx, id string) (domain.Customer, error) {
	return getCustomer(ctx, tx, id)
}

func getCustomer(ctx context.Context, q sqlx.ExtContext, id string) (domain.Customer, error) {
	var row customerRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`SELECT `+customerColumns+` FROM customers WHERE id = ?`), id)
	if err != nil {
		return domain.Customer{}, lookupErr(err, "customer "+id)
	}
	return row.toDomain(), nil
}

func getCustomers(ctx context.Context, q sqlx.ExtContext, ids []string) (map[string]domain.Customer, error) {
	out := make(map[string]domain.Customer, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+customerColumns+` FROM customers WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("prepare customers query: %w", err)
	}
	var rows []customerRow
	if err := sqlx.SelectContext(ctx, q, &rows, q.Rebind(query), args...); err != nil {
		return nil, mapErr(fmt.Errorf("load customers: %w", err))
	}
	for _, row := range rows {
		out[row.ID] = row.toDomain()
	}
	return out, nil
}

func (r *CustomerRepo) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.db.NamedExecContext(ctx, `INSERT INTO customers (`+customerColumns+`)
        VALUES (:id, :name, :phone, :email, :address, :created_at, :updated_at)`, customerRow(c))
	if err != nil {
		return domain.Customer{}, mapErr(fmt.Errorf("insert customer: %w", err))
	}
	return c, nil
}

func (r *CustomerRepo) Update(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	res, err := r.db.NamedExecContext(ctx, `UPDATE customers SET name = :name, phone = :phone, email = :email,
        address = :address, updated_at = :updated_at WHERE id = :id`, customerRow(c))
	if err != nil {
		return domain.Customer{}, mapErr(fmt.Errorf("update customer: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Customer{}, fmt.Errorf("customer %s: %w", c.ID, domain.ErrNotFound)
	}
	return r.Get(ctx, c.ID)
}

func (r *CustomerRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM customers WHERE id = ?`), id)
	if err != nil {
		return mapErr(fmt.Errorf("delete customer: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
