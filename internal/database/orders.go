package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cavestore/orderbot/internal/models"
	"github.com/cavestore/orderbot/internal/storage"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	insertOrderQuery = `
		INSERT INTO
			orders (id, customer_id, customer_name, service_type, subtype, quantity, note,
			        status, assignee_id, assignee_name, deadline, created_at, reminder_sent, expired)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	upsertOrderQuery = `
		INSERT INTO
			orders (id, customer_id, customer_name, service_type, subtype, quantity, note,
			        status, assignee_id, assignee_name, deadline, created_at, reminder_sent, expired)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			note = EXCLUDED.note,
			status = EXCLUDED.status,
			assignee_id = EXCLUDED.assignee_id,
			assignee_name = EXCLUDED.assignee_name,
			deadline = EXCLUDED.deadline,
			reminder_sent = EXCLUDED.reminder_sent,
			expired = EXCLUDED.expired
	`
	selectOrderQuery = `
		SELECT
			id, customer_id, customer_name, service_type, subtype, quantity, note,
			status, assignee_id, assignee_name, deadline, created_at, reminder_sent, expired
		FROM
			orders
		WHERE
			id = $1
	`
	selectAllOrdersQuery = `
		SELECT
			id, customer_id, customer_name, service_type, subtype, quantity, note,
			status, assignee_id, assignee_name, deadline, created_at, reminder_sent, expired
		FROM
			orders
	`
	deleteOrderQuery = `
		DELETE FROM
			orders
		WHERE
			id = $1
	`
)

func scanOrder(row pgx.Row) (*models.Order, error) {
	var order models.Order
	var status string
	var deadline *time.Time

	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.CustomerName,
		&order.ServiceType,
		&order.Subtype,
		&order.Quantity,
		&order.Note,
		&status,
		&order.AssigneeID,
		&order.AssigneeName,
		&deadline,
		&order.CreatedAt,
		&order.ReminderSent,
		&order.Expired,
	)
	if err != nil {
		return nil, err
	}

	order.Status = models.OrderStatus(status)
	if deadline != nil {
		utc := deadline.UTC()
		order.Deadline = &utc
	}
	order.CreatedAt = order.CreatedAt.UTC()

	return &order, nil
}

func orderArgs(order *models.Order) []any {
	return []any{
		order.ID,
		order.CustomerID,
		order.CustomerName,
		order.ServiceType,
		order.Subtype,
		order.Quantity,
		order.Note,
		string(order.Status),
		order.AssigneeID,
		order.AssigneeName,
		order.Deadline,
		order.CreatedAt,
		order.ReminderSent,
		order.Expired,
	}
}

func (d *Database) Get(ctx context.Context, id string) (*models.Order, error) {
	order, err := scanOrder(d.db.QueryRow(ctx, selectOrderQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select order: %w", err)
	}

	return order, nil
}

func (d *Database) Add(ctx context.Context, order *models.Order) error {
	if _, err := d.db.Exec(ctx, insertOrderQuery, orderArgs(order)...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (d *Database) Put(ctx context.Context, order *models.Order) error {
	if _, err := d.db.Exec(ctx, upsertOrderQuery, orderArgs(order)...); err != nil {
		return fmt.Errorf("failed to upsert order: %w", err)
	}

	return nil
}

func (d *Database) Delete(ctx context.Context, id string) error {
	tag, err := d.db.Exec(ctx, deleteOrderQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

func (d *Database) All(ctx context.Context) ([]models.Order, error) {
	rows, err := d.db.Query(ctx, selectAllOrdersQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to select orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	return orders, nil
}
