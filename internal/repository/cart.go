package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const addCartItem = `
INSERT INTO cart_items (client_id, service_template_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (client_id, service_template_id) DO UPDATE SET quantity = EXCLUDED.quantity
`

// AddCartItemParams contains parameters for adding or replacing a cart line.
type AddCartItemParams struct {
	ClientID          pgtype.UUID
	ServiceTemplateID pgtype.UUID
	Quantity          int32
}

func (q *Queries) AddCartItem(ctx context.Context, params AddCartItemParams) error {
	_, err := q.db.Exec(ctx, addCartItem, params.ClientID, params.ServiceTemplateID, params.Quantity)
	return err
}

const getCartItems = `
SELECT client_id, service_template_id, quantity, created_at
FROM cart_items
WHERE client_id = $1
ORDER BY created_at
`

func (q *Queries) GetCartItems(ctx context.Context, clientID pgtype.UUID) ([]CartItem, error) {
	rows, err := q.db.Query(ctx, getCartItems, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var item CartItem
		if err := rows.Scan(&item.ClientID, &item.ServiceTemplateID, &item.Quantity, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

const clearCart = `
DELETE FROM cart_items
WHERE client_id = $1
`

func (q *Queries) ClearCart(ctx context.Context, clientID pgtype.UUID) error {
	_, err := q.db.Exec(ctx, clearCart, clientID)
	return err
}
