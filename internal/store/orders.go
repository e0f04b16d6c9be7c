package store

import (
	"fmt"

	"github.com/Lrseward22/A3/internal/models"
)

// CreateOrder inserts the order row and one row per line in a single
// transaction, filling in order.ID on success. It is deliberately not
// idempotent: posting the same cart twice creates two orders.
func (s *Store) CreateOrder(order *models.Order) error {
	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}

	res, err := tx.Exec(
		`INSERT INTO orders (order_ref, name, address, total, created_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		order.OrderRef, order.Name, order.Address, order.Total,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return err
	}
	order.ID = int(id)

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		lineRes, err := tx.Exec(
			`INSERT INTO order_items (order_id, item_id, quantity) VALUES (?, ?, ?)`,
			line.OrderID, line.ItemID, line.Quantity,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("insert order line: %w", err)
		}
		if lineID, err := lineRes.LastInsertId(); err == nil {
			line.ID = int(lineID)
		}
	}

	return tx.Commit()
}

func (s *Store) GetAllOrders() ([]models.Order, error) {
	query := `SELECT id, order_ref, name, address, total, created_at FROM orders ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.OrderRef, &o.Name, &o.Address, &o.Total, &o.CreatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// One query per order, like the original history page. The order count
	// here is small enough that batching is not worth the join gymnastics.
	for i := range orders {
		lines, err := s.GetOrderLines(orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}
	return orders, nil
}

func (s *Store) GetOrderLines(orderID int) ([]models.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.item_id, i.name, oi.quantity
		FROM order_items oi
		JOIN items i ON oi.item_id = i.id
		WHERE oi.order_id = ?
		ORDER BY oi.id
	`
	rows, err := s.DB.Query(query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.OrderItem
	for rows.Next() {
		var l models.OrderItem
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.ItemName, &l.Quantity); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (s *Store) GetTotalOrdersCount() (int, error) {
	var count int
	err := s.DB.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) DeleteOrder(id int) error {
	_, err := s.DB.Exec(`DELETE FROM orders WHERE id = ?`, id)
	return err
}
