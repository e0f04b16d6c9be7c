package store

import "database/sql"

type ShopStats struct {
	TotalOrders   int
	TotalRevenue  float64
	ItemUnitsSold []ItemUnits
}

type ItemUnits struct {
	ItemID int
	Name   string
	Units  int
}

// GetShopStats aggregates the order history for the history page header.
func (s *Store) GetShopStats() (*ShopStats, error) {
	stats := &ShopStats{}

	err := s.DB.QueryRow("SELECT COUNT(*), COALESCE(SUM(total), 0) FROM orders").Scan(&stats.TotalOrders, &stats.TotalRevenue)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	rows, err := s.DB.Query(`
		SELECT i.id, i.name, COALESCE(SUM(oi.quantity), 0) as units
		FROM items i
		LEFT JOIN order_items oi ON i.id = oi.item_id
		GROUP BY i.id
		ORDER BY units DESC, i.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var iu ItemUnits
		if err := rows.Scan(&iu.ItemID, &iu.Name, &iu.Units); err != nil {
			return nil, err
		}
		stats.ItemUnitsSold = append(stats.ItemUnitsSold, iu)
	}

	return stats, rows.Err()
}
