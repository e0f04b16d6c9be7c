package store

import (
	"database/sql"

	"github.com/Lrseward22/A3/internal/models"
)

func (s *Store) CreateItem(item *models.Item) error {
	query := `
		INSERT INTO items (name, image, description, price, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	_, err := s.DB.Exec(query, item.Name, item.Image, item.Description, item.Price)
	return err
}

func (s *Store) GetAllItems() ([]models.Item, error) {
	query := `SELECT id, name, image, description, price, created_at FROM items ORDER BY id`
	rows, err := s.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var i models.Item
		if err := rows.Scan(&i.ID, &i.Name, &i.Image, &i.Description, &i.Price, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (s *Store) GetItemByID(id int) (*models.Item, error) {
	query := `SELECT id, name, image, description, price, created_at FROM items WHERE id = ?`
	var i models.Item
	err := s.DB.QueryRow(query, id).Scan(&i.ID, &i.Name, &i.Image, &i.Description, &i.Price, &i.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

func (s *Store) GetItemByName(name string) (*models.Item, error) {
	query := `SELECT id, name, image, description, price, created_at FROM items WHERE name = ?`
	var i models.Item
	err := s.DB.QueryRow(query, name).Scan(&i.ID, &i.Name, &i.Image, &i.Description, &i.Price, &i.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}
