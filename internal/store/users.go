package store

import (
	"database/sql"

	"github.com/Lrseward22/A3/internal/models"
)

func (s *Store) GetUserByUsername(username string) (*models.User, error) {
	query := `SELECT id, username, name, email, address, payment_token, password, created_at FROM users WHERE username = ?`
	row := s.DB.QueryRow(query, username)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Name, &user.Email, &user.Address, &user.PaymentToken, &user.PasswordHash, &user.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) CreateUser(user *models.User) error {
	query := `INSERT INTO users (username, name, email, address, payment_token, password, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`
	_, err := s.DB.Exec(query, user.Username, user.Name, user.Email, user.Address, user.PaymentToken, user.PasswordHash)
	return err
}

func (s *Store) CountUsersByUsername(username string) (int, error) {
	var count int
	err := s.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&count)
	return count, err
}
