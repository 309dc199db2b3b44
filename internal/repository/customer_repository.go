package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-bookings/internal/model"
)

// CustomerRepo reads customers and their push registration.
type CustomerRepo struct{ db *sql.DB }

func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// FindCustomer returns the customer, or nil when it does not exist.
func (r *CustomerRepo) FindCustomer(ctx context.Context, id uint64) (*model.Customer, error) {
	var (
		c       model.Customer
		phone   sql.NullString
		picture sql.NullString
		token   sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id,name,email,phone,profile_picture,push_token FROM customers WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.Name, &c.Email, &phone, &picture, &token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Phone = stringPtr(phone)
	c.ProfilePicture = stringPtr(picture)
	c.PushToken = stringPtr(token)
	return &c, nil
}
