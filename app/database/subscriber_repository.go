package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SubscriberRepo struct {
	db *DB
}

func NewSubscriberRepository(db *DB) *SubscriberRepo {
	return &SubscriberRepo{db: db}
}

func (r *SubscriberRepo) AddSubscriber(email string) (bool, error) {
	email = strings.TrimSpace(email)

	res, err := r.db.Exec(`
		INSERT INTO subscribers (id, email, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (email) DO NOTHING
	`, uuid.NewString(), email, time.Now().UTC().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to add subscriber: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return inserted > 0, nil
}

func (r *SubscriberRepo) GetSubscriberCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM subscribers`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count subscribers: %w", err)
	}
	return count, nil
}
