package database

import (
	"fmt"
	"time"
)

// LikeRepo persists liked story ids per device. Likes outlive any single
// story collection.
type LikeRepo struct {
	db *DB
}

func NewLikeRepository(db *DB) *LikeRepo {
	return &LikeRepo{db: db}
}

// ToggleLike flips the like state and returns the new state.
func (r *LikeRepo) ToggleLike(deviceID string, storyID int) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM likes WHERE device_id = ? AND story_id = ?`, deviceID, storyID)
	if err != nil {
		return false, fmt.Errorf("failed to remove like: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	liked := removed == 0
	if liked {
		_, err = tx.Exec(`INSERT INTO likes (device_id, story_id, created_at) VALUES (?, ?, ?)`,
			deviceID, storyID, time.Now().UTC().Unix())
		if err != nil {
			return false, fmt.Errorf("failed to add like: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit like toggle: %w", err)
	}

	return liked, nil
}

func (r *LikeRepo) IsLiked(deviceID string, storyID int) (bool, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM likes WHERE device_id = ? AND story_id = ?`,
		deviceID, storyID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return count > 0, nil
}

func (r *LikeRepo) GetLikedIDs(deviceID string) ([]int, error) {
	rows, err := r.db.Query(`SELECT story_id FROM likes WHERE device_id = ? ORDER BY created_at, story_id`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get likes: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan like row: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating like rows: %w", err)
	}

	return ids, nil
}
