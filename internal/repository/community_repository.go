package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type CommunityRepository struct {
	db *sql.DB
}

func NewCommunityRepository(db *sql.DB) *CommunityRepository {
	return &CommunityRepository{db: db}
}

// IsMaintenance reports the community's maintenance flag; communities with
// no row default to off.
func (r *CommunityRepository) IsMaintenance(ctx context.Context, communityID string) (bool, error) {
	var maintenance int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT maintenance FROM communities WHERE id = ?`,
		communityID,
	).Scan(&maintenance)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get maintenance flag: %w", err)
	}
	return maintenance != 0, nil
}

func (r *CommunityRepository) SetMaintenance(ctx context.Context, communityID string, on bool) error {
	flag := 0
	if on {
		flag = 1
	}
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO communities (id, maintenance, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
			maintenance = excluded.maintenance,
			updated_at = excluded.updated_at`,
		communityID,
		flag,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("set maintenance flag: %w", err)
	}
	return nil
}
