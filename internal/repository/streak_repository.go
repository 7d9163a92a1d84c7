package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"studytimer/backend/internal/model"
)

type StreakRepository struct {
	db *sql.DB
}

func NewStreakRepository(db *sql.DB) *StreakRepository {
	return &StreakRepository{db: db}
}

// Touch records that the member closed a session on the given calendar day.
// Same day as the last credit is a no-op; exactly one day later extends the
// streak; any larger gap (or a first entry) resets it to 1. The
// read-modify-write runs in one transaction so concurrent closures cannot
// lose an update.
func (r *StreakRepository) Touch(ctx context.Context, communityID, memberID string, day time.Time) (*model.StreakEntry, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin streak tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(
		ctx,
		`SELECT community_id, member_id, current_streak, best_streak, last_credit_date
		 FROM streaks
		 WHERE community_id = ? AND member_id = ?`,
		communityID,
		memberID,
	)
	entry, err := scanStreakEntry(row)
	if err != nil && err != ErrNotFound {
		return nil, err
	}

	day = truncateToDate(day)

	if entry == nil {
		entry = &model.StreakEntry{
			CommunityID:    communityID,
			MemberID:       memberID,
			CurrentStreak:  1,
			BestStreak:     1,
			LastCreditDate: day,
		}
	} else {
		gap := daysBetween(entry.LastCreditDate, day)
		switch {
		case gap == 0:
			// Already credited today.
			return entry, nil
		case gap == 1:
			entry.CurrentStreak++
		default:
			entry.CurrentStreak = 1
		}
		if entry.CurrentStreak > entry.BestStreak {
			entry.BestStreak = entry.CurrentStreak
		}
		entry.LastCreditDate = day
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO streaks (community_id, member_id, current_streak, best_streak, last_credit_date)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (community_id, member_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			best_streak = excluded.best_streak,
			last_credit_date = excluded.last_credit_date`,
		entry.CommunityID,
		entry.MemberID,
		entry.CurrentStreak,
		entry.BestStreak,
		formatDate(entry.LastCreditDate),
	); err != nil {
		return nil, fmt.Errorf("upsert streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit streak tx: %w", err)
	}
	return entry, nil
}

func (r *StreakRepository) Get(ctx context.Context, communityID, memberID string) (*model.StreakEntry, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT community_id, member_id, current_streak, best_streak, last_credit_date
		 FROM streaks
		 WHERE community_id = ? AND member_id = ?`,
		communityID,
		memberID,
	)
	return scanStreakEntry(row)
}

func (r *StreakRepository) TopN(ctx context.Context, communityID string, n int) ([]model.StreakEntry, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT community_id, member_id, current_streak, best_streak, last_credit_date
		 FROM streaks
		 WHERE community_id = ?
		 ORDER BY current_streak DESC, rowid ASC
		 LIMIT ?`,
		communityID,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("top n streaks: %w", err)
	}
	defer rows.Close()

	entries := make([]model.StreakEntry, 0)
	for rows.Next() {
		entry, err := scanStreakEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate streaks: %w", err)
	}
	return entries, nil
}

func (r *StreakRepository) Clear(ctx context.Context, communityID string) error {
	if _, err := r.db.ExecContext(
		ctx,
		`DELETE FROM streaks WHERE community_id = ?`,
		communityID,
	); err != nil {
		return fmt.Errorf("clear streaks: %w", err)
	}
	return nil
}

func scanStreakEntry(s scanner) (*model.StreakEntry, error) {
	var entry model.StreakEntry
	var lastCreditDate string
	err := s.Scan(
		&entry.CommunityID,
		&entry.MemberID,
		&entry.CurrentStreak,
		&entry.BestStreak,
		&lastCreditDate,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan streak entry: %w", err)
	}

	parsed, err := parseDate(lastCreditDate)
	if err != nil {
		return nil, fmt.Errorf("parse streak last_credit_date: %w", err)
	}
	entry.LastCreditDate = parsed

	return &entry, nil
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	from = truncateToDate(from)
	to = truncateToDate(to)
	return int(to.Sub(from).Hours() / 24)
}
