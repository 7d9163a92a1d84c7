package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"studytimer/backend/internal/model"
)

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Credit adds seconds to the bucket identified by mode and phase, bumps the
// running total, and optionally counts a closed session. The upsert is a
// single statement, so the increment is atomic per member row.
func (r *LedgerRepository) Credit(
	ctx context.Context,
	communityID, memberID string,
	seconds int64,
	mode, phase string,
	sessionClosed bool,
) error {
	var workA, workB, breakA, breakB int64
	switch {
	case mode == model.ModeA && phase == model.PhaseWork:
		workA = seconds
	case mode == model.ModeB && phase == model.PhaseWork:
		workB = seconds
	case mode == model.ModeA && phase == model.PhaseBreak:
		breakA = seconds
	case mode == model.ModeB && phase == model.PhaseBreak:
		breakB = seconds
	default:
		return fmt.Errorf("credit: unknown bucket %s/%s", mode, phase)
	}

	var sessions int64
	if sessionClosed {
		sessions = 1
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO ledger (
			community_id, member_id, total_seconds,
			work_seconds_a, work_seconds_b, break_seconds_a, break_seconds_b,
			session_count, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (community_id, member_id) DO UPDATE SET
			total_seconds = total_seconds + excluded.total_seconds,
			work_seconds_a = work_seconds_a + excluded.work_seconds_a,
			work_seconds_b = work_seconds_b + excluded.work_seconds_b,
			break_seconds_a = break_seconds_a + excluded.break_seconds_a,
			break_seconds_b = break_seconds_b + excluded.break_seconds_b,
			session_count = session_count + excluded.session_count,
			updated_at = excluded.updated_at`,
		communityID,
		memberID,
		seconds,
		workA,
		workB,
		breakA,
		breakB,
		sessions,
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("credit ledger: %w", err)
	}
	return nil
}

func (r *LedgerRepository) Get(ctx context.Context, communityID, memberID string) (*model.LedgerEntry, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT community_id, member_id, total_seconds,
		        work_seconds_a, work_seconds_b, break_seconds_a, break_seconds_b,
		        session_count, updated_at
		 FROM ledger
		 WHERE community_id = ? AND member_id = ?`,
		communityID,
		memberID,
	)
	return scanLedgerEntry(row)
}

func (r *LedgerRepository) ListByCommunity(ctx context.Context, communityID string) ([]model.LedgerEntry, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT community_id, member_id, total_seconds,
		        work_seconds_a, work_seconds_b, break_seconds_a, break_seconds_b,
		        session_count, updated_at
		 FROM ledger
		 WHERE community_id = ?
		 ORDER BY rowid`,
		communityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	return collectLedgerEntries(rows)
}

// TopN ranks a community by the given key, descending, ties broken by
// insertion order. The average key only considers members with at least
// MinSessionsForAverage closed sessions.
func (r *LedgerRepository) TopN(ctx context.Context, communityID, key string, n int) ([]model.LedgerEntry, error) {
	var orderExpr string
	var filter string
	switch key {
	case model.RankOverall:
		orderExpr = "total_seconds"
	case model.RankWorkA:
		orderExpr = "work_seconds_a"
	case model.RankWorkB:
		orderExpr = "work_seconds_b"
	case model.RankSessions:
		orderExpr = "session_count"
	case model.RankAverage:
		orderExpr = "CAST(total_seconds AS REAL) / session_count"
		filter = fmt.Sprintf(" AND session_count >= %d", model.MinSessionsForAverage)
	default:
		return nil, fmt.Errorf("top n: unknown ranking key %q", key)
	}

	query := fmt.Sprintf(
		`SELECT community_id, member_id, total_seconds,
		        work_seconds_a, work_seconds_b, break_seconds_a, break_seconds_b,
		        session_count, updated_at
		 FROM ledger
		 WHERE community_id = ?%s
		 ORDER BY %s DESC, rowid ASC
		 LIMIT ?`,
		filter,
		orderExpr,
	)

	rows, err := r.db.QueryContext(ctx, query, communityID, n)
	if err != nil {
		return nil, fmt.Errorf("top n ledger: %w", err)
	}
	return collectLedgerEntries(rows)
}

// Clear removes every ledger row for the community. Irreversible.
func (r *LedgerRepository) Clear(ctx context.Context, communityID string) error {
	if _, err := r.db.ExecContext(
		ctx,
		`DELETE FROM ledger WHERE community_id = ?`,
		communityID,
	); err != nil {
		return fmt.Errorf("clear ledger: %w", err)
	}
	return nil
}

func collectLedgerEntries(rows *sql.Rows) ([]model.LedgerEntry, error) {
	defer rows.Close()

	entries := make([]model.LedgerEntry, 0)
	for rows.Next() {
		entry, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(s scanner) (*model.LedgerEntry, error) {
	var entry model.LedgerEntry
	var updatedAt string
	err := s.Scan(
		&entry.CommunityID,
		&entry.MemberID,
		&entry.TotalSeconds,
		&entry.WorkSecondsA,
		&entry.WorkSecondsB,
		&entry.BreakSecondsA,
		&entry.BreakSecondsB,
		&entry.SessionCount,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse ledger updated_at: %w", err)
	}
	entry.UpdatedAt = parsedUpdatedAt

	return &entry, nil
}
