package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"studytimer/backend/internal/model"
)

// ErrDuplicateParticipant reports a join that raced another join for the
// same member; the participants primary key enforces the one-row invariant.
var ErrDuplicateParticipant = fmt.Errorf("participant already exists")

type ParticipantRepository struct {
	db *sql.DB
}

func NewParticipantRepository(db *sql.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

func (r *ParticipantRepository) Insert(ctx context.Context, p *model.Participant) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO participants (community_id, member_id, mode, joined_at, credited_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.CommunityID,
		p.MemberID,
		p.Mode,
		formatTime(p.JoinedAt),
		formatTime(p.CreditedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateParticipant
		}
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

func (r *ParticipantRepository) Get(ctx context.Context, communityID, memberID string) (*model.Participant, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT community_id, member_id, mode, joined_at, credited_at
		 FROM participants
		 WHERE community_id = ? AND member_id = ?`,
		communityID,
		memberID,
	)
	return scanParticipant(row)
}

func (r *ParticipantRepository) Delete(ctx context.Context, communityID, memberID string) error {
	result, err := r.db.ExecContext(
		ctx,
		`DELETE FROM participants WHERE community_id = ? AND member_id = ?`,
		communityID,
		memberID,
	)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete participant rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ParticipantRepository) ListByMode(ctx context.Context, communityID, mode string) ([]model.Participant, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT community_id, member_id, mode, joined_at, credited_at
		 FROM participants
		 WHERE community_id = ? AND mode = ?
		 ORDER BY rowid`,
		communityID,
		mode,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants by mode: %w", err)
	}
	return collectParticipants(rows)
}

func (r *ParticipantRepository) ListByCommunity(ctx context.Context, communityID string) ([]model.Participant, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT community_id, member_id, mode, joined_at, credited_at
		 FROM participants
		 WHERE community_id = ?
		 ORDER BY rowid`,
		communityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants by community: %w", err)
	}
	return collectParticipants(rows)
}

// ListAll returns every open session across all communities. The scheduler
// uses it to rebuild its in-memory phase state on startup and to group
// active members on every tick.
func (r *ParticipantRepository) ListAll(ctx context.Context) ([]model.Participant, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT community_id, member_id, mode, joined_at, credited_at
		 FROM participants
		 ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return collectParticipants(rows)
}

// MarkModeCredited advances the credited_at watermark for every member of a
// mode after a scheduler boundary credit, so a later leave only credits the
// span since the boundary.
func (r *ParticipantRepository) MarkModeCredited(ctx context.Context, communityID, mode string, at time.Time) error {
	_, err := r.db.ExecContext(
		ctx,
		`UPDATE participants SET credited_at = ? WHERE community_id = ? AND mode = ?`,
		formatTime(at),
		communityID,
		mode,
	)
	if err != nil {
		return fmt.Errorf("mark mode credited: %w", err)
	}
	return nil
}

func collectParticipants(rows *sql.Rows) ([]model.Participant, error) {
	defer rows.Close()

	participants := make([]model.Participant, 0)
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		participants = append(participants, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}
	return participants, nil
}

func scanParticipant(s scanner) (*model.Participant, error) {
	var p model.Participant
	var joinedAt string
	var creditedAt string
	err := s.Scan(&p.CommunityID, &p.MemberID, &p.Mode, &joinedAt, &creditedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan participant: %w", err)
	}

	parsedJoinedAt, err := parseTime(joinedAt)
	if err != nil {
		return nil, fmt.Errorf("parse participant joined_at: %w", err)
	}
	p.JoinedAt = parsedJoinedAt

	parsedCreditedAt, err := parseTime(creditedAt)
	if err != nil {
		return nil, fmt.Errorf("parse participant credited_at: %w", err)
	}
	p.CreditedAt = parsedCreditedAt

	return &p, nil
}
