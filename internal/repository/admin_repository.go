package repository

import (
	"context"
	"database/sql"
	"fmt"

	"studytimer/backend/internal/model"
)

type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) Create(ctx context.Context, admin *model.Admin) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO admins (id, email, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		admin.ID,
		admin.Email,
		admin.PasswordHash,
		formatTime(admin.CreatedAt),
		formatTime(admin.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, created_at, updated_at
		 FROM admins
		 WHERE email = ?`,
		email,
	)
	return scanAdmin(row)
}

func (r *AdminRepository) GetByID(ctx context.Context, id string) (*model.Admin, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, email, password_hash, created_at, updated_at
		 FROM admins
		 WHERE id = ?`,
		id,
	)
	return scanAdmin(row)
}

func scanAdmin(s scanner) (*model.Admin, error) {
	var admin model.Admin
	var createdAt string
	var updatedAt string
	if err := s.Scan(&admin.ID, &admin.Email, &admin.PasswordHash, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan admin: %w", err)
	}

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse admin created_at: %w", err)
	}
	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse admin updated_at: %w", err)
	}
	admin.CreatedAt = parsedCreatedAt
	admin.UpdatedAt = parsedUpdatedAt

	return &admin, nil
}
