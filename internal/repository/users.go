package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/event-participation/internal/model"
)

// CreateUser inserts a user. Reusing an email returns ErrDuplicate.
func (p *Postgres) CreateUser(ctx context.Context, u *model.User) error {
	_, err := p.q(ctx).Exec(ctx,
		`INSERT INTO users (id, name, email, created_at) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Name, u.Email, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser returns a single user or ErrNotFound.
func (p *Postgres) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := p.q(ctx).QueryRow(ctx,
		`SELECT id, name, email, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

// ListUsers returns users, optionally restricted to ids, oldest first.
func (p *Postgres) ListUsers(ctx context.Context, ids []string, page model.Page) ([]model.User, error) {
	rows, err := p.q(ctx).Query(ctx,
		`SELECT id, name, email, created_at
		 FROM users
		 WHERE ($1::text[] IS NULL OR id = ANY($1))
		 ORDER BY created_at ASC, id ASC
		 OFFSET $2 LIMIT $3`,
		nullable(ids), page.From, limit(page.Size),
	)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt = u.CreatedAt.UTC()
		users = append(users, u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user; their events and requests cascade.
func (p *Postgres) DeleteUser(ctx context.Context, id string) error {
	tag, err := p.q(ctx).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
