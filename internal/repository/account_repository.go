package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/idp-session-api/internal/models"
)

// AccountRepository provides database access to the person and account
// directory plus role definitions.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new instance of AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindPerson returns a person by identifier.
func (r *AccountRepository) FindPerson(ctx context.Context, id string) (*models.Person, error) {
	const query = `SELECT id, display_name, status, created_at, updated_at FROM persons WHERE id = $1 LIMIT 1`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find person by id: %w", err)
	}
	return &person, nil
}

// FindAccount returns an account by identifier.
func (r *AccountRepository) FindAccount(ctx context.Context, id string) (*models.Account, error) {
	const query = `SELECT id, person_id, email, active, created_at, updated_at FROM accounts WHERE id = $1 LIMIT 1`
	var account models.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find account by id: %w", err)
	}
	return &account, nil
}

// ListAccountsByPerson returns every account owned by a person.
func (r *AccountRepository) ListAccountsByPerson(ctx context.Context, personID string) ([]models.Account, error) {
	const query = `SELECT id, person_id, email, active, created_at, updated_at FROM accounts WHERE person_id = $1 ORDER BY created_at`
	accounts := []models.Account{}
	if err := r.db.SelectContext(ctx, &accounts, query, personID); err != nil {
		return nil, fmt.Errorf("list accounts by person: %w", err)
	}
	return accounts, nil
}

// FindRole returns a role and its permission set.
func (r *AccountRepository) FindRole(ctx context.Context, id string) (*models.Role, error) {
	const query = `SELECT id, name, permissions, created_at, updated_at FROM roles WHERE id = $1 LIMIT 1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find role by id: %w", err)
	}
	return &role, nil
}
