package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/restaurant-manager/internal/database"
	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/utils"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,organization_id,email,password_hash,role,is_active,created_at,updated_at"

func scanUser(row interface{ Scan(...any) error }, u *model.User) error {
	return row.Scan(&u.ID, &u.OrganizationID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
}

// Create inserts a user into an existing organization and returns its ID.
func (r *UserRepo) Create(ctx context.Context, orgID uint64, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	var exists int
	err = r.DB.QueryRowContext(ctx, "SELECT 1 FROM organizations WHERE id=?", orgID).Scan(&exists)
	if err != nil {
		return 0, notFound(err, ErrOrganizationNotFound)
	}
	return insertUser(ctx, r.DB, orgID, email, hash, role)
}

// RegisterOwner creates an organization and its first OWNER in a single
// transaction and returns the new user and organization IDs.
func (r *UserRepo) RegisterOwner(ctx context.Context, orgName, email, password string, cost int) (uid, orgID uint64, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, 0, err
	}
	err = inTx(ctx, r.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "INSERT INTO organizations (name) VALUES (?)", strings.TrimSpace(orgName))
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		orgID = uint64(id)
		uid, err = insertUser(ctx, tx, orgID, email, hash, model.RoleOwner)
		return err
	})
	if err != nil {
		return 0, 0, err
	}
	return uid, orgID, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertUser(ctx context.Context, db execer, orgID uint64, email, hash, role string) (uint64, error) {
	res, err := db.ExecContext(ctx,
		"INSERT INTO users (organization_id, email, password_hash, role) VALUES (?,?,?,?)",
		orgID, email, hash, role)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email), &u)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id), &u)
	return u, err
}
