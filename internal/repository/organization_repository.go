package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-manager/internal/model"
)

// OrganizationRepo reads organizations.  Owner registration creates them
// through UserRepo.RegisterOwner so that both rows land in one transaction.
type OrganizationRepo struct{ DB *sql.DB }

func NewOrganizationRepo(db *sql.DB) *OrganizationRepo { return &OrganizationRepo{DB: db} }

// GetByID returns ErrOrganizationNotFound when no row matches.
func (r *OrganizationRepo) GetByID(ctx context.Context, id uint64) (model.Organization, error) {
	var o model.Organization
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,name,created_at,updated_at FROM organizations WHERE id=? LIMIT 1",
		id).Scan(&o.ID, &o.Name, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return model.Organization{}, notFound(err, ErrOrganizationNotFound)
	}
	return o, nil
}
