package handler

import (
	"context"
	"time"

	"github.com/iliyamo/restaurant-manager/internal/layout"
	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/repository"
)

// The interfaces below are the slices of the repositories each handler
// needs.  The *repository.XRepo types satisfy them.

type userStore interface {
	Create(ctx context.Context, orgID uint64, email, password, role string, cost int) (uint64, error)
	RegisterOwner(ctx context.Context, orgName, email, password string, cost int) (uid, orgID uint64, err error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

type tokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RotateRefresh(ctx context.Context, userID uint64, oldHash, newHash string, exp time.Time) error
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

type organizationStore interface {
	GetByID(ctx context.Context, id uint64) (model.Organization, error)
}

type hallStore interface {
	Create(ctx context.Context, h *model.Hall) error
	GetByIDAndOrg(ctx context.Context, id, orgID uint64) (model.Hall, error)
	ListByOrg(ctx context.Context, orgID uint64) ([]model.Hall, error)
	Update(ctx context.Context, h *model.Hall, m layout.Metrics) (int, error)
	Delete(ctx context.Context, id, orgID uint64) error
}

type tableStore interface {
	ListByHall(ctx context.Context, hallID, orgID uint64) ([]model.Table, error)
	ListGrouped(ctx context.Context, orgID uint64) ([]model.HallTables, error)
	GetByIDAndOrg(ctx context.Context, id, orgID uint64) (model.Table, error)
	Create(ctx context.Context, t *model.Table) error
	Update(ctx context.Context, t *model.Table) error
	Delete(ctx context.Context, id, orgID uint64) error
	SavePositions(ctx context.Context, hallID uint64, positions []model.TablePosition) error
}

type reservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByIDAndOrg(ctx context.Context, id, orgID uint64) (model.Reservation, error)
	List(ctx context.Context, orgID uint64, f repository.ReservationFilter) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, id, orgID uint64, to string) (model.Reservation, error)
	Delete(ctx context.Context, id, orgID uint64) error
}

type inventoryStore interface {
	List(ctx context.Context, orgID uint64) ([]model.InventoryItem, error)
	ListLow(ctx context.Context, orgID uint64) ([]model.InventoryItem, error)
	GetByIDAndOrg(ctx context.Context, id, orgID uint64) (model.InventoryItem, error)
	Create(ctx context.Context, it *model.InventoryItem) error
	Update(ctx context.Context, it *model.InventoryItem) error
	Delete(ctx context.Context, id, orgID uint64) error
	Adjust(ctx context.Context, id, orgID, userID uint64, delta float64, reason *string) (before, after model.InventoryItem, err error)
	Movements(ctx context.Context, id, orgID uint64, limit int) ([]model.InventoryMovement, error)
}

type noticeStore interface {
	List(ctx context.Context, orgID uint64) ([]model.Notice, error)
	GetByIDAndOrg(ctx context.Context, id, orgID uint64) (model.Notice, error)
	Create(ctx context.Context, n *model.Notice) error
	Update(ctx context.Context, n *model.Notice) error
	Delete(ctx context.Context, id, orgID uint64) error
}

var (
	_ userStore         = (*repository.UserRepo)(nil)
	_ tokenStore        = (*repository.TokenRepo)(nil)
	_ organizationStore = (*repository.OrganizationRepo)(nil)
	_ hallStore         = (*repository.HallRepo)(nil)
	_ tableStore        = (*repository.TableRepo)(nil)
	_ reservationStore  = (*repository.ReservationRepo)(nil)
	_ inventoryStore    = (*repository.InventoryRepo)(nil)
	_ noticeStore       = (*repository.NoticeRepo)(nil)
)
