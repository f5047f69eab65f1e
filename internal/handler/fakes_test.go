package handler

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/restaurant-manager/internal/layout"
	"github.com/iliyamo/restaurant-manager/internal/model"
	"github.com/iliyamo/restaurant-manager/internal/repository"
	"github.com/iliyamo/restaurant-manager/internal/utils"
)

type fakeHalls struct {
	items     map[uint64]model.Hall
	nextID    uint64
	moved     int
	deleteErr error
}

func newFakeHalls(hs ...model.Hall) *fakeHalls {
	f := &fakeHalls{items: map[uint64]model.Hall{}, nextID: 100}
	for _, h := range hs {
		f.items[h.ID] = h
	}
	return f
}

func (f *fakeHalls) Create(_ context.Context, h *model.Hall) error {
	for _, cur := range f.items {
		if cur.OrganizationID == h.OrganizationID && cur.Name == h.Name {
			return repository.ErrHallNameExists
		}
	}
	f.nextID++
	h.ID = f.nextID
	f.items[h.ID] = *h
	return nil
}

func (f *fakeHalls) GetByIDAndOrg(_ context.Context, id, orgID uint64) (model.Hall, error) {
	h, ok := f.items[id]
	if !ok || h.OrganizationID != orgID {
		return model.Hall{}, repository.ErrHallNotFound
	}
	return h, nil
}

func (f *fakeHalls) ListByOrg(_ context.Context, orgID uint64) ([]model.Hall, error) {
	out := []model.Hall{}
	for _, h := range f.items {
		if h.OrganizationID == orgID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeHalls) Update(_ context.Context, h *model.Hall, _ layout.Metrics) (int, error) {
	if _, ok := f.items[h.ID]; !ok {
		return 0, repository.ErrHallNotFound
	}
	f.items[h.ID] = *h
	return f.moved, nil
}

func (f *fakeHalls) Delete(_ context.Context, id, orgID uint64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if h, ok := f.items[id]; !ok || h.OrganizationID != orgID {
		return repository.ErrHallNotFound
	}
	delete(f.items, id)
	return nil
}

type fakeTables struct {
	halls  *fakeHalls
	items  map[uint64]model.Table
	nextID uint64
	saved  [][]model.TablePosition
}

func newFakeTables(halls *fakeHalls, ts ...model.Table) *fakeTables {
	f := &fakeTables{halls: halls, items: map[uint64]model.Table{}, nextID: 100}
	for _, t := range ts {
		f.items[t.ID] = t
	}
	return f
}

func (f *fakeTables) inOrg(t model.Table, orgID uint64) bool {
	h, ok := f.halls.items[t.HallID]
	return ok && h.OrganizationID == orgID
}

func (f *fakeTables) ListByHall(_ context.Context, hallID, orgID uint64) ([]model.Table, error) {
	out := []model.Table{}
	for _, t := range f.items {
		if t.HallID == hallID && f.inOrg(t, orgID) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeTables) ListGrouped(ctx context.Context, orgID uint64) ([]model.HallTables, error) {
	halls, _ := f.halls.ListByOrg(ctx, orgID)
	out := make([]model.HallTables, 0, len(halls))
	for _, h := range halls {
		ts, _ := f.ListByHall(ctx, h.ID, orgID)
		out = append(out, model.HallTables{Hall: h, Tables: ts})
	}
	return out, nil
}

func (f *fakeTables) GetByIDAndOrg(_ context.Context, id, orgID uint64) (model.Table, error) {
	t, ok := f.items[id]
	if !ok || !f.inOrg(t, orgID) {
		return model.Table{}, repository.ErrTableNotFound
	}
	return t, nil
}

func (f *fakeTables) Create(_ context.Context, t *model.Table) error {
	for _, cur := range f.items {
		if cur.HallID == t.HallID && cur.TableNumber == t.TableNumber {
			return repository.ErrTableNumberExists
		}
	}
	f.nextID++
	t.ID = f.nextID
	f.items[t.ID] = *t
	return nil
}

func (f *fakeTables) Update(_ context.Context, t *model.Table) error {
	if _, ok := f.items[t.ID]; !ok {
		return repository.ErrTableNotFound
	}
	f.items[t.ID] = *t
	return nil
}

func (f *fakeTables) Delete(_ context.Context, id, orgID uint64) error {
	t, ok := f.items[id]
	if !ok || !f.inOrg(t, orgID) {
		return repository.ErrTableNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeTables) SavePositions(_ context.Context, hallID uint64, positions []model.TablePosition) error {
	for _, p := range positions {
		t, ok := f.items[p.ID]
		if !ok || t.HallID != hallID {
			return repository.ErrTableNotFound
		}
	}
	for _, p := range positions {
		t := f.items[p.ID]
		t.PosX, t.PosY = p.PosX, p.PosY
		f.items[p.ID] = t
	}
	f.saved = append(f.saved, positions)
	return nil
}

type fakeReservations struct {
	createErr error
	created   []model.Reservation
	filters   []repository.ReservationFilter
	items     map[uint64]model.Reservation
}

func (f *fakeReservations) Create(_ context.Context, res *model.Reservation) error {
	if f.createErr != nil {
		return f.createErr
	}
	res.ID = uint64(len(f.created) + 1)
	f.created = append(f.created, *res)
	return nil
}

func (f *fakeReservations) GetByIDAndOrg(_ context.Context, id, orgID uint64) (model.Reservation, error) {
	r, ok := f.items[id]
	if !ok || r.OrganizationID != orgID {
		return model.Reservation{}, repository.ErrReservationNotFound
	}
	return r, nil
}

func (f *fakeReservations) List(_ context.Context, _ uint64, fl repository.ReservationFilter) ([]model.Reservation, error) {
	f.filters = append(f.filters, fl)
	return []model.Reservation{}, nil
}

func (f *fakeReservations) UpdateStatus(ctx context.Context, id, orgID uint64, to string) (model.Reservation, error) {
	r, err := f.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return r, err
	}
	if !model.CanTransition(r.Status, to) {
		return r, repository.ErrInvalidTransition
	}
	r.Status = to
	f.items[id] = r
	return r, nil
}

func (f *fakeReservations) Delete(ctx context.Context, id, orgID uint64) error {
	if _, err := f.GetByIDAndOrg(ctx, id, orgID); err != nil {
		return err
	}
	delete(f.items, id)
	return nil
}

type fakeInventory struct {
	items map[uint64]model.InventoryItem
}

func (f *fakeInventory) List(_ context.Context, orgID uint64) ([]model.InventoryItem, error) {
	out := []model.InventoryItem{}
	for _, it := range f.items {
		if it.OrganizationID == orgID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeInventory) ListLow(ctx context.Context, orgID uint64) ([]model.InventoryItem, error) {
	all, _ := f.List(ctx, orgID)
	out := []model.InventoryItem{}
	for _, it := range all {
		if it.Low() {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeInventory) GetByIDAndOrg(_ context.Context, id, orgID uint64) (model.InventoryItem, error) {
	it, ok := f.items[id]
	if !ok || it.OrganizationID != orgID {
		return model.InventoryItem{}, repository.ErrInventoryItemNotFound
	}
	return it, nil
}

func (f *fakeInventory) Create(_ context.Context, it *model.InventoryItem) error {
	it.ID = uint64(len(f.items) + 1)
	f.items[it.ID] = *it
	return nil
}

func (f *fakeInventory) Update(_ context.Context, it *model.InventoryItem) error {
	f.items[it.ID] = *it
	return nil
}

func (f *fakeInventory) Delete(ctx context.Context, id, orgID uint64) error {
	if _, err := f.GetByIDAndOrg(ctx, id, orgID); err != nil {
		return err
	}
	delete(f.items, id)
	return nil
}

func (f *fakeInventory) Adjust(ctx context.Context, id, orgID, _ uint64, delta float64, _ *string) (before, after model.InventoryItem, err error) {
	before, err = f.GetByIDAndOrg(ctx, id, orgID)
	if err != nil {
		return before, after, err
	}
	if before.Quantity+delta < 0 {
		return before, after, repository.ErrInsufficientStock
	}
	after = before
	after.Quantity += delta
	f.items[id] = after
	return before, after, nil
}

func (f *fakeInventory) Movements(context.Context, uint64, uint64, int) ([]model.InventoryMovement, error) {
	return []model.InventoryMovement{}, nil
}

type fakeNotices struct {
	items []model.Notice
}

func (f *fakeNotices) List(_ context.Context, orgID uint64) ([]model.Notice, error) {
	return f.items, nil
}

func (f *fakeNotices) GetByIDAndOrg(_ context.Context, id, orgID uint64) (model.Notice, error) {
	for _, n := range f.items {
		if n.ID == id && n.OrganizationID == orgID {
			return n, nil
		}
	}
	return model.Notice{}, repository.ErrNoticeNotFound
}

func (f *fakeNotices) Create(_ context.Context, n *model.Notice) error {
	n.ID = uint64(len(f.items) + 1)
	f.items = append(f.items, *n)
	return nil
}

func (f *fakeNotices) Update(_ context.Context, n *model.Notice) error {
	for i := range f.items {
		if f.items[i].ID == n.ID {
			f.items[i] = *n
			return nil
		}
	}
	return repository.ErrNoticeNotFound
}

func (f *fakeNotices) Delete(ctx context.Context, id, orgID uint64) error {
	for i, n := range f.items {
		if n.ID == id && n.OrganizationID == orgID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return repository.ErrNoticeNotFound
}

type fakeUsers struct {
	byEmail map[string]model.User
	orgs    map[uint64]bool
	nextID  uint64
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]model.User{}, orgs: map[uint64]bool{}, nextID: 10}
}

func (f *fakeUsers) add(orgID uint64, email, password, role string) (uint64, error) {
	if _, ok := f.byEmail[email]; ok {
		return 0, repository.ErrEmailExists
	}
	hash, err := utils.HashPassword(password, 4)
	if err != nil {
		return 0, err
	}
	f.nextID++
	f.byEmail[email] = model.User{ID: f.nextID, OrganizationID: orgID, Email: email, PasswordHash: hash, Role: role, IsActive: true}
	return f.nextID, nil
}

func (f *fakeUsers) Create(_ context.Context, orgID uint64, email, password, role string, _ int) (uint64, error) {
	if !f.orgs[orgID] {
		return 0, repository.ErrOrganizationNotFound
	}
	return f.add(orgID, strings.ToLower(email), password, role)
}

func (f *fakeUsers) RegisterOwner(_ context.Context, _ string, email, password string, _ int) (uint64, uint64, error) {
	orgID := uint64(len(f.orgs) + 1)
	uid, err := f.add(orgID, strings.ToLower(email), password, model.RoleOwner)
	if err != nil {
		return 0, 0, err
	}
	f.orgs[orgID] = true
	return uid, orgID, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, sql.ErrNoRows
}

type fakeTokens struct {
	live       map[string]uint64
	revokedAll []uint64
}

func newFakeTokens() *fakeTokens { return &fakeTokens{live: map[string]uint64{}} }

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.live[hash] = userID
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	uid, ok := f.live[hash]
	if !ok {
		return 0, repository.ErrRefreshInvalid
	}
	return uid, nil
}

func (f *fakeTokens) RotateRefresh(_ context.Context, userID uint64, oldHash, newHash string, _ time.Time) error {
	if _, ok := f.live[oldHash]; !ok {
		return repository.ErrRefreshInvalid
	}
	delete(f.live, oldHash)
	f.live[newHash] = userID
	return nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	delete(f.live, hash)
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.revokedAll = append(f.revokedAll, userID)
	for h, uid := range f.live {
		if uid == userID {
			delete(f.live, h)
		}
	}
	return nil
}

type fakeOrgs struct{}

func (fakeOrgs) GetByID(_ context.Context, id uint64) (model.Organization, error) {
	return model.Organization{ID: id, Name: "Trattoria"}, nil
}

type published struct {
	kind    string
	orgID   uint64
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, kind string, orgID uint64, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{kind: kind, orgID: orgID, payload: payload})
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.kind
	}
	return out
}
