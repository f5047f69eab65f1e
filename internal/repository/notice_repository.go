package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/restaurant-manager/internal/model"
)

// NoticeRepo stores staff board notices.
type NoticeRepo struct {
	db *sql.DB
}

func NewNoticeRepo(db *sql.DB) *NoticeRepo { return &NoticeRepo{db: db} }

const noticeColumns = "id, organization_id, author_id, title, body, pinned, created_at, updated_at"

func scanNotice(row interface{ Scan(...any) error }) (model.Notice, error) {
	var n model.Notice
	err := row.Scan(&n.ID, &n.OrganizationID, &n.AuthorID, &n.Title, &n.Body, &n.Pinned, &n.CreatedAt, &n.UpdatedAt)
	return n, err
}

// List returns pinned notices first, then the rest, newest first.
func (r *NoticeRepo) List(ctx context.Context, orgID uint64) ([]model.Notice, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+noticeColumns+" FROM notices WHERE organization_id = ? ORDER BY pinned DESC, created_at DESC, id DESC", orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Notice{}
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetByIDAndOrg returns ErrNoticeNotFound when no row matches.
func (r *NoticeRepo) GetByIDAndOrg(ctx context.Context, id, orgID uint64) (model.Notice, error) {
	n, err := scanNotice(r.db.QueryRowContext(ctx,
		"SELECT "+noticeColumns+" FROM notices WHERE id = ? AND organization_id = ?", id, orgID))
	if err != nil {
		return model.Notice{}, notFound(err, ErrNoticeNotFound)
	}
	return n, nil
}

// Create inserts n and reads the stored row back.
func (r *NoticeRepo) Create(ctx context.Context, n *model.Notice) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO notices (organization_id, author_id, title, body, pinned) VALUES (?, ?, ?, ?, ?)",
		n.OrganizationID, n.AuthorID, n.Title, n.Body, n.Pinned)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	got, err := r.GetByIDAndOrg(ctx, uint64(id), n.OrganizationID)
	if err != nil {
		return err
	}
	*n = got
	return nil
}

// Update writes title, body and pinned.
func (r *NoticeRepo) Update(ctx context.Context, n *model.Notice) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE notices SET title = ?, body = ?, pinned = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND organization_id = ?",
		n.Title, n.Body, n.Pinned, n.ID, n.OrganizationID)
	if err != nil {
		return err
	}
	if c, _ := res.RowsAffected(); c == 0 {
		if _, err := r.GetByIDAndOrg(ctx, n.ID, n.OrganizationID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a notice.
func (r *NoticeRepo) Delete(ctx context.Context, id, orgID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM notices WHERE id = ? AND organization_id = ?", id, orgID)
	if err != nil {
		return err
	}
	if c, _ := res.RowsAffected(); c == 0 {
		return ErrNoticeNotFound
	}
	return nil
}
