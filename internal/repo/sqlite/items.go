// Package sqlite is the embedded storage backend. Timestamps are stored as
// INTEGER unix nanoseconds in UTC so ordering and day ranges are plain integer comparisons.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/lostfound/internal/domain/item"
	"github.com/geocoder89/lostfound/internal/observability"
)

const itemColumns = `id, title, description, status, category, location, date, contact_info, image_url, created_at, user_id`

var patchableColumns = map[string]bool{
	"title":        true,
	"description":  true,
	"status":       true,
	"category":     true,
	"location":     true,
	"date":         true,
	"contact_info": true,
	"image_url":    true,
}

type ItemsRepo struct {
	db      *sql.DB
	metrics *observability.Prom
	now     func() time.Time
}

func NewItemsRepo(db *sql.DB, metrics *observability.Prom) *ItemsRepo {
	return &ItemsRepo{db: db, metrics: metrics, now: time.Now}
}

// List returns items matching every provided filter, newest first.
func (r *ItemsRepo) List(ctx context.Context, filter item.ListFilter) ([]item.Item, error) {
	var conds []string
	var args []any

	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.Category != nil {
		conds = append(conds, "category = ?")
		args = append(args, *filter.Category)
	}
	if filter.Location != nil {
		conds = append(conds, "location = ?")
		args = append(args, *filter.Location)
	}
	if filter.Date != nil {
		start, end := item.DayBounds(*filter.Date)
		conds = append(conds, "date >= ? AND date < ?")
		args = append(args, start.UnixNano(), end.UnixNano())
	}

	query := "SELECT " + itemColumns + " FROM items"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, filter.Limit, filter.Offset)

	items := make([]item.Item, 0)

	err := r.metrics.ObserveDB("items.list", func() error {
		rows, err := r.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			it, err := scanItem(rows)
			if err != nil {
				return err
			}
			items = append(items, it)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return items, nil
}

// GetByID returns an item by ID.
func (r *ItemsRepo) GetByID(ctx context.Context, id int64) (item.Item, error) {
	var it item.Item
	err := r.metrics.ObserveDB("items.get", func() error {
		var err error
		it, err = scanItem(r.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE id = ?", id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return item.Item{}, item.ErrNotFound
	}
	if err != nil {
		return item.Item{}, fmt.Errorf("getting item: %w", err)
	}
	return it, nil
}

// Create inserts an item and returns its id. Date defaults to the creation time.
func (r *ItemsRepo) Create(ctx context.Context, n item.NewItem) (int64, error) {
	createdAt := r.now().UTC()

	date := createdAt
	if n.Date != nil {
		date = n.Date.UTC()
	}
	if err := item.ValidateDate(date); err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	var id int64
	err := r.metrics.ObserveDB("items.create", func() error {
		result, err := r.db.ExecContext(ctx,
			`INSERT INTO items (title, description, status, category, location, date, contact_info, image_url, created_at, user_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.Title, n.Description, string(n.Status), n.Category, n.Location, date.UnixNano(),
			n.ContactInfo, n.ImageURL, createdAt.UnixNano(), n.UserID,
		)
		if err != nil {
			return err
		}

		id, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}
	return id, nil
}

// Update applies the present patch fields and returns the updated item.
func (r *ItemsRepo) Update(ctx context.Context, id int64, patch item.Patch) (item.Item, error) {
	assignments := patch.Assignments()
	if len(assignments) == 0 {
		return r.GetByID(ctx, id)
	}

	sets := make([]string, 0, len(assignments))
	args := make([]any, 0, len(assignments)+1)

	for _, a := range assignments {
		if !patchableColumns[a.Column] {
			return item.Item{}, fmt.Errorf("updating item: column %q is not patchable", a.Column)
		}

		sets = append(sets, a.Column+" = ?")

		// unix nanoseconds only cover 1678 to 2262
		if t, ok := a.Value.(time.Time); ok {
			if err := item.ValidateDate(t); err != nil {
				return item.Item{}, fmt.Errorf("updating item: %w", err)
			}
			args = append(args, t.UTC().UnixNano())
			continue
		}
		args = append(args, a.Value)
	}
	args = append(args, id)

	var n int64
	err := r.metrics.ObserveDB("items.update", func() error {
		result, err := r.db.ExecContext(ctx,
			"UPDATE items SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return err
		}

		n, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return item.Item{}, fmt.Errorf("updating item: %w", err)
	}
	if n == 0 {
		return item.Item{}, item.ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes an item. A missing id is not an error.
func (r *ItemsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var n int64
	err := r.metrics.ObserveDB("items.delete", func() error {
		result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
		if err != nil {
			return err
		}

		n, err = result.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (item.Item, error) {
	var it item.Item
	var status string
	var category, location, contactInfo, imageURL sql.NullString
	var date, createdAt int64

	err := row.Scan(&it.ID, &it.Title, &it.Description, &status, &category, &location,
		&date, &contactInfo, &imageURL, &createdAt, &it.UserID)
	if err != nil {
		return item.Item{}, err
	}

	it.Status = item.Status(status)
	it.Category = nullString(category)
	it.Location = nullString(location)
	it.ContactInfo = nullString(contactInfo)
	it.ImageURL = nullString(imageURL)
	it.Date = time.Unix(0, date).UTC()
	it.CreatedAt = time.Unix(0, createdAt).UTC()

	return it, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
