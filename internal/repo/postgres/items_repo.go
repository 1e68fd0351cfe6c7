package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/lostfound/internal/domain/item"
	"github.com/geocoder89/lostfound/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const itemColumns = `id, title, description, status, category, location, "date", contact_info, image_url, created_at, user_id`

// quoted where the column name is a keyword
var itemColumnSQL = map[string]string{
	"title":        "title",
	"description":  "description",
	"status":       "status",
	"category":     "category",
	"location":     "location",
	"date":         `"date"`,
	"contact_info": "contact_info",
	"image_url":    "image_url",
}

type ItemsRepo struct {
	pool    *pgxpool.Pool
	metrics *observability.Prom
	now     func() time.Time
}

// constructor function

func NewItemsRepo(pool *pgxpool.Pool, metrics *observability.Prom) *ItemsRepo {
	return &ItemsRepo{
		pool:    pool,
		metrics: metrics,
		now:     time.Now,
	}
}

func (r *ItemsRepo) List(ctx context.Context, filter item.ListFilter) ([]item.Item, error) {
	var conds []string
	var args []interface{}

	argsPosition := 1

	// filtered conditional checks.
	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*filter.Status))
		argsPosition++
	}

	if filter.Category != nil {
		conds = append(conds, fmt.Sprintf("category = $%d", argsPosition))
		args = append(args, *filter.Category)
		argsPosition++
	}

	if filter.Location != nil {
		conds = append(conds, fmt.Sprintf("location = $%d", argsPosition))
		args = append(args, *filter.Location)
		argsPosition++
	}

	// same calendar day, as a half-open range so the date index is usable
	if filter.Date != nil {
		start, end := item.DayBounds(*filter.Date)
		conds = append(conds, fmt.Sprintf(`"date" >= $%d AND "date" < $%d`, argsPosition, argsPosition+1))
		args = append(args, start, end)
		argsPosition += 2
	}

	query := "SELECT " + itemColumns + " FROM items"

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// newest first; id breaks ties between rows created in the same instant
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, pgLimit(filter.Limit), max(filter.Offset, 0))

	output := make([]item.Item, 0)

	err := r.metrics.ObserveDB("items.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			it, err := scanItem(rows)
			if err != nil {
				return err
			}

			output = append(output, it)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	return output, nil
}

func (r *ItemsRepo) GetByID(ctx context.Context, id int64) (item.Item, error) {
	var it item.Item

	err := r.metrics.ObserveDB("items.get", func() error {
		var err error
		it, err = scanItem(r.pool.QueryRow(ctx, "SELECT "+itemColumns+" FROM items WHERE id = $1", id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return item.Item{}, item.ErrNotFound
		}
		return item.Item{}, fmt.Errorf("getting item: %w", err)
	}

	return it, nil
}

func (r *ItemsRepo) Create(ctx context.Context, n item.NewItem) (int64, error) {
	createdAt := r.now().UTC()

	date := createdAt
	if n.Date != nil {
		date = n.Date.UTC()
	}

	var id int64

	err := r.metrics.ObserveDB("items.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO items (title, description, status, category, location, "date", contact_info, image_url, created_at, user_id)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			RETURNING id`,
			n.Title, n.Description, string(n.Status), n.Category, n.Location, date, n.ContactInfo, n.ImageURL, createdAt, n.UserID,
		).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	return id, nil
}

// Update writes only the fields present in the patch. An empty patch returns the current row.
func (r *ItemsRepo) Update(ctx context.Context, id int64, patch item.Patch) (item.Item, error) {
	assignments := patch.Assignments()

	if len(assignments) == 0 {
		return r.GetByID(ctx, id)
	}

	sets := make([]string, 0, len(assignments))
	args := make([]interface{}, 0, len(assignments)+1)

	for i, a := range assignments {
		col, ok := itemColumnSQL[a.Column]
		if !ok {
			return item.Item{}, fmt.Errorf("updating item: column %q is not patchable", a.Column)
		}

		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, a.Value)
	}

	args = append(args, id)

	query := fmt.Sprintf("UPDATE items SET %s WHERE id = $%d RETURNING %s", strings.Join(sets, ", "), len(args), itemColumns)

	var it item.Item

	err := r.metrics.ObserveDB("items.update", func() error {
		var err error
		it, err = scanItem(r.pool.QueryRow(ctx, query, args...))
		return err
	})
	if err != nil {
		// if there are no rows matching the id
		if errors.Is(err, pgx.ErrNoRows) {
			return item.Item{}, item.ErrNotFound
		}
		return item.Item{}, fmt.Errorf("updating item: %w", err)
	}

	return it, nil
}

// Delete removes the row. Deleting a missing id is not an error; deleted reports whether a row went away.
func (r *ItemsRepo) Delete(ctx context.Context, id int64) (bool, error) {
	var affected int64

	err := r.metrics.ObserveDB("items.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}

	return affected > 0, nil
}

func scanItem(row pgx.Row) (item.Item, error) {
	var it item.Item
	var status string

	err := row.Scan(
		&it.ID,
		&it.Title,
		&it.Description,
		&status,
		&it.Category,
		&it.Location,
		&it.Date,
		&it.ContactInfo,
		&it.ImageURL,
		&it.CreatedAt,
		&it.UserID,
	)
	if err != nil {
		return item.Item{}, err
	}

	it.Status = item.Status(status)
	it.Date = it.Date.UTC()
	it.CreatedAt = it.CreatedAt.UTC()

	return it, nil
}

// pgLimit maps a negative limit to LIMIT ALL, which is what SQLite does with one.
func pgLimit(limit int) *int {
	if limit < 0 {
		return nil
	}
	return &limit
}
