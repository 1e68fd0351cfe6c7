package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/lostfound/internal/domain/item"
	"github.com/geocoder89/lostfound/internal/domain/user"
	"github.com/geocoder89/lostfound/internal/security"
)

// memItems is an in-memory ItemStore. Any fn field overrides the default behavior.
type memItems struct {
	mu     sync.Mutex
	rows   map[int64]item.Item
	nextID int64

	listFn   func(ctx context.Context, filter item.ListFilter) ([]item.Item, error)
	getFn    func(ctx context.Context, id int64) (item.Item, error)
	createFn func(ctx context.Context, n item.NewItem) (int64, error)
	deleteFn func(ctx context.Context, id int64) (bool, error)

	listCalls int
}

func newMemItems() *memItems {
	return &memItems{rows: map[int64]item.Item{}}
}

func (m *memItems) List(ctx context.Context, filter item.ListFilter) ([]item.Item, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()

	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}

	return m.snapshot(filter), nil
}

// snapshot is the default List result, exposed so listFn overrides can wrap it.
func (m *memItems) snapshot(filter item.ListFilter) []item.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []item.Item{}
	for _, it := range m.rows {
		if filter.Status != nil && it.Status != *filter.Status {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (m *memItems) GetByID(ctx context.Context, id int64) (item.Item, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.rows[id]
	if !ok {
		return item.Item{}, item.ErrNotFound
	}
	return it, nil
}

func (m *memItems) Create(ctx context.Context, n item.NewItem) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, n)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	date := now
	if n.Date != nil {
		date = *n.Date
	}

	m.rows[m.nextID] = item.Item{
		ID:          m.nextID,
		Title:       n.Title,
		Description: n.Description,
		Status:      n.Status,
		Category:    n.Category,
		Location:    n.Location,
		Date:        date,
		ContactInfo: n.ContactInfo,
		ImageURL:    n.ImageURL,
		CreatedAt:   now,
		UserID:      n.UserID,
	}
	return m.nextID, nil
}

func (m *memItems) Update(_ context.Context, id int64, patch item.Patch) (item.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	it, ok := m.rows[id]
	if !ok {
		return item.Item{}, item.ErrNotFound
	}
	it = patch.Apply(it)
	m.rows[id] = it
	return it, nil
}

func (m *memItems) Delete(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[id]; !ok {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

type fakeUsers struct {
	findFn   func(ctx context.Context, username string) (user.User, error)
	createFn func(ctx context.Context, username, passwordHash, role string) (user.User, error)

	findCalls int
}

func (f *fakeUsers) FindByUsername(ctx context.Context, username string) (user.User, error) {
	f.findCalls++
	if f.findFn != nil {
		return f.findFn(ctx, username)
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsers) Create(ctx context.Context, username, passwordHash, role string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, username, passwordHash, role)
	}
	return user.User{ID: 1, Username: username, PasswordHash: passwordHash, Role: role}, nil
}

// plainHasher avoids bcrypt cost in tests.
type plainHasher struct{}

func (plainHasher) Hash(plain string) (string, error) { return "hashed:" + plain, nil }

func (plainHasher) Check(hash, plain string) error {
	if hash != "hashed:"+plain {
		return security.ErrPasswordMismatch
	}
	return nil
}

type fakeIssuer struct {
	subject int64
	role    string
}

func (f *fakeIssuer) Issue(subjectID int64, role string) (string, error) {
	f.subject, f.role = subjectID, role
	return "token-for-" + role, nil
}
