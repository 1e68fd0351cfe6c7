package item

import (
	"errors"
	"time"
)

type Status string

const (
	StatusLost  Status = "lost"
	StatusFound Status = "found"
)

func (s Status) IsValid() bool {
	return s == StatusLost || s == StatusFound
}

// DefaultLimit is the page size used when the caller does not provide one.
const DefaultLimit = 20

// Item is a lost or found report. UserID is the owner and never changes after creation.
type Item struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Category    *string   `json:"category"`
	Location    *string   `json:"location"`
	Date        time.Time `json:"date"`
	ContactInfo *string   `json:"contactInfo"`
	ImageURL    *string   `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	UserID      int64     `json:"userId"`
}

// NewItem carries the fields a store needs to insert a row.
// a nil Date means "use the creation time".
type NewItem struct {
	Title       string
	Description string
	Status      Status
	Category    *string
	Location    *string
	Date        *time.Time
	ContactInfo *string
	ImageURL    *string
	UserID      int64
}

// with pointers if optional, it will be nil
type ListFilter struct {
	Status   *Status
	Category *string
	Location *string
	Date     *time.Time // calendar day in UTC
	Limit    int
	Offset   int
}

var ErrNotFound = errors.New("item not found")

type CreateItemRequest struct {
	Title       string  `json:"title" binding:"required,max=200"`
	Description string  `json:"description" binding:"omitempty,max=2000"`
	Status      Status  `json:"status" binding:"required,oneof=lost found"`
	Category    *string `json:"category" binding:"omitempty,max=80"`
	Location    *string `json:"location" binding:"omitempty,max=200"`
	Date        *Date   `json:"date"`
	ContactInfo *string `json:"contactInfo" binding:"omitempty,max=200"`
	ImageURL    *string `json:"imageUrl" binding:"omitempty,max=2048"`
}

// ToNewItem maps the request onto an insertable item owned by ownerID.
func (r CreateItemRequest) ToNewItem(ownerID int64) NewItem {
	n := NewItem{
		Title:       r.Title,
		Description: r.Description,
		Status:      r.Status,
		Category:    emptyAsNil(r.Category),
		Location:    emptyAsNil(r.Location),
		ContactInfo: emptyAsNil(r.ContactInfo),
		ImageURL:    emptyAsNil(r.ImageURL),
		UserID:      ownerID,
	}

	if r.Date != nil {
		t := r.Date.UTC()
		n.Date = &t
	}

	return n
}

func emptyAsNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
