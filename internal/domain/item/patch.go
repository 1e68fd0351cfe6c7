package item

import (
	"encoding/json"
	"errors"
	"strings"
)

// Field records whether a JSON key was present and whether it was null.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a present, non-null field.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	if string(b) == "null" {
		f.Null = true
		return nil
	}
	return json.Unmarshal(b, &f.Value)
}

// Patch is a merge-patch over the mutable item fields. Keys outside this struct are
// ignored by the decoder, so owner and creation time can never be patched.
type Patch struct {
	Title       Field[string] `json:"title"`
	Description Field[string] `json:"description"`
	Status      Field[Status] `json:"status"`
	Category    Field[string] `json:"category"`
	Location    Field[string] `json:"location"`
	Date        Field[Date]   `json:"date"`
	ContactInfo Field[string] `json:"contactInfo"`
	ImageURL    Field[string] `json:"imageUrl"`
}

// Assignment is one column write produced from a Patch.
type Assignment struct {
	Column string
	Value  any // string, Status, time.Time or nil
}

func (p Patch) IsEmpty() bool {
	return len(p.Assignments()) == 0
}

func (p Patch) Validate() error {
	if p.Title.Set && (p.Title.Null || strings.TrimSpace(p.Title.Value) == "") {
		return errors.New("title must not be empty")
	}

	if p.Status.Set && (p.Status.Null || !p.Status.Value.IsValid()) {
		return errors.New("status must be one of lost, found")
	}

	if p.Date.Set && p.Date.Null {
		return errors.New("date must not be null")
	}

	if p.Date.Set {
		if err := ValidateDate(p.Date.Value.Time); err != nil {
			return err
		}
	}

	return nil
}

// Assignments lists the column writes for every present field, in a fixed order.
// Column names come only from this allow-list.
func (p Patch) Assignments() []Assignment {
	out := make([]Assignment, 0, 8)

	if p.Title.Set {
		out = append(out, Assignment{Column: "title", Value: p.Title.Value})
	}

	if p.Description.Set {
		// description is never null, clearing it means empty
		out = append(out, Assignment{Column: "description", Value: p.Description.Value})
	}

	if p.Status.Set {
		out = append(out, Assignment{Column: "status", Value: string(p.Status.Value)})
	}

	out = appendNullable(out, "category", p.Category)
	out = appendNullable(out, "location", p.Location)

	if p.Date.Set && !p.Date.Null {
		out = append(out, Assignment{Column: "date", Value: p.Date.Value.UTC()})
	}

	out = appendNullable(out, "contact_info", p.ContactInfo)
	out = appendNullable(out, "image_url", p.ImageURL)

	return out
}

func appendNullable(out []Assignment, column string, f Field[string]) []Assignment {
	if !f.Set {
		return out
	}

	if f.Null {
		return append(out, Assignment{Column: column, Value: nil})
	}

	return append(out, Assignment{Column: column, Value: f.Value})
}

// Apply returns a copy of it with the patch merged in.
func (p Patch) Apply(it Item) Item {
	if p.Title.Set {
		it.Title = p.Title.Value
	}
	if p.Description.Set {
		it.Description = p.Description.Value
	}
	if p.Status.Set {
		it.Status = p.Status.Value
	}
	if p.Category.Set {
		it.Category = nullableValue(p.Category)
	}
	if p.Location.Set {
		it.Location = nullableValue(p.Location)
	}
	if p.Date.Set && !p.Date.Null {
		it.Date = p.Date.Value.UTC()
	}
	if p.ContactInfo.Set {
		it.ContactInfo = nullableValue(p.ContactInfo)
	}
	if p.ImageURL.Set {
		it.ImageURL = nullableValue(p.ImageURL)
	}
	return it
}

func nullableValue(f Field[string]) *string {
	if f.Null {
		return nil
	}
	v := f.Value
	return &v
}
