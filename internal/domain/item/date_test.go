package item

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{"day", "2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{"rfc3339_offset_to_utc", "2024-05-01T23:30:00-02:00", time.Date(2024, 5, 2, 1, 30, 0, 0, time.UTC), false},
		{"lower_bound", "1900-01-01", MinDate, false},
		{"zero_year", "0001-01-01", time.Time{}, true},
		{"before_lower_bound", "1899-12-31", time.Time{}, true},
		{"upper_bound_excluded", "2200-01-01", time.Time{}, true},
		{"garbage", "yesterday", time.Time{}, true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDate) {
					t.Fatalf("expected ErrInvalidDate, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate: %v", err)
			}
			if !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateItemRequest_ZeroDateIsRejectedNotDefaulted(t *testing.T) {
	var req CreateItemRequest
	err := json.Unmarshal([]byte(`{"title":"Wallet","status":"lost","date":"0001-01-01"}`), &req)
	if !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestCreateItemRequest_ToNewItemKeepsExplicitDate(t *testing.T) {
	day := Date{Time: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	n := CreateItemRequest{Title: "Wallet", Status: StatusLost, Date: &day}.ToNewItem(7)

	if n.Date == nil || !n.Date.Equal(day.Time) {
		t.Fatalf("expected explicit date to be kept, got %v", n.Date)
	}
	if n.UserID != 7 {
		t.Fatalf("expected owner 7, got %d", n.UserID)
	}

	if n := (CreateItemRequest{Title: "Wallet", Status: StatusLost}).ToNewItem(7); n.Date != nil {
		t.Fatalf("expected nil date to defer to creation time, got %v", n.Date)
	}
}
