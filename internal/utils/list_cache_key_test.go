package utils

import (
	"testing"
	"time"

	"github.com/geocoder89/lostfound/internal/domain/item"
)

func TestBuildItemsListCacheKey(t *testing.T) {
	lost := item.StatusLost
	wallet := "Wallet"
	walletLower := "wallet"
	day := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	sameDay := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	base := BuildItemsListCacheKey(item.ListFilter{Limit: 20})

	tests := []struct {
		name     string
		a, b     item.ListFilter
		wantSame bool
	}{
		{"identical", item.ListFilter{Limit: 20}, item.ListFilter{Limit: 20}, true},
		{"limit_differs", item.ListFilter{Limit: 20}, item.ListFilter{Limit: 10}, false},
		{"offset_differs", item.ListFilter{Limit: 20}, item.ListFilter{Limit: 20, Offset: 5}, false},
		{"status_set", item.ListFilter{Limit: 20}, item.ListFilter{Limit: 20, Status: &lost}, false},
		{"category_case_matters", item.ListFilter{Category: &wallet}, item.ListFilter{Category: &walletLower}, false},
		{"category_not_confused_with_location", item.ListFilter{Category: &wallet}, item.ListFilter{Location: &wallet}, false},
		{"date_by_day", item.ListFilter{Date: &day}, item.ListFilter{Date: &sameDay}, true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			same := BuildItemsListCacheKey(tt.a) == BuildItemsListCacheKey(tt.b)
			if same != tt.wantSame {
				t.Fatalf("expected same=%v for %q vs %q", tt.wantSame, BuildItemsListCacheKey(tt.a), BuildItemsListCacheKey(tt.b))
			}
		})
	}

	if base == "" {
		t.Fatal("expected a non-empty key")
	}
}
