package utils

import (
	"strconv"
	"time"

	"github.com/geocoder89/lostfound/internal/domain/item"
)

// BuildItemsListCacheKey renders a filter into a stable cache key. Values are kept
// verbatim because the store matches them case-sensitively.
func BuildItemsListCacheKey(filter item.ListFilter) string {
	s := ""
	if filter.Status != nil {
		s = string(*filter.Status)
	}
	c := ""
	if filter.Category != nil {
		c = strconv.Quote(*filter.Category)
	}
	l := ""
	if filter.Location != nil {
		l = strconv.Quote(*filter.Location)
	}
	d := ""
	if filter.Date != nil {
		d = filter.Date.UTC().Format(time.DateOnly)
	}

	return "items:list:v1:limit=" + strconv.Itoa(filter.Limit) +
		":offset=" + strconv.Itoa(filter.Offset) +
		":status=" + s +
		":category=" + c +
		":location=" + l +
		":date=" + d
}
