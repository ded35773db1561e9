package search

import (
	"strings"

	"github.com/Domenick1991/flightsearch/internal/apperr"
	"github.com/Domenick1991/flightsearch/internal/domain"
	"github.com/Domenick1991/flightsearch/internal/query"
)

var sortFields = map[domain.SortKey]query.Field{
	domain.SortSeatPrice:     FieldSeatPrice,
	domain.SortDepartureTime: FieldDepartureTime,
}

// ResolveSort maps a sort key and order onto a field sort. An empty key
// yields nil (storage default order); an empty order falls back to def.
func ResolveSort(key domain.SortKey, order, def domain.Order) (*query.Sort, error) {
	if order == "" {
		order = def
	}
	desc := false
	switch domain.Order(strings.ToUpper(string(order))) {
	case domain.OrderAsc:
	case domain.OrderDesc:
		desc = true
	default:
		return nil, apperr.BadRequest("order must be ASC or DESC")
	}
	if key == "" {
		return nil, nil
	}
	field, ok := sortFields[key]
	if !ok {
		return nil, apperr.BadRequest("sort must be seatPrice or departureTime")
	}
	return &query.Sort{Field: field, Desc: desc}, nil
}
