package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListParams_Normalized(t *testing.T) {
	p := ListParams{Page: -3, PageSize: 0, Search: "  cards "}.normalized()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, "cards", p.Search)
	assert.Equal(t, 0, p.offset())

	p = ListParams{Page: 3, PageSize: 500}.normalized()
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, 200, p.offset())
}

func TestListParams_OrderClauseUsesWhitelist(t *testing.T) {
	allowed := map[string]string{"name": "lower(name)"}

	assert.Equal(t, "ORDER BY lower(name) DESC, id", ListParams{SortBy: "name", SortDesc: true}.orderClause(allowed, "id"))
	assert.Equal(t, "ORDER BY id", ListParams{SortBy: "name; DROP TABLE customers"}.orderClause(allowed, "id"))
}

func TestOrderStatus_Valid(t *testing.T) {
	for _, s := range []OrderStatus{StatusPending, StatusDesign, StatusPrinting, StatusDelivered} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, OrderStatus("pending").Valid())
	assert.False(t, OrderStatus("").Valid())
}
