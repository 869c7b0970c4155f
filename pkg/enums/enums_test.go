package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		allowed  bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, OrderStatusShipped, status)

	_, err = ParseOrderStatus("lost")
	require.Error(t, err)
}

func TestParseCatalogSortDefaultsToName(t *testing.T) {
	sort, err := ParseCatalogSort("")
	require.NoError(t, err)
	assert.Equal(t, CatalogSortName, sort)

	sort, err = ParseCatalogSort(" Price ")
	require.NoError(t, err)
	assert.Equal(t, CatalogSortPrice, sort)

	_, err = ParseCatalogSort("popularity")
	require.Error(t, err)
}

func TestParseSortDirection(t *testing.T) {
	dir, err := ParseSortDirection("")
	require.NoError(t, err)
	assert.Equal(t, SortDirectionAsc, dir)

	dir, err = ParseSortDirection("DESC")
	require.NoError(t, err)
	assert.Equal(t, SortDirectionDesc, dir)

	_, err = ParseSortDirection("sideways")
	require.Error(t, err)
}

func TestDeliveryMethodAndRole(t *testing.T) {
	assert.True(t, DeliveryMethodExpress.IsValid())
	assert.False(t, DeliveryMethod("drone").IsValid())

	_, err := ParseDeliveryMethod("pigeon")
	require.Error(t, err)

	role, err := ParseAccountRole("admin")
	require.NoError(t, err)
	assert.Equal(t, AccountRoleAdmin, role)
	assert.False(t, AccountRole("root").IsValid())
}
