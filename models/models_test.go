package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventStatus_Valid(t *testing.T) {
	for _, status := range []EventStatus{"UPCOMING", "ONGOING", "COMPLETED"} {
		assert.True(t, status.Valid(), status)
	}

	for _, status := range []EventStatus{"", "upcoming", "CANCELLED"} {
		assert.False(t, status.Valid(), status)
	}
}

func TestEventCategory_Valid(t *testing.T) {
	assert.True(t, CategoryWorkshop.Valid())
	assert.True(t, CategorySeminar.Valid())
	assert.False(t, EventCategory("workshop").Valid())
	assert.False(t, EventCategory("").Valid())
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		value    string
		expected Role
	}{
		{"ADMIN", RoleAdmin},
		{"EDITOR", RoleEditor},
		{"VISITOR", RoleVisitor},
		{"", RoleVisitor},
		{"admin", RoleVisitor},
		{"ROOT", RoleVisitor},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseRole(tt.value))
		})
	}
}

func TestRole_CanManageEvents(t *testing.T) {
	assert.True(t, RoleAdmin.CanManageEvents())
	assert.True(t, RoleEditor.CanManageEvents())
	assert.False(t, RoleVisitor.CanManageEvents())
	assert.False(t, Role("").CanManageEvents())
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		total      int64
		limit      int
		totalPages int
	}{
		{"empty", 0, 10, 0},
		{"exact fit", 20, 10, 2},
		{"partial last page", 21, 10, 3},
		{"single row", 1, 10, 1},
		{"limit of one", 7, 1, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, 1, tt.limit)
			assert.Equal(t, tt.totalPages, p.TotalPages)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.limit, p.Limit)
		})
	}
}

func TestEvent_JSONShape(t *testing.T) {
	date := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	event := Event{
		ID:       "evt1",
		Name:     "Tech Conference",
		Category: CategoryConference,
		Status:   EventStatusUpcoming,
		Date:     date,
		Author:   &UserSummary{ID: "u1", Name: "Editor"},
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "CONFERENCE", raw["category"])
	assert.Nil(t, raw["registrationDeadline"])
	assert.NotContains(t, raw, "registrations")

	author, ok := raw["author"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, author, "email")
}

func TestEventStats_AverageSerializedAsDecimal(t *testing.T) {
	stats := EventStats{
		Overview: StatsOverview{
			TotalEvents:          3,
			TotalRegistrations:   4,
			AverageRegistrations: decimal.NewFromInt(4).Div(decimal.NewFromInt(3)).Round(2),
		},
	}

	data, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"averageRegistrations":"1.33"`)
}
