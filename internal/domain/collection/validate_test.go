package collection

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"greenkeep/internal/domain/record"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		collection string
		data       map[string]any
		mode       Mode
		wantFields []string
	}{
		{
			name:       "valid zone",
			collection: Zones,
			data:       map[string]any{"name": "Green 7", "type": "green", "holeNumber": float64(7), "health": "good"},
			mode:       Full,
		},
		{
			name:       "zone without required fields",
			collection: Zones,
			data:       map[string]any{"notes": "x"},
			mode:       Full,
			wantFields: []string{"name", "type"},
		},
		{
			name:       "partial update skips required",
			collection: Zones,
			data:       map[string]any{"health": "poor"},
			mode:       Partial,
		},
		{
			name:       "hole number out of range",
			collection: Zones,
			data:       map[string]any{"holeNumber": 37},
			mode:       Partial,
			wantFields: []string{"holeNumber"},
		},
		{
			name:       "bad enum",
			collection: Tasks,
			data:       map[string]any{"priority": "asap"},
			mode:       Partial,
			wantFields: []string{"priority"},
		},
		{
			name:       "valid task",
			collection: Tasks,
			data: map[string]any{
				"title":         "Mow fairway 3",
				"type":          "mowing",
				"scheduledDate": "2024-05-01",
				"scheduledTime": "06:30",
				"assigneeIds":   []any{"6f1c1f5e-8a57-4d0a-9d7b-0ad6f2a5a8f1"},
			},
			mode: Full,
		},
		{
			name:       "task with bad time and assignee",
			collection: Tasks,
			data:       map[string]any{"scheduledTime": "6:30am", "assigneeIds": []any{"bob"}},
			mode:       Partial,
			wantFields: []string{"assigneeIds", "scheduledTime"},
		},
		{
			name:       "negative stock",
			collection: InventoryItems,
			data:       map[string]any{"name": "Sand", "category": "sand", "unit": "kg", "currentStock": -1.5},
			mode:       Full,
			wantFields: []string{"currentStock"},
		},
		{
			name:       "nullable field accepts null",
			collection: Equipment,
			data:       map[string]any{"purchaseDate": nil},
			mode:       Partial,
		},
		{
			name:       "required field rejects null",
			collection: Equipment,
			data:       map[string]any{"name": nil},
			mode:       Partial,
			wantFields: []string{"name"},
		},
		{
			name:       "unknown fields pass through",
			collection: TeamMembers,
			data:       map[string]any{"userId": "6f1c1f5e-8a57-4d0a-9d7b-0ad6f2a5a8f1", "nickname": "Greeny"},
			mode:       Full,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.collection, tt.data, tt.mode)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, record.ErrInvalidData))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			got := make([]string, 0, len(verr.Fields))
			for _, f := range verr.Fields {
				got = append(got, f.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, got)
		})
	}
}

func TestValidateUnknownCollection(t *testing.T) {
	err := Validate("golfBalls", map[string]any{}, Full)
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"equipment", "inventoryItems", "tasks", "teamMembers", "zones"}, Names())
	assert.True(t, IsSyncable(Tasks))
	assert.False(t, IsSyncable("users"))
	assert.Len(t, All(), 5)
}
