package integration

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

func TestDecodeList(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		keys    []string
		wantIDs []models.ID
	}{
		{name: "bare array", in: `[{"id":1},{"id":2}]`, wantIDs: []models.ID{1, 2}},
		{name: "data array", in: `{"data":[{"id":1}]}`, wantIDs: []models.ID{1}},
		{name: "paginated", in: `{"data":{"current_page":1,"data":[{"id":3},{"id":4}]}}`, wantIDs: []models.ID{3, 4}},
		{name: "triple nested", in: `{"data":{"data":{"data":[{"id":5}]}}}`, wantIDs: []models.ID{5}},
		{name: "named collection", in: `{"schools":[{"id":6}]}`, keys: []string{"schools"}, wantIDs: []models.ID{6}},
		{name: "status envelope", in: `{"success":true,"data":[{"id":7}]}`, wantIDs: []models.ID{7}},
		{name: "single object", in: `{"id":8,"name":"x"}`, wantIDs: []models.ID{8}},
		{name: "single object in data", in: `{"data":{"id":9}}`, wantIDs: []models.ID{9}},
		{name: "empty data", in: `{"data":[]}`, wantIDs: nil},
		{name: "unknown shape", in: `{"message":"ok"}`, wantIDs: nil},
		{name: "scalar", in: `"hello"`, wantIDs: nil},
		{name: "empty body", in: ``, wantIDs: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := DecodeList(json.RawMessage(tt.in), tt.keys...)
			require.Len(t, items, len(tt.wantIDs))
			for i, item := range items {
				var obj struct {
					ID models.ID `json:"id"`
				}
				require.NoError(t, json.Unmarshal(item, &obj))
				assert.Equal(t, tt.wantIDs[i], obj.ID)
			}
		})
	}
}

func TestDecodeObject(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		keys    []string
		wantID  models.ID
		wantErr bool
	}{
		{name: "plain", in: `{"id":1}`, wantID: 1},
		{name: "data", in: `{"data":{"id":2}}`, wantID: 2},
		{name: "nested data", in: `{"success":true,"data":{"data":{"id":3}}}`, wantID: 3},
		{name: "named", in: `{"message":"created","school":{"id":4}}`, keys: []string{"school"}, wantID: 4},
		{name: "array", in: `[{"id":1}]`, wantErr: true},
		{name: "scalar", in: `42`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := DecodeObject(json.RawMessage(tt.in), tt.keys...)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrUnexpectedResponse))
				return
			}
			require.NoError(t, err)

			var v struct {
				ID models.ID `json:"id"`
			}
			require.NoError(t, json.Unmarshal(obj, &v))
			assert.Equal(t, tt.wantID, v.ID)
		})
	}
}

func TestDecodeRoleCatalog(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantRoles int
		wantPerms int
	}{
		{
			name:      "roles and permissions tuple",
			in:        `{"status":"success","data":[[{"id":1,"name":"teacher"},{"id":2,"name":"student"}],[{"id":1,"name":"view school"}]]}`,
			wantRoles: 2,
			wantPerms: 1,
		},
		{
			name:      "named fields",
			in:        `{"roles":[{"id":1,"name":"teacher"}],"permissions":[]}`,
			wantRoles: 1,
		},
		{
			name:      "plain collection",
			in:        `{"data":[{"id":1,"name":"teacher"},{"id":2,"name":"student"}]}`,
			wantRoles: 2,
		},
		{
			name:      "roles only tuple",
			in:        `{"data":[[{"id":1,"name":"teacher"}]]}`,
			wantRoles: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roles, perms := DecodeRoleCatalog(json.RawMessage(tt.in))
			assert.Len(t, roles, tt.wantRoles)
			assert.Len(t, perms, tt.wantPerms)
		})
	}
}
