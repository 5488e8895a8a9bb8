package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/gartstein/professionals/internal/pkg/utils"
	"github.com/gartstein/professionals/internal/professional/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchIdentity(t *testing.T) {
	byEmail := &models.Professional{ID: 1, Email: "jane@example.com", Phone: "5555550001"}
	byPhone := &models.Professional{ID: 2, Phone: "5555550002"}
	store := &fakeIdentityStore{profiles: []*models.Professional{byEmail, byPhone}}

	tests := []struct {
		name   string
		email  *string
		phone  *string
		wantID uint64
	}{
		{"email match", utils.Ptr("jane@example.com"), nil, 1},
		{"email trimmed", utils.Ptr("  jane@example.com "), nil, 1},
		{"phone match normalized", nil, utils.Ptr("(555) 555-0002"), 2},
		{"email wins over phone", utils.Ptr("jane@example.com"), utils.Ptr("5555550002"), 1},
		{"unknown email ignores phone", utils.Ptr("new@example.com"), utils.Ptr("5555550002"), 0},
		{"blank email falls back to phone", utils.Ptr("  "), utils.Ptr("555.555.0002"), 2},
		{"no identifiers", nil, nil, 0},
		{"unknown phone", nil, utils.Ptr("5550000000"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matched, err := MatchIdentity(context.Background(), store, tt.email, tt.phone)
			require.NoError(t, err)
			if tt.wantID == 0 {
				assert.Nil(t, matched)
				return
			}
			require.NotNil(t, matched)
			assert.Equal(t, tt.wantID, matched.ID)
		})
	}
}

func TestMatchIdentityStoreError(t *testing.T) {
	store := &fakeIdentityStore{err: errors.New("database error")}

	_, err := MatchIdentity(context.Background(), store, utils.Ptr("jane@example.com"), nil)
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	tests := map[string]string{
		"555-555-0001":      "5555550001",
		"+1 (555) 555 0001": "15555550001",
		"":                  "",
		"ext.":              "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePhone(in), in)
	}
}
