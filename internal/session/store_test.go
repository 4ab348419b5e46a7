package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragvault/ragvault/internal/log"
)

func TestValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleUser, true},
		{RoleAssistant, true},
		{RoleSystem, true},
		{"moderator", false},
		{"USER", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidRole(tt.role), "ValidRole(%q)", tt.role)
	}
}

// SaveMessage must reject an invalid role before touching the database;
// the nil pool guarantees the test fails loudly if it does not.
func TestSaveMessage_InvalidRoleRejectedBeforeIO(t *testing.T) {
	store := NewStore(nil, log.NewNop())

	_, err := store.SaveMessage(context.Background(), "s1", "moderator", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Contains(t, err.Error(), "moderator")
}
