package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapRepo map[string]*APIKeyInfo

func (m mapRepo) FindByHash(_ context.Context, hash string) (*APIKeyInfo, error) {
	info, ok := m[hash]
	if !ok {
		return nil, ErrUnauthorized
	}
	return info, nil
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	raw := "vk_live_s3cret"
	repo := mapRepo{HashKey(raw): {ID: "k1", KeyHash: HashKey(raw), Name: "admin"}}

	t.Run("valid key", func(t *testing.T) {
		info, err := Verify(ctx, repo, raw)
		require.NoError(t, err)
		assert.Equal(t, "k1", info.ID)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := Verify(ctx, repo, "wrong")
		require.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("corrupt stored hash", func(t *testing.T) {
		bad := mapRepo{HashKey(raw): {ID: "k2", KeyHash: "not-hex!"}}
		_, err := Verify(ctx, bad, raw)
		require.ErrorIs(t, err, ErrUnauthorized)
	})
}
