package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-listing/internal/models"
)

// runStoreContract exercises the behaviour every PropertyStore shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) PropertyStore) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		s := newStore(t)
		list, err := s.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("create assigns ids and keeps order", func(t *testing.T) {
		s := newStore(t)
		names := []string{"Cottage", "Loft", "Villa"}
		for i, name := range names {
			p := &models.Property{Name: name, Price: "100", Location: "Town", Sqft: "900"}
			require.NoError(t, s.Create(ctx, p))
			assert.Equal(t, i+1, p.ID)
		}

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i, p := range list {
			assert.Equal(t, names[i], p.Name)
			assert.Equal(t, i+1, p.ID)
		}
	})

	t.Run("get", func(t *testing.T) {
		s := newStore(t)
		p := &models.Property{Name: "Cabin", Image: "/uploads/1.png"}
		require.NoError(t, s.Create(ctx, p))

		got, err := s.Get(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cabin", got.Name)
		assert.Equal(t, "/uploads/1.png", got.Image)

		_, err = s.Get(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"A", "B", "C"} {
			require.NoError(t, s.Create(ctx, &models.Property{Name: name}))
		}

		require.NoError(t, s.Delete(ctx, 2))
		assert.ErrorIs(t, s.Delete(ctx, 2), ErrNotFound)

		list, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "A", list[0].Name)
		assert.Equal(t, "C", list[1].Name)
	})

	t.Run("delete missing leaves sequence unchanged", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, &models.Property{Name: "Only"}))

		assert.ErrorIs(t, s.Delete(ctx, 42), ErrNotFound)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("ids are not reused after delete", func(t *testing.T) {
		s := newStore(t)
		for _, name := range []string{"A", "B", "C"} {
			require.NoError(t, s.Create(ctx, &models.Property{Name: name}))
		}
		require.NoError(t, s.Delete(ctx, 1))

		p := &models.Property{Name: "D"}
		require.NoError(t, s.Create(ctx, p))
		assert.Equal(t, 4, p.ID)

		list, err := s.List(ctx)
		require.NoError(t, err)
		seen := map[int]bool{}
		for _, q := range list {
			assert.False(t, seen[q.ID], "duplicate id %d", q.ID)
			seen[q.ID] = true
		}
	})
}
