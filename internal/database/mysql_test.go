package database

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"property-listing/internal/models"
)

func newTestGormDB(t *testing.T) PropertyStore {
	t.Helper()
	gdb, err := NewSQLiteGormDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, gdb.InitSchema())
	t.Cleanup(func() { gdb.Close() })
	return gdb
}

func TestGormDBContract(t *testing.T) {
	runStoreContract(t, newTestGormDB)
}

func nextIDSQL(db *gorm.DB) string {
	return db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var maxID int
		return nextIDQuery(tx).Find(&maxID)
	})
}

func TestNextIDQueryLocksOnMySQL(t *testing.T) {
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "user:pass@tcp(127.0.0.1:3306)/listings",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	assert.Contains(t, nextIDSQL(db), "FOR UPDATE")
}

func TestNextIDQueryWithoutLockOnSQLite(t *testing.T) {
	gdb := newTestGormDB(t).(*GormDB)

	sql := nextIDSQL(gdb.DB())
	assert.Contains(t, sql, "COALESCE(MAX(id), 0)")
	assert.NotContains(t, sql, "FOR UPDATE")
}

func TestGormDBConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	store := newTestGormDB(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Create(ctx, &models.Property{Name: "p"}))
		}()
	}
	wg.Wait()

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 20)
	seen := map[int]bool{}
	for _, p := range list {
		assert.False(t, seen[p.ID], "duplicate id %d", p.ID)
		seen[p.ID] = true
	}
}
