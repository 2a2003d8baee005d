package catalog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/listingrec/core"
)

// 需要一个已导入房源数据（Listing / Neighbourhood / Review / ListingAmenity）的 PostGIS 库
func postgresForTest(t *testing.T) *Postgres {
	dsn := os.Getenv("LISTINGREC_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LISTINGREC_TEST_DATABASE_URL not set, skipping postgres catalog test")
	}
	cfg := DefaultPostgresConfig()
	cfg.DSN = dsn
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p, err := NewPostgres(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestPostgres_ListAllAndGet(t *testing.T) {
	p := postgresForTest(t)
	ctx := context.Background()

	all, err := p.ListAll(ctx)
	require.NoError(t, err)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
	if len(all) == 0 {
		return
	}

	one, err := p.Get(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, all[0].ID, one.ID)
	assert.ElementsMatch(t, all[0].Amenities, one.Amenities)

	_, err = p.Get(ctx, -1)
	assert.True(t, core.IsNotFound(err))
	assert.Equal(t, "closed", p.BreakerState())
}

func TestPostgres_UnreachableIsUnavailable(t *testing.T) {
	cfg := DefaultPostgresConfig()
	cfg.DSN = "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := NewPostgres(ctx, cfg)
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
}
