package cache

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Visits  int     `json:"visits"`
	Revenue float64 `json:"revenue"`
}

func TestNilCache_IsNoop(t *testing.T) {
	var c *DashboardCache
	ctx := context.Background()

	c.Set(ctx, "overview", payload{Visits: 1})
	var got payload
	assert.False(t, c.Get(ctx, "overview", &got))
	c.Invalidate(ctx)

	assert.Nil(t, NewDashboardCache(nil, time.Minute, logrus.New()))
}

func TestKey(t *testing.T) {
	assert.Equal(t, "dashboard:overview", Key("overview"))
}

func TestDashboardCache_Redis(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping Redis test")
	}

	client, err := Connect(addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	c := NewDashboardCache(client, time.Minute, log)
	ctx := context.Background()

	c.Set(ctx, "overview", payload{Visits: 3, Revenue: 4500})
	c.Set(ctx, "analytics", payload{Visits: 9})

	var got payload
	require.True(t, c.Get(ctx, "overview", &got))
	assert.Equal(t, payload{Visits: 3, Revenue: 4500}, got)

	c.Invalidate(ctx)
	assert.False(t, c.Get(ctx, "overview", &got))
	assert.False(t, c.Get(ctx, "analytics", &got))
}
