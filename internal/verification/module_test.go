package verification

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/contactgate/internal/pkg/clock"
	"github.com/shandysiswandi/contactgate/internal/pkg/config"
	"github.com/shandysiswandi/contactgate/internal/pkg/instrument"
	"github.com/shandysiswandi/contactgate/internal/verification/outbound/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func depWithDriver(t *testing.T, driver string) Dependency {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  verification:\n    store:\n      driver: "+driver+"\n"))
	require.NoError(t, err)

	return Dependency{Config: cfg, Instrument: instrument.NewNoop(), Clock: clock.New()}
}

func TestNewStore(t *testing.T) {
	s, err := newStore(depWithDriver(t, "memory"))
	require.NoError(t, err)
	assert.IsType(t, &store.Memory{}, s)

	_, err = newStore(depWithDriver(t, "redis"))
	assert.ErrorIs(t, err, ErrRedisRequired)

	dep := depWithDriver(t, "redis")
	mr := miniredis.RunT(t)
	dep.CacheConn = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s, err = newStore(dep)
	require.NoError(t, err)
	assert.IsType(t, &store.Redis{}, s)

	_, err = newStore(depWithDriver(t, "dynamodb"))
	assert.ErrorIs(t, err, ErrDynamoDBRequired)

	_, err = newStore(depWithDriver(t, "etcd"))
	assert.ErrorIs(t, err, ErrUnknownStore)
}
