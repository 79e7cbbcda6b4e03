package connpool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mobinergy/database-kit/pkg/config"
	"github.com/Mobinergy/database-kit/pkg/errors"
)

func TestFuncAdapter(t *testing.T) {
	released := ""
	p := Func[string]{
		AcquireFunc: func(context.Context) (string, error) { return "c1", nil },
		ReleaseFunc: func(conn string) { released = conn },
	}

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c1", conn)

	p.Release(conn)
	assert.Equal(t, "c1", released)
}

func TestFuncAdapterNilRelease(t *testing.T) {
	p := Func[int]{
		AcquireFunc: func(context.Context) (int, error) { return 1, nil },
	}
	assert.NotPanics(t, func() { p.Release(1) })
}

func TestOpenSQLRejectsInvalidConfig(t *testing.T) {
	_, err := OpenSQL(config.PoolConfig{Driver: config.DriverPostgres})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = OpenSQL(config.PoolConfig{Driver: "sybase", DSN: "x"})
	require.Error(t, err)
}

func TestDriverNames(t *testing.T) {
	assert.Equal(t, "pgx", driverNames[config.DriverPostgres])
	assert.Equal(t, "mysql", driverNames[config.DriverMySQL])
}
