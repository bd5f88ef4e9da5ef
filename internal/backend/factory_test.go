package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.EqualError(t, err, "invalid backend type in config: sheets")

	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", AMQPURL: "amqp://h/", AMQPExchange: "e", AMQPQueue: "q"})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "q", cfg.AMQPQueue)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "a.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "sheets"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://h/", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}

func TestCreateBackend_Memory(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.Nil(t, res.Publisher)
	assert.NoError(t, res.Store.Ping(context.Background()))
	assert.NoError(t, res.Cleanup())
}

func TestCreateBackend_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)
	assert.NoError(t, res.Store.Ping(context.Background()))
	assert.NoError(t, res.Cleanup())
}

func TestCreateBackend_UnreachableBrokerIsSkipped(t *testing.T) {
	f := NewFactory(nil).(*DefaultFactory)
	f.dialAMQP = func(url, exchange, queue string) (*amqp.Client, error) {
		return nil, errors.New("connection refused")
	}

	res, err := f.CreateBackend(context.Background(), Config{
		Type: MemoryBackend, AMQPURL: "amqp://localhost/", AMQPExchange: "ledger", AMQPQueue: "ledger_events",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Publisher, "no typed nil publisher")
	assert.NoError(t, res.Cleanup())
}
