package backend

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"laporan/internal/amqp"
	"laporan/internal/config"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  "postgres",
		DatabaseURL:  "postgres://localhost/laporan",
		AMQPURL:      "amqp://localhost/",
		AMQPExchange: "laporan",
		AMQPQueue:    "ledger_mirror",
	}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != PostgresBackend || got.DatabaseURL != cfg.DatabaseURL || got.AMQPQueue != "ledger_mirror" {
		t.Errorf("FromAppConfig() = %+v", got)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("nil config should fail")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("unknown backend should fail")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"postgres without url", Config{Type: PostgresBackend}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
		{"unknown", Config{Type: "csv"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "memory" || got[2] != "postgres" {
		t.Errorf("GetBackendTypeStrings() = %v", got)
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	f := NewFactory(nil)
	res, err := f.CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	if res.Store == nil || res.Publisher != nil {
		t.Errorf("unexpected result %+v", res)
	}
	cats, err := res.Store.ListCategories(context.Background())
	if err != nil || len(cats) != 7 {
		t.Errorf("memory backend should be seeded with system menus, got %d (%v)", len(cats), err)
	}
	if err := res.Cleanup(); err != nil {
		t.Errorf("Cleanup() error = %v", err)
	}
}

func TestCreateBackend_SQLiteWithUnreachableBroker(t *testing.T) {
	f := &DefaultFactory{
		logger: slog.Default(),
		dial: func(url, exchange, queue string) (*amqp.Client, error) {
			return nil, errors.New("connection refused")
		},
	}

	res, err := f.CreateBackend(context.Background(), Config{
		Type:         SQLiteBackend,
		SQLiteDBPath: filepath.Join(t.TempDir(), "laporan.db"),
		AMQPURL:      "amqp://localhost:1/",
		AMQPExchange: "laporan",
		AMQPQueue:    "ledger_mirror",
	})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	if res.Publisher != nil {
		t.Error("publisher should be nil when the broker is unreachable")
	}
	if _, err := res.Store.ListCategories(context.Background()); err != nil {
		t.Errorf("store not usable: %v", err)
	}
}
