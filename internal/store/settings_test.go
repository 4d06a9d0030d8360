package store

import (
	"context"
	"testing"

	"github.com/erazemk/izgubljeno/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestPutSettingOverwrites(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, ok, _ := GetSetting(ctx, database, SettingLastSweepAt); ok {
		t.Fatal("expected setting to be absent")
	}

	PutSetting(ctx, database, SettingLastSweepAt, "one")
	if err := PutSetting(ctx, database, SettingLastSweepAt, "two"); err != nil {
		t.Fatalf("PutSetting: %v", err)
	}

	value, ok, err := GetSetting(ctx, database, SettingLastSweepAt)
	if err != nil || !ok {
		t.Fatalf("GetSetting: ok=%v err=%v", ok, err)
	}
	if value != "two" {
		t.Errorf("expected 'two', got %q", value)
	}
}
