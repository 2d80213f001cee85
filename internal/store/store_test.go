package store_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/gsarma/mailblast/internal/store"
)

var (
	_ store.Store = (*store.Memory)(nil)
	_ store.Store = (*store.Queries)(nil)
)

func TestMemory_GetPut(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	if _, err := m.Get(ctx, store.SettingsKey); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := m.Put(ctx, store.SettingsKey, json.RawMessage(`{"subject":"hi"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := m.Get(ctx, store.SettingsKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"subject":"hi"}` {
		t.Errorf("got %s", got)
	}
}

func TestMemory_RejectsInvalidJSON(t *testing.T) {
	if err := store.NewMemory().Put(context.Background(), "k", json.RawMessage(`{nope`)); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	v := json.RawMessage(`{"a":1}`)
	_ = m.Put(ctx, "k", v)
	v[2] = 'b'

	got, _ := m.Get(ctx, "k")
	got[2] = 'c'
	again, _ := m.Get(ctx, "k")
	if string(again) != `{"a":1}` {
		t.Errorf("stored value was mutated: %s", again)
	}
}

// stubRow implements pgx.Row.
type stubRow struct {
	value []byte
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*[]byte) = r.value
	*dest[1].(*time.Time) = time.Now()
	return nil
}

// stubDB implements store.DBTX.
type stubDB struct {
	execSQL  []string
	execArgs [][]any
	row      stubRow
	execErr  error
}

func (s *stubDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	s.execSQL = append(s.execSQL, sql)
	s.execArgs = append(s.execArgs, args)
	return pgconn.NewCommandTag("INSERT 0 1"), s.execErr
}

func (s *stubDB) QueryRow(context.Context, string, ...any) pgx.Row {
	return s.row
}

func TestQueries_Get(t *testing.T) {
	db := &stubDB{row: stubRow{value: []byte(`{"body":"x"}`)}}
	got, err := store.New(db).Get(context.Background(), store.SettingsKey)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"body":"x"}` {
		t.Errorf("got %s", got)
	}
}

func TestQueries_GetMissing(t *testing.T) {
	db := &stubDB{row: stubRow{err: pgx.ErrNoRows}}
	if _, err := store.New(db).Get(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestQueries_PutUpserts(t *testing.T) {
	db := &stubDB{}
	if err := store.New(db).Put(context.Background(), "k", json.RawMessage(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if len(db.execSQL) != 1 || !strings.Contains(db.execSQL[0], "ON CONFLICT (key)") {
		t.Fatalf("unexpected SQL: %v", db.execSQL)
	}
	if db.execArgs[0][0] != "k" {
		t.Errorf("key arg = %v", db.execArgs[0][0])
	}
}

func TestQueries_PutError(t *testing.T) {
	db := &stubDB{execErr: errors.New("connection refused")}
	err := store.New(db).Put(context.Background(), "k", json.RawMessage(`{}`))
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestQueries_Migrate(t *testing.T) {
	db := &stubDB{}
	if err := store.New(db).Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if !strings.Contains(db.execSQL[0], "CREATE TABLE IF NOT EXISTS mailblast_settings") {
		t.Errorf("unexpected SQL: %s", db.execSQL[0])
	}
}
