package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ScanList/internal/config"
)

// exerciseStore runs the behaviour every backend must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "catalog", []byte(`{"111":{"name":"Milk"}}`)))
	got, err := s.Get(ctx, "catalog")
	require.NoError(t, err)
	assert.JSONEq(t, `{"111":{"name":"Milk"}}`, string(got))

	require.NoError(t, s.Set(ctx, "catalog", []byte(`{}`)))
	got, err = s.Get(ctx, "catalog")
	require.NoError(t, err)
	assert.Equal(t, "{}", string(got))

	require.NoError(t, s.Delete(ctx, "catalog"))
	_, err = s.Get(ctx, "catalog")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "catalog"), "deleting a missing key is not an error")
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	value := []byte("abc")
	require.NoError(t, m.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestFile_EscapesKeys(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(dir)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "../escape", []byte("x")))
	_, err = os.Stat(filepath.Join(dir, "..%2Fescape.json"))
	assert.NoError(t, err)
}

func TestFile_SharedAcrossHandles(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFile(dir)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewFile(dir)
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, a.Set(ctx, "k", []byte("v")))
	got, err := b.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestSQLite(t *testing.T) {
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "nested", "store.db"))
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedis(client, "scanlist:")
	defer s.Close()

	exerciseStore(t, s)

	require.NoError(t, s.Set(context.Background(), "k", []byte("v")))
	assert.True(t, mr.Exists("scanlist:k"), "value stored under prefixed key")
}

func TestOpenRedis_URL(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0", "")
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	s, err := OpenPostgres(context.Background(), url, 2)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestLimit(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	s := Limit(inner, 4)

	require.NoError(t, s.Set(ctx, "k", []byte("1234")))

	err := s.Set(ctx, "k", []byte("12345"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "1234", string(got), "rejected write leaves previous value")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		cfg     config.StoreConfig
		wantErr bool
	}{
		{"memory", config.StoreConfig{Backend: "memory", MaxBlobSize: 1024}, false},
		{"file", config.StoreConfig{Backend: "FILE", Dir: filepath.Join(dir, "files")}, false},
		{"sqlite", config.StoreConfig{Backend: "sqlite", SQLitePath: filepath.Join(dir, "s.db")}, false},
		{"unknown", config.StoreConfig{Backend: "s3"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(context.Background(), tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			exerciseStore(t, s)
		})
	}
}

func TestOpen_AppliesQuota(t *testing.T) {
	s, err := Open(context.Background(), config.StoreConfig{Backend: "memory", MaxBlobSize: 2})
	require.NoError(t, err)
	err = s.Set(context.Background(), "k", []byte("abc"))
	assert.ErrorIs(t, err, ErrTooLarge)
}
