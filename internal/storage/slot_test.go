package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	slot, err := NewFileSlot(filepath.Join(t.TempDir(), "nested"), "primary")
	require.NoError(t, err)

	_, err = slot.Load(ctx)
	assert.ErrorIs(t, err, ErrSlotEmpty)

	require.NoError(t, slot.Save(ctx, []byte(`{"a":1}`)))
	require.NoError(t, slot.Save(ctx, []byte(`{"a":2}`)))

	data, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"a":2}`, string(data))
}

func TestFileSlotLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	slot, err := NewFileSlot(dir, "backup")
	require.NoError(t, err)
	require.NoError(t, slot.Save(context.Background(), []byte("{}")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "backup.json", entries[0].Name())
}

func TestFileSlotEmptyFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "primary.json"), nil, 0o644))
	slot, err := NewFileSlot(dir, "primary")
	require.NoError(t, err)

	_, err = slot.Load(context.Background())
	assert.ErrorIs(t, err, ErrSlotEmpty)
}

func TestMemorySlotQuota(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot("primary", 4)

	assert.ErrorIs(t, slot.Save(ctx, []byte("12345")), ErrQuotaExceeded)
	assert.Equal(t, 0, slot.Writes())

	require.NoError(t, slot.Save(ctx, []byte("1234")))
	assert.Equal(t, 1, slot.Writes())

	data, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1234", string(data))
}

func TestMemorySlotLoadReturnsCopy(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot("primary", 0)
	require.NoError(t, slot.Save(ctx, []byte("abc")))

	data, err := slot.Load(ctx)
	require.NoError(t, err)
	data[0] = 'z'

	again, err := slot.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemorySlotFailWith(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot("backup", 0)
	boom := errors.New("disk on fire")

	slot.FailWith(boom)
	assert.ErrorIs(t, slot.Save(ctx, []byte("x")), boom)

	slot.FailWith(nil)
	assert.NoError(t, slot.Save(ctx, []byte("x")))
}
