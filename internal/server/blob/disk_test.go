package blob

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDisk(t *testing.T) *Disk {
	t.Helper()
	d, err := NewDisk(filepath.Join(t.TempDir(), "files_manager"))
	require.NoError(t, err)
	return d
}

func TestDisk_PutOpenDelete(t *testing.T) {
	d := newDisk(t)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "abc", strings.NewReader("Hello Webstack!\n")))

	rc, err := d.Open(ctx, "abc")
	require.NoError(t, err)
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "Hello Webstack!\n", string(b))

	require.NoError(t, d.Delete(ctx, "abc"))
	_, err = os.Stat(filepath.Join(d.Root, "abc"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDisk_PutOverwrites(t *testing.T) {
	d := newDisk(t)
	ctx := context.Background()

	require.NoError(t, d.Put(ctx, "k_100", strings.NewReader("first")))
	require.NoError(t, d.Put(ctx, "k_100", strings.NewReader("second")))

	b, err := os.ReadFile(filepath.Join(d.Root, "k_100"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(b))

	entries, err := os.ReadDir(d.Root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not linger")
}

func TestDisk_Missing(t *testing.T) {
	d := newDisk(t)
	ctx := context.Background()

	_, err := d.Open(ctx, "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	assert.NoError(t, d.Delete(ctx, "nope"))
}

func TestDisk_RejectsEscapingKeys(t *testing.T) {
	d := newDisk(t)
	ctx := context.Background()

	for _, key := range []string{"", "..", "../etc/passwd", "/etc/passwd", "a/../../b"} {
		t.Run(key, func(t *testing.T) {
			assert.ErrorIs(t, d.Put(ctx, key, strings.NewReader("x")), ErrInvalidKey)

			_, err := d.Open(ctx, key)
			assert.ErrorIs(t, err, common.ErrorNotFound)

			assert.ErrorIs(t, d.Delete(ctx, key), ErrInvalidKey)
		})
	}
}

func TestDisk_DirectoryIsNotABlob(t *testing.T) {
	d := newDisk(t)
	require.NoError(t, os.Mkdir(filepath.Join(d.Root, "sub"), 0o755))

	_, err := d.Open(context.Background(), "sub")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDisk_PutHonoursContext(t *testing.T) {
	d := newDisk(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Put(ctx, "late", strings.NewReader("data"))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = d.Open(context.Background(), "late")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDisk_Alive(t *testing.T) {
	d := newDisk(t)
	assert.True(t, d.Alive(context.Background()))

	require.NoError(t, os.RemoveAll(d.Root))
	assert.False(t, d.Alive(context.Background()))
}

func TestNewDisk_EmptyRoot(t *testing.T) {
	_, err := NewDisk("")
	assert.Error(t, err)
}
