package fs

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	// Test MkdirAll
	dir := filepath.Join(tmp, "a", "b")
	assert.NoError(t, lfs.MkdirAll(dir, 0o755))

	// Mkdir on an existing dir fails
	assert.ErrorIs(t, lfs.Mkdir(dir, 0o755), os.ErrExist)

	// Test OpenFile (Create)
	fpath := filepath.Join(dir, "test.txt")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	// WriteAt / ReadAt
	_, err = f.WriteAt([]byte("hello"), 0)
	assert.NoError(t, err)
	buf := make([]byte, 5)
	_, err = f.ReadAt(buf, 0)
	assert.NoError(t, err)
	assert.Equal(t, "hello", string(buf))

	// Sync + Datasync
	assert.NoError(t, f.Sync())
	assert.NoError(t, Datasync(f))

	// Truncate
	assert.NoError(t, f.Truncate(3))
	info, err := f.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())

	assert.NoError(t, f.Close())

	// Stat / Lstat
	info, err = lfs.Stat(fpath)
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size())
	info, err = lfs.Lstat(fpath)
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())

	// Rename
	newPath := filepath.Join(dir, "renamed.txt")
	assert.NoError(t, lfs.Rename(fpath, newPath))

	// Remove
	assert.NoError(t, lfs.Remove(newPath))
	_, err = lfs.Stat(newPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})

	ffs.SetLimit(5) // Fail after 5 bytes

	fpath := filepath.Join(tmp, "faulty.txt")
	f, err := ffs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	// Write 5 bytes - OK
	n, err := f.WriteAt([]byte("hello"), 0)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	// Write 1 byte - Fail
	n, err = f.WriteAt([]byte("!"), 5)
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, n)

	assert.Equal(t, int64(5), ffs.Written())

	require.NoError(t, f.Close())

	// Verify other methods delegate
	assert.NoError(t, ffs.Rename(fpath, fpath+".renamed"))
	_, err = ffs.Stat(fpath + ".renamed")
	assert.NoError(t, err)
}

func TestFaultyFS_ShortWrite(t *testing.T) {
	ffs := NewFaultyFS(LocalFS{})
	ffs.AddRule("short", Fault{FailAfterBytes: -1, ShortWriteMax: 2})

	f, err := ffs.OpenFile(filepath.Join(t.TempDir(), "short.txt"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.WriteAt([]byte("hello"), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFaultyFS_Rules(t *testing.T) {
	tmp := t.TempDir()
	custom := errors.New("disk on fire")
	ffs := NewFaultyFS(nil)
	ffs.AddRule("sync", Fault{FailAfterBytes: -1, FailOnSync: true, FailOnTruncate: true, Err: custom})
	ffs.AddRule("open", Fault{FailAfterBytes: -1, FailOnOpen: true})

	f, err := ffs.OpenFile(filepath.Join(tmp, "sync.txt"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	assert.ErrorIs(t, f.Sync(), custom)
	assert.ErrorIs(t, f.Truncate(0), custom)
	require.NoError(t, f.Close())

	_, err = ffs.OpenFile(filepath.Join(tmp, "open.txt"), os.O_CREATE|os.O_RDWR, 0o644)
	assert.ErrorIs(t, err, ErrInjected)
}

func TestFaultyFS_Delegation(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, ffs.MkdirAll(dir, 0o755))
	assert.NoError(t, ffs.Mkdir(filepath.Join(dir, "child"), 0o755))

	_, err := ffs.Lstat(dir)
	assert.NoError(t, err)

	ffs.FailRemove(ErrInjected)
	assert.ErrorIs(t, ffs.Remove(filepath.Join(dir, "child")), ErrInjected)
	ffs.FailRemove(nil)
	assert.NoError(t, ffs.Remove(filepath.Join(dir, "child")))

	ffs.FailRename(ErrInjected)
	var linkErr *os.LinkError
	err = ffs.Rename(dir, dir+".new")
	require.ErrorAs(t, err, &linkErr)
	assert.Equal(t, "rename", linkErr.Op)
}

func TestAferoFS(t *testing.T) {
	afs := NewAferoFS(afero.NewMemMapFs())

	require.NoError(t, afs.MkdirAll("/data", 0o755))

	f, err := afs.OpenFile("/data/mem.txt", os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	n, err := f.WriteAt([]byte("in memory"), 0)
	require.NoError(t, err)
	assert.Equal(t, 9, n)

	// A short read comes back without an error; EOF only shows up at the end.
	buf := make([]byte, 32)
	n, err = f.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, "memory", string(buf[:n]))

	n, err = f.ReadAt(buf, 9)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	// Datasync falls back to Sync for non-os files.
	assert.NoError(t, Datasync(f))
	require.NoError(t, f.Close())

	info, err := afs.Lstat("/data/mem.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(9), info.Size())

	require.NoError(t, afs.Rename("/data/mem.txt", "/data/moved.txt"))
	_, err = afs.Stat("/data/mem.txt")
	assert.True(t, os.IsNotExist(err))
	require.NoError(t, afs.Remove("/data/moved.txt"))
}

func TestVolumeAvailable(t *testing.T) {
	avail, err := VolumeAvailable(t.TempDir())
	if errors.Is(err, errors.ErrUnsupported) {
		t.Skip("statfs not supported on this platform")
	}
	require.NoError(t, err)
	assert.Positive(t, avail)

	_, err = VolumeAvailable(filepath.Join(t.TempDir(), "missing", "dir"))
	assert.Error(t, err)
}
