package asyncfile

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/asyncfile/internal/fs"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestInitDiskAvailables(t *testing.T) {
	rt := newTestRuntime(t)

	_, ok := rt.DiskAvailable()
	assert.False(t, ok)

	require.NoError(t, InitDiskAvailables(rt, 10, 5000))
	avail, ok := rt.DiskAvailable()
	require.True(t, ok)
	assert.Equal(t, uint64(4990), avail)

	err := InitDiskAvailables(rt, 0, 1)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)

	avail, _ = rt.DiskAvailable()
	assert.Equal(t, uint64(4990), avail, "first installation wins")
}

func TestInitDiskAvailables_ClosedRuntime(t *testing.T) {
	rt := NewRuntime(WithLogger(nil))
	require.NoError(t, rt.Close())

	err := InitDiskAvailables(rt, 0, 100)
	assert.ErrorIs(t, err, ErrSchedulerUnavailable)
	assert.ErrorIs(t, InitDiskAvailables(nil, 0, 100), ErrSchedulerUnavailable)
}

func TestWrite_OutOfSpace(t *testing.T) {
	ctx := t.Context()
	rt := newTestRuntime(t)
	require.NoError(t, InitDiskAvailables(rt, 5000, 10))

	path := filepath.Join(t.TempDir(), "full.bin")
	f := openTestFile(t, rt, path, ReadWrite)

	n, err := f.Write(ctx, 0, []byte("x"), SyncAll(true))
	require.ErrorIs(t, err, ErrOutOfSpace)
	assert.Equal(t, 0, n)
	assert.True(t, IsRetryable(err))

	// No syscall was issued.
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(0), fi.Size())
	assert.Equal(t, int64(0), f.Size())
}

func TestWrite_OutOfSpaceKeepsContent(t *testing.T) {
	ctx := t.Context()
	rt := newTestRuntime(t)

	path := filepath.Join(t.TempDir(), "kept.bin")
	original := []byte("existing content")
	require.NoError(t, os.WriteFile(path, original, 0o644))

	// 5000 total with 10 held back leaves 4990 bytes.
	require.NoError(t, InitDiskAvailables(rt, 10, 5000))
	f := openTestFile(t, rt, path, ReadWrite)

	n, err := f.Write(ctx, 0, make([]byte, 4991), SyncAll(true))
	require.ErrorIs(t, err, ErrOutOfSpace)
	assert.Zero(t, n)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, got)
	assert.Equal(t, int64(len(original)), f.Size())

	avail, _ := rt.DiskAvailable()
	assert.Equal(t, uint64(4990), avail)

	// Exactly the budget still fits.
	n, err = f.Write(ctx, 0, make([]byte, 4990), NoSync())
	require.NoError(t, err)
	assert.Equal(t, 4990, n)
	assert.Equal(t, int64(4990), f.Size())
}

func TestWrite_QuotaAccounting(t *testing.T) {
	ctx := t.Context()
	rt := newTestRuntime(t)
	require.NoError(t, InitDiskAvailables(rt, 10, 110))

	f := openTestFile(t, rt, filepath.Join(t.TempDir(), "q.bin"), ReadWrite)

	_, err := f.Write(ctx, 0, make([]byte, 60), NoSync())
	require.NoError(t, err)

	// Overwrites consume budget too.
	_, err = f.Write(ctx, 0, make([]byte, 40), NoSync())
	require.NoError(t, err)

	avail, _ := rt.DiskAvailable()
	assert.Equal(t, uint64(0), avail)

	_, err = f.Write(ctx, 100, []byte{1}, NoSync())
	assert.ErrorIs(t, err, ErrOutOfSpace)
	assert.Equal(t, int64(60), f.Size())
}

func TestWrite_FailureReleasesQuota(t *testing.T) {
	ctx := t.Context()
	faulty := fs.NewFaultyFS(AferoFileSystem(afero.NewMemMapFs()))
	faulty.AddRule(".bin", fs.Fault{FailAfterBytes: 4, ShortWriteMax: 4})

	rt := newTestRuntime(t, WithFileSystem(faulty))
	require.NoError(t, InitDiskAvailables(rt, 0, 100))

	f := openTestFile(t, rt, "/fail.bin", ReadWrite)

	n, err := f.Write(ctx, 0, make([]byte, 10), NoSync())
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrInjected)
	assert.ErrorIs(t, err, ErrIo)
	assert.Equal(t, 4, n)

	// Only the bytes that made it to the file stay charged.
	avail, _ := rt.DiskAvailable()
	assert.Equal(t, uint64(96), avail)
}

func TestWrite_ShortWritesRetried(t *testing.T) {
	ctx := t.Context()
	mem := afero.NewMemMapFs()
	faulty := fs.NewFaultyFS(AferoFileSystem(mem))
	faulty.AddRule(".bin", fs.Fault{FailAfterBytes: -1, ShortWriteMax: 3})

	rt := newTestRuntime(t, WithFileSystem(faulty))
	f := openTestFile(t, rt, "/short.bin", ReadWrite)

	payload := []byte("a payload longer than three bytes")
	n, err := f.Write(ctx, 0, payload, Sync(true))
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	data, err := afero.ReadFile(mem, "/short.bin")
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestWrite_ConcurrentAgainstQuota(t *testing.T) {
	ctx := t.Context()
	rt := newTestRuntime(t, WithFileSystem(AferoFileSystem(afero.NewMemMapFs())))
	require.NoError(t, InitDiskAvailables(rt, 0, 1000))

	f := openTestFile(t, rt, "/race.bin", ReadWrite)

	var ok, full atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := range 50 {
		g.Go(func() error {
			_, err := f.Write(gctx, int64(i*100), make([]byte, 100), NoSync())
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, ErrOutOfSpace):
				full.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int64(10), ok.Load())
	assert.Equal(t, int64(40), full.Load())
	avail, _ := rt.DiskAvailable()
	assert.Equal(t, uint64(0), avail)
}

func TestInitDiskAvailables_VolumeProbe(t *testing.T) {
	ctx := t.Context()
	clock := clockwork.NewFakeClock()
	rt := newTestRuntime(t,
		WithClock(clock),
		WithFileSystem(AferoFileSystem(afero.NewMemMapFs())),
	)

	var free atomic.Uint64
	free.Store(1000)
	var probes atomic.Int64

	err := InitDiskAvailables(rt, 100, 1<<20, func(o *DiskOptions) {
		o.VolumePath = "/"
		o.RefreshInterval = time.Minute
		o.probe = func(string) (uint64, error) {
			probes.Add(1)
			return free.Load(), nil
		}
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), probes.Load())

	f := openTestFile(t, rt, "/vol.bin", ReadWrite)

	// 1000 free minus 100 headroom.
	_, err = f.Write(ctx, 0, make([]byte, 901), NoSync())
	require.ErrorIs(t, err, ErrOutOfSpace)
	_, err = f.Write(ctx, 0, make([]byte, 900), NoSync())
	require.NoError(t, err)

	// The volume fills up; the next probe sees it.
	free.Store(100)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(time.Minute)
	require.Eventually(t, func() bool { return probes.Load() >= 2 }, time.Second, 5*time.Millisecond)

	_, err = f.Write(ctx, 900, []byte{1}, NoSync())
	assert.ErrorIs(t, err, ErrOutOfSpace)
}

func TestInitDiskAvailables_ProbeFailure(t *testing.T) {
	rt := newTestRuntime(t)
	probeErr := errors.New("statfs failed")

	err := InitDiskAvailables(rt, 0, 100, func(o *DiskOptions) {
		o.VolumePath = "/nowhere"
		o.probe = func(string) (uint64, error) { return 0, probeErr }
	})
	require.ErrorIs(t, err, probeErr)
	assert.ErrorIs(t, err, ErrIo)

	// Failed initialization leaves the runtime without a quota.
	_, ok := rt.DiskAvailable()
	assert.False(t, ok)
}

func TestInitDiskAvailables_RealVolume(t *testing.T) {
	rt := newTestRuntime(t)
	dir := t.TempDir()

	if _, err := fs.VolumeAvailable(dir); err != nil {
		t.Skipf("volume probe unsupported: %v", err)
	}
	require.NoError(t, InitDiskAvailables(rt, 0, 1<<20, func(o *DiskOptions) {
		o.VolumePath = dir
	}))

	f := openTestFile(t, rt, filepath.Join(dir, "real.bin"), ReadWrite)
	_, err := f.Write(t.Context(), 0, []byte("fits"), NoSync())
	require.NoError(t, err)
}
