package fetcher

import (
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDownloader(t *testing.T, body string) (*Downloader, *int32, string) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	d := &Downloader{
		Files:  memfs.New(),
		Client: &Client{Queue: NewQueue(DefaultLimit)},
	}
	return d, &calls, srv.URL
}

func TestDownload_Idempotent(t *testing.T) {
	const body = "jar bytes"
	d, calls, url := newTestDownloader(t, body)
	want := Expected{
		Size: Size(int64(len(body))),
		Sums: map[string]string{"sha1": fmt.Sprintf("%x", sha1.Sum([]byte(body)))},
	}

	p1, err := d.Download(context.Background(), url, "libraries/a/b.jar", want)
	require.NoError(t, err)
	p2, err := d.Download(context.Background(), url, "libraries/a/b.jar", want)
	require.NoError(t, err)

	assert.Equal(t, p1, p2)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "second call must skip the transfer")

	got, err := util.ReadFile(d.Files, p1)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
}

func TestDownload_FailedVerification(t *testing.T) {
	d, calls, url := newTestDownloader(t, "short")
	want := Expected{Size: Size(999)}

	_, err := d.Download(context.Background(), url, "client.jar", want)
	assert.ErrorIs(t, err, ErrFailedVerification)
	assert.ErrorContains(t, err, "client.jar")

	// The partial file is left in place and a retry transfers again,
	// it is not silently accepted.
	_, err = d.Download(context.Background(), url, "client.jar", want)
	assert.ErrorIs(t, err, ErrFailedVerification)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))

	got, err := util.ReadFile(d.Files, "client.jar")
	require.NoError(t, err)
	assert.Equal(t, "short", string(got))
}

func TestDownload_HashMismatch(t *testing.T) {
	d, _, url := newTestDownloader(t, "content")
	want := Expected{Sums: map[string]string{"sha256": "deadbeef"}}

	_, err := d.Download(context.Background(), url, "x.bin", want)
	assert.ErrorIs(t, err, ErrFailedVerification)
}

func TestDownload_NoExpectationsAcceptsExisting(t *testing.T) {
	d, calls, url := newTestDownloader(t, "fresh")
	require.NoError(t, util.WriteFile(d.Files, "existing.bin", []byte("stale"), 0644))

	p, err := d.Download(context.Background(), url, "existing.bin", Expected{})
	require.NoError(t, err)

	got, err := util.ReadFile(d.Files, p)
	require.NoError(t, err)
	assert.Equal(t, "stale", string(got), "no test given: existing file passes through")
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestDownload_TempPath(t *testing.T) {
	d, _, url := newTestDownloader(t, "data")

	p1, err := d.Download(context.Background(), url+"/pack/client.jar", "", Expected{})
	require.NoError(t, err)
	p2, err := d.Download(context.Background(), url+"/pack/client.jar", "", Expected{})
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2, "unnamed downloads get distinct serials")
	assert.Contains(t, p1, DefaultTempDir)
	assert.Equal(t, ".jar", p1[len(p1)-4:])
}

func TestDownload_MultipleAlgorithms(t *testing.T) {
	const body = "abc"
	d, _, url := newTestDownloader(t, body)
	want := Expected{Sums: map[string]string{
		"sha1":   "a9993e364706816aba3e25717850c26c9cd0d89d",
		"sha256": "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		"md5":    "900150983cd24fb0d6963f7d28e17f72",
	}}

	_, err := d.Download(context.Background(), url, "abc.txt", want)
	require.NoError(t, err)
}
