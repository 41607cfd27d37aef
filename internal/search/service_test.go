package search

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagematch/match-api/internal/index"
)

func encodeTestImage(t *testing.T, seed uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x)*4 + seed*uint8(y)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCompareIdenticalImages(t *testing.T) {
	service := NewService(index.NewStore("images"), nil, nil)

	img := encodeTestImage(t, 0)
	score, err := service.CompareImages(img, img)
	require.NoError(t, err)
	assert.Equal(t, 100.0, score)
}

func TestCompareDistinctImages(t *testing.T) {
	service := NewService(index.NewStore("images"), nil, nil)

	score, err := service.CompareImages(encodeTestImage(t, 0), encodeTestImage(t, 3))
	require.NoError(t, err)
	assert.Less(t, score, 100.0)
}

func TestCompareRejectsInvalidImage(t *testing.T) {
	service := NewService(index.NewStore("images"), nil, nil)

	_, err := service.CompareImages([]byte("not an image"), encodeTestImage(t, 0))
	assert.Error(t, err)
}

func TestAddImageRejectsInvalidImage(t *testing.T) {
	service := NewService(index.NewStore("images"), nil, nil)

	err := service.AddImage(context.Background(), "a.jpg", []byte("not an image"), nil)
	assert.Error(t, err)
}

func TestDownloaderFetch(t *testing.T) {
	payload := []byte("image bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	downloader := NewDownloader(5*time.Second, 1024)
	data, err := downloader.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestDownloaderFetchTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("x"), 2048))
	}))
	defer server.Close()

	downloader := NewDownloader(5*time.Second, 1024)
	_, err := downloader.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestDownloaderFetchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	downloader := NewDownloader(5*time.Second, 1024)
	_, err := downloader.Fetch(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestIngesterOverload(t *testing.T) {
	// a one-slot queue refuses every record before any indexing happens
	ingester := &Ingester{
		store:            index.NewStore("images"),
		data:             make(chan index.Record, 1),
		done:             make(chan struct{}),
		metricQueueGauge: _ingesterQueueGauge,
	}
	defer ingester.Stop()

	err := ingester.Ingest(index.Record{Path: "a.jpg"})
	assert.ErrorIs(t, err, ErrQueueFull)
}
