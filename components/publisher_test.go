package components

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbox_back/catalog"
	"toolbox_back/storage"
)

func readBlob(t *testing.T, blobs storage.BlobStore, name string) string {
	t.Helper()
	rc, _, err := blobs.Open(context.Background(), name)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func blobCount(t *testing.T, blobs storage.BlobStore) int {
	t.Helper()
	list, err := blobs.List(context.Background())
	require.NoError(t, err)
	return len(list)
}

func TestPublishStoresRecordAndFile(t *testing.T) {
	f := newFixture(t)
	category := f.category(t, "demo")
	publisher := NewPublisher(f.store, f.blobs, nil, fixedClock, 0)

	published, err := publisher.Publish(context.Background(), PublishRequest{
		Title:      "  Demo  ",
		PathName:   "abc123",
		CategoryID: fmt.Sprint(category.ID),
		File:       fileHeader(t, "demo.HTML", "<p>hi</p>"),
	})
	require.NoError(t, err)
	assert.Equal(t, "/abc123", published.AccessURL)
	assert.Equal(t, "Demo", published.Component.Title)
	assert.Equal(t, "abc123.html", published.Component.FileName)
	assert.Equal(t, "2024-05-20", published.Component.UploadDate)

	stored, err := f.store.FindComponentByPath(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, category.ID, stored.CategoryID)
	assert.Equal(t, "<p>hi</p>", readBlob(t, f.blobs, "abc123.html"))
}

func TestPublishValidationHasNoSideEffects(t *testing.T) {
	f := newFixture(t)
	category := f.category(t, "demo")
	publisher := NewPublisher(f.store, f.blobs, nil, fixedClock, 16)
	id := fmt.Sprint(category.ID)

	tests := []struct {
		name string
		req  PublishRequest
		want error
	}{
		{"no file", PublishRequest{Title: "t", PathName: "ok", CategoryID: id}, errFileRequired},
		{"no title", PublishRequest{PathName: "ok", CategoryID: id, File: fileHeader(t, "a.html", "x")}, errTitleRequired},
		{"no path", PublishRequest{Title: "t", CategoryID: id, File: fileHeader(t, "a.html", "x")}, errPathNameRequired},
		{"bad path", PublishRequest{Title: "t", PathName: "a b", CategoryID: id, File: fileHeader(t, "a.html", "x")}, errInvalidPathName},
		{"traversal", PublishRequest{Title: "t", PathName: "../x", CategoryID: id, File: fileHeader(t, "a.html", "x")}, errInvalidPathName},
		{"reserved", PublishRequest{Title: "t", PathName: "upload", CategoryID: id, File: fileHeader(t, "a.html", "x")}, errPathNameReserved},
		{"zero category", PublishRequest{Title: "t", PathName: "ok", CategoryID: "0", File: fileHeader(t, "a.html", "x")}, errCategoryRequired},
		{"empty category", PublishRequest{Title: "t", PathName: "ok", File: fileHeader(t, "a.html", "x")}, errCategoryRequired},
		{"unknown category", PublishRequest{Title: "t", PathName: "ok", CategoryID: "999", File: fileHeader(t, "a.html", "x")}, errCategoryMissing},
		{"not html", PublishRequest{Title: "t", PathName: "ok", CategoryID: id, File: fileHeader(t, "a.htm", "x")}, errNotHTML},
		{"html in the middle", PublishRequest{Title: "t", PathName: "ok", CategoryID: id, File: fileHeader(t, "a.html.txt", "x")}, errNotHTML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := publisher.Publish(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := publisher.Publish(context.Background(), PublishRequest{
		Title: "t", PathName: "big", CategoryID: id, File: fileHeader(t, "a.html", strings.Repeat("x", 17)),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "16 byte limit")

	assert.Zero(t, blobCount(t, f.blobs))
	components, err := f.store.ListComponents(context.Background(), "upload_date", "desc")
	require.NoError(t, err)
	assert.Empty(t, components)
}

func TestPublishDuplicateKeepsOriginalFile(t *testing.T) {
	f := newFixture(t)
	category := f.category(t, "demo")
	publisher := NewPublisher(f.store, f.blobs, nil, fixedClock, 0)
	id := fmt.Sprint(category.ID)

	_, err := publisher.Publish(context.Background(), PublishRequest{
		Title: "first", PathName: "dup", CategoryID: id, File: fileHeader(t, "a.html", "first"),
	})
	require.NoError(t, err)

	_, err = publisher.Publish(context.Background(), PublishRequest{
		Title: "second", PathName: "dup", CategoryID: id, File: fileHeader(t, "b.html", "second"),
	})
	assert.ErrorIs(t, err, errPathNameTaken)
	assert.Equal(t, "first", readBlob(t, f.blobs, "dup.html"))
}

func TestPublishConcurrentSamePathAllowsOneWinner(t *testing.T) {
	f := newFixture(t)
	category := f.category(t, "demo")
	publisher := NewPublisher(f.store, f.blobs, nil, fixedClock, 0)
	id := fmt.Sprint(category.ID)

	const workers = 6
	reqs := make([]PublishRequest, workers)
	for i := range reqs {
		reqs[i] = PublishRequest{
			Title:      fmt.Sprintf("worker %d", i),
			PathName:   "race",
			CategoryID: id,
			File:       fileHeader(t, "race.html", fmt.Sprintf("body %d", i)),
		}
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		errs    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(req PublishRequest) {
			defer wg.Done()
			published, err := publisher.Publish(context.Background(), req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			winners = append(winners, published.Component.Title)
		}(reqs[i])
	}
	wg.Wait()

	require.Len(t, winners, 1)
	for _, err := range errs {
		assert.ErrorIs(t, err, errPathNameTaken)
	}

	stored, err := f.store.FindComponentByPath(context.Background(), "race")
	require.NoError(t, err)
	assert.Equal(t, winners[0], stored.Title)
	suffix := strings.TrimPrefix(stored.Title, "worker ")
	assert.Equal(t, "body "+suffix, readBlob(t, f.blobs, "race.html"))
}

type failingBlobs struct {
	storage.BlobStore
	err error
}

func (b failingBlobs) Put(context.Context, string, io.Reader, int64, string) error {
	return b.err
}

func TestPublishRollsBackWhenBlobWriteFails(t *testing.T) {
	f := newFixture(t)
	category := f.category(t, "demo")
	diskFull := errors.New("disk full")
	publisher := NewPublisher(f.store, failingBlobs{BlobStore: f.blobs, err: diskFull}, nil, fixedClock, 0)

	_, err := publisher.Publish(context.Background(), PublishRequest{
		Title: "t", PathName: "lost", CategoryID: fmt.Sprint(category.ID), File: fileHeader(t, "a.html", "x"),
	})
	require.ErrorIs(t, err, diskFull)

	_, err = f.store.FindComponentByPath(context.Background(), "lost")
	assert.ErrorIs(t, err, catalog.ErrComponentNotFound)

	entries, err := os.ReadDir(f.blobs.BaseDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
