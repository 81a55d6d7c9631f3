package components

import (
	"bytes"
	"context"
	"mime/multipart"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"toolbox_back/catalog"
	"toolbox_back/database"
	"toolbox_back/storage"
)

var fixedNow = time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fixture struct {
	store *catalog.Store
	blobs *storage.LocalStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	db, err := database.OpenSQLite(filepath.Join(dir, "components.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := catalog.NewStore(db)
	require.NoError(t, store.AutoMigrate())

	blobs, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	return &fixture{store: store, blobs: blobs}
}

func (f *fixture) category(t *testing.T, name string) *catalog.Category {
	t.Helper()
	category := &catalog.Category{Name: name, DisplayName: name + " label"}
	require.NoError(t, f.store.CreateCategory(context.Background(), category))
	return category
}

// fileHeader round-trips content through a real multipart form so Open works like it
// does for a request.
func fileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(&body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}
