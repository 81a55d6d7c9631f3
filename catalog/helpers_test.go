package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"toolbox_back/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	store := NewStore(db)
	require.NoError(t, store.AutoMigrate())
	return store
}

func seedCategory(t *testing.T, store *Store, name string) *Category {
	t.Helper()
	category := &Category{Name: name, DisplayName: name + " label"}
	require.NoError(t, store.CreateCategory(context.Background(), category))
	return category
}

func seedPreset(t *testing.T, store *Store, title string, categoryID uint64, date string) *PresetTool {
	t.Helper()
	tool := &PresetTool{Title: title, Description: title + " description", CategoryID: categoryID, PublishDate: date}
	require.NoError(t, store.CreatePresetTool(context.Background(), tool))
	return tool
}

func seedComponent(t *testing.T, store *Store, pathName string, categoryID uint64, date string) *UploadedComponent {
	t.Helper()
	component := &UploadedComponent{
		Title:      pathName + " title",
		PathName:   pathName,
		FileName:   pathName + ".html",
		CategoryID: categoryID,
		UploadDate: date,
	}
	require.NoError(t, store.CreateComponent(context.Background(), component))
	return component
}
