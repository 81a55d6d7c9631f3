package catalog

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginateLastPartialPage(t *testing.T) {
	items := make([]ListedTool, 25)
	for i := range items {
		items[i] = ListedTool{ID: uint64(i + 1)}
	}

	page, meta := Paginate(items, 3, 10)

	require.Len(t, page, 5)
	assert.Equal(t, uint64(21), page[0].ID)
	assert.Equal(t, Pagination{Page: 3, PerPage: 10, Total: 25, Pages: 3, HasPrev: true, HasNext: false}, meta)
}

func TestPaginateBounds(t *testing.T) {
	items := make([]ListedTool, 4)

	tests := []struct {
		name     string
		page     int
		perPage  int
		wantLen  int
		wantMeta Pagination
	}{
		{
			name:     "first page",
			page:     1,
			perPage:  3,
			wantLen:  3,
			wantMeta: Pagination{Page: 1, PerPage: 3, Total: 4, Pages: 2, HasPrev: false, HasNext: true},
		},
		{
			name:     "past the end",
			page:     9,
			perPage:  3,
			wantLen:  0,
			wantMeta: Pagination{Page: 9, PerPage: 3, Total: 4, Pages: 2, HasPrev: true, HasNext: false},
		},
		{
			name:     "non positive values fall back",
			page:     0,
			perPage:  -1,
			wantLen:  4,
			wantMeta: Pagination{Page: 1, PerPage: DefaultPerPage, Total: 4, Pages: 1, HasPrev: false, HasNext: false},
		},
		{
			name:     "per page capped",
			page:     1,
			perPage:  5000,
			wantLen:  4,
			wantMeta: Pagination{Page: 1, PerPage: MaxPerPage, Total: 4, Pages: 1},
		},
		{
			name:     "huge page does not overflow",
			page:     math.MaxInt / 10,
			perPage:  10,
			wantLen:  0,
			wantMeta: Pagination{Page: math.MaxInt / 10, PerPage: 10, Total: 4, Pages: 1, HasPrev: true, HasNext: false},
		},
		{
			name:     "max int page",
			page:     math.MaxInt,
			perPage:  MaxPerPage,
			wantLen:  0,
			wantMeta: Pagination{Page: math.MaxInt, PerPage: MaxPerPage, Total: 4, Pages: 1, HasPrev: true, HasNext: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, meta := Paginate(items, tt.page, tt.perPage)
			assert.Len(t, page, tt.wantLen)
			assert.Equal(t, tt.wantMeta, meta)
		})
	}

	empty, meta := Paginate(nil, 1, 10)
	assert.NotNil(t, empty)
	assert.Zero(t, meta.Pages)
}

func TestSortByDateDescIsStable(t *testing.T) {
	items := []ListedTool{
		{ID: 1, PublishDate: "2024-01-10", SourceType: SourcePreset},
		{ID: 2, PublishDate: "2024-01-12", SourceType: SourceUploaded},
		{ID: 3, PublishDate: "2024-01-10", SourceType: SourceUploaded},
	}
	SortByDateDesc(items)

	assert.Equal(t, uint64(2), items[0].ID)
	assert.Equal(t, uint64(1), items[1].ID)
	assert.Equal(t, uint64(3), items[2].ID)
}

func TestListCombinedMergesAndOrders(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tools := seedCategory(t, store, "tools")
	other := seedCategory(t, store, "other")
	preset := seedPreset(t, store, "Image Compressor", tools.ID, "2024-01-10")
	component := seedComponent(t, store, "widget", tools.ID, "2024-01-12")
	seedPreset(t, store, "Unrelated", other.ID, "2024-01-11")

	all, err := store.ListCombined(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, component.ID, all[0].ID)
	assert.Equal(t, SourceUploaded, all[0].SourceType)
	assert.Equal(t, "widget", all[0].URL)
	assert.Equal(t, "tools label", all[0].CategoryName)
	assert.Equal(t, "Unrelated", all[1].Name)
	assert.Equal(t, preset.ID, all[2].ID)
	assert.Equal(t, SourcePreset, all[2].SourceType)
	assert.Equal(t, "#", all[2].URL)

	filtered, err := store.ListCombined(ctx, ListFilter{CategoryID: tools.ID})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	for _, item := range filtered {
		assert.Equal(t, tools.ID, item.CategoryID)
	}
}

func TestListCombinedSearchIsCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	category := seedCategory(t, store, "misc")
	seedPreset(t, store, "PDF Merge", category.ID, "2024-01-01")
	seedPreset(t, store, "Resizer", category.ID, "2024-01-02")
	seedComponent(t, store, "pdfviewer", category.ID, "2024-01-03")

	found, err := store.ListCombined(ctx, ListFilter{Search: "  pdf "})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, SourceUploaded, found[0].SourceType)
	assert.Equal(t, "PDF Merge", found[1].Name)

	byDescription, err := store.ListCombined(ctx, ListFilter{Search: "RESIZER DESC"})
	require.NoError(t, err)
	require.Len(t, byDescription, 1)
	assert.Equal(t, "Resizer", byDescription[0].Name)
}

func TestListCombinedPaginatesTwentyFiveRows(t *testing.T) {
	store := newTestStore(t)
	category := seedCategory(t, store, "bulk")
	for i := 1; i <= 15; i++ {
		seedPreset(t, store, fmt.Sprintf("preset %d", i), category.ID, fmt.Sprintf("2024-01-%02d", i))
	}
	for i := 1; i <= 10; i++ {
		seedComponent(t, store, fmt.Sprintf("comp%d", i), category.ID, fmt.Sprintf("2024-02-%02d", i))
	}

	all, err := store.ListCombined(context.Background(), ListFilter{CategoryID: category.ID})
	require.NoError(t, err)

	page, meta := Paginate(all, 3, 10)
	require.Len(t, page, 5)
	assert.False(t, meta.HasNext)
	assert.Equal(t, 3, meta.Pages)
	assert.Equal(t, "2024-01-05", page[0].PublishDate)
	assert.Equal(t, "2024-01-01", page[4].PublishDate)
}
