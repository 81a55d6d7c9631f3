package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// SourceKind tags which table a combined listing row came from.
type SourceKind string

const (
	SourcePreset   SourceKind = "preset"
	SourceUploaded SourceKind = "uploaded"
)

const (
	DefaultPerPage = 10
	MaxPerPage     = 100
)

// ListFilter narrows the combined listing. A zero CategoryID means every category.
type ListFilter struct {
	CategoryID uint64
	Search     string
}

// ListedTool is one row of the combined listing.
type ListedTool struct {
	ID           uint64     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	URL          string     `json:"url"`
	CategoryID   uint64     `json:"category_id"`
	CategoryName string     `json:"category_name"`
	PublishDate  string     `json:"publish_date"`
	SourceType   SourceKind `json:"source_type"`
}

// Pagination describes the page window returned by Paginate.
type Pagination struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
}

type listingRow struct {
	ID           uint64
	Name         string
	Description  string
	PathName     string
	CategoryID   uint64
	PublishDate  string
	CategoryName string
}

// ListCombined fetches preset tools and uploaded components matching filter, tags each
// row with its source and returns them newest first. url is "#" for presets and the bare
// path_name for uploaded components; clients prefix it with "/". Rows with the same date keep
// presets ahead of components, each in id order.
func (s *Store) ListCombined(ctx context.Context, filter ListFilter) ([]ListedTool, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	presetQuery := s.db.WithContext(ctx).
		Table("tools AS t").
		Select("t.id, t.title AS name, t.description, t.category_id, t.publish_date, c.display_name AS category_name").
		Joins("JOIN categories c ON t.category_id = c.id")
	if filter.CategoryID != 0 {
		presetQuery = presetQuery.Where("t.category_id = ?", filter.CategoryID)
	}
	if search != "" {
		like := "%" + search + "%"
		presetQuery = presetQuery.Where("(LOWER(t.title) LIKE ? OR LOWER(t.description) LIKE ?)", like, like)
	}

	var presets []listingRow
	if err := presetQuery.Order("t.id").Scan(&presets).Error; err != nil {
		return nil, fmt.Errorf("catalog: list preset tools: %w", err)
	}

	componentQuery := s.db.WithContext(ctx).
		Table("uploaded_components AS uc").
		Select("uc.id, uc.title AS name, uc.title AS description, uc.path_name, uc.category_id, uc.upload_date AS publish_date, c.display_name AS category_name").
		Joins("JOIN categories c ON uc.category_id = c.id")
	if filter.CategoryID != 0 {
		componentQuery = componentQuery.Where("uc.category_id = ?", filter.CategoryID)
	}
	if search != "" {
		componentQuery = componentQuery.Where("LOWER(uc.title) LIKE ?", "%"+search+"%")
	}

	var components []listingRow
	if err := componentQuery.Order("uc.id").Scan(&components).Error; err != nil {
		return nil, fmt.Errorf("catalog: list uploaded components: %w", err)
	}

	all := make([]ListedTool, 0, len(presets)+len(components))
	for _, row := range presets {
		all = append(all, row.toListed(SourcePreset, "#"))
	}
	for _, row := range components {
		all = append(all, row.toListed(SourceUploaded, row.PathName))
	}

	SortByDateDesc(all)
	return all, nil
}

func (r listingRow) toListed(kind SourceKind, url string) ListedTool {
	return ListedTool{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		URL:          url,
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		PublishDate:  r.PublishDate,
		SourceType:   kind,
	}
}

// SortByDateDesc orders rows by PublishDate descending using plain string comparison,
// which is chronological only for zero padded YYYY-MM-DD values.
func SortByDateDesc(items []ListedTool) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishDate > items[j].PublishDate
	})
}

// Paginate cuts the requested window out of items. page is clamped to at least 1 and
// perPage to (0, MaxPerPage]; a page past the end yields an empty slice.
func Paginate(items []ListedTool, page, perPage int) ([]ListedTool, Pagination) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	total := len(items)
	pages := (total + perPage - 1) / perPage
	meta := Pagination{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasPrev: page > 1,
		HasNext: page < pages,
	}

	// page is compared before multiplying so huge values cannot overflow.
	if page > pages {
		return []ListedTool{}, meta
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	return items[start:end], meta
}
