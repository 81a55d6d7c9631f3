package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrCategoryNotFound  = errors.New("catalog: category not found")
	ErrCategoryNameTaken = errors.New("catalog: category name already exists")
	ErrToolNotFound      = errors.New("catalog: tool not found")
	ErrComponentNotFound = errors.New("catalog: component not found")
	ErrPathNameTaken     = errors.New("catalog: path name already exists")
)

// Store provides data access over the three catalog tables.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates every catalog table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("catalog: migrate tables: %w", err)
	}
	return nil
}

// Transaction runs fn against a Store bound to a single transaction. Returning an
// error from fn rolls back; the commit error, if any, is returned as is.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// ListCategories returns every category ordered by id.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := s.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Store) FindCategory(ctx context.Context, id uint64) (*Category, error) {
	var category Category
	if err := s.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// CategoryNameTaken reports whether another category (excluding excludeID) uses name.
func (s *Store) CategoryNameTaken(ctx context.Context, name string, excludeID uint64) (bool, error) {
	var count int64
	query := s.db.WithContext(ctx).Model(&Category{}).Where("name = ?", name)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CreateCategory(ctx context.Context, category *Category) error {
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrCategoryNameTaken
		}
		return err
	}
	return nil
}

func (s *Store) UpdateCategory(ctx context.Context, category *Category) error {
	result := s.db.WithContext(ctx).Model(&Category{}).
		Where("id = ?", category.ID).
		Updates(map[string]interface{}{"name": category.Name, "display_name": category.DisplayName})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrCategoryNameTaken
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return s.requireRow(ctx, &Category{}, category.ID, ErrCategoryNotFound)
	}
	return nil
}

// CountCategoryReferences returns how many preset tools and uploaded components point at id.
func (s *Store) CountCategoryReferences(ctx context.Context, id uint64) (tools int64, components int64, err error) {
	if err = s.db.WithContext(ctx).Model(&PresetTool{}).Where("category_id = ?", id).Count(&tools).Error; err != nil {
		return 0, 0, err
	}
	if err = s.db.WithContext(ctx).Model(&UploadedComponent{}).Where("category_id = ?", id).Count(&components).Error; err != nil {
		return 0, 0, err
	}
	return tools, components, nil
}

func (s *Store) DeleteCategory(ctx context.Context, id uint64) error {
	result := s.db.WithContext(ctx).Delete(&Category{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// PresetToolFilter narrows ListPresetTools. Zero CategoryID means every category.
type PresetToolFilter struct {
	CategoryID uint64
	SortColumn string
}

var presetSortColumns = map[string]string{
	"publish_date": "t.publish_date",
	"title":        "t.title",
	"id":           "t.id",
}

// NormalizePresetSort maps a user supplied sort key onto a known column, defaulting to publish_date.
func NormalizePresetSort(raw string) string {
	if _, ok := presetSortColumns[raw]; ok {
		return raw
	}
	return "publish_date"
}

// ListPresetTools returns preset tools with their category label, sorted descending.
func (s *Store) ListPresetTools(ctx context.Context, filter PresetToolFilter) ([]PresetToolView, error) {
	column := presetSortColumns[NormalizePresetSort(filter.SortColumn)]

	query := s.db.WithContext(ctx).
		Table("tools AS t").
		Select("t.id, t.title, t.description, t.category_id, t.publish_date, c.display_name AS category_name").
		Joins("JOIN categories c ON t.category_id = c.id")
	if filter.CategoryID != 0 {
		query = query.Where("t.category_id = ?", filter.CategoryID)
	}

	var tools []PresetToolView
	if err := query.Order(column + " DESC").Order("t.id DESC").Scan(&tools).Error; err != nil {
		return nil, err
	}
	return tools, nil
}

func (s *Store) FindPresetTool(ctx context.Context, id uint64) (*PresetTool, error) {
	var tool PresetTool
	if err := s.db.WithContext(ctx).First(&tool, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrToolNotFound
		}
		return nil, err
	}
	return &tool, nil
}

func (s *Store) CreatePresetTool(ctx context.Context, tool *PresetTool) error {
	return s.db.WithContext(ctx).Create(tool).Error
}

// UpdatePresetTool rewrites title, description and category. publish_date is left untouched.
func (s *Store) UpdatePresetTool(ctx context.Context, tool *PresetTool) error {
	result := s.db.WithContext(ctx).Model(&PresetTool{}).
		Where("id = ?", tool.ID).
		Updates(map[string]interface{}{
			"title":       tool.Title,
			"description": tool.Description,
			"category_id": tool.CategoryID,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return s.requireRow(ctx, &PresetTool{}, tool.ID, ErrToolNotFound)
	}
	return nil
}

// requireRow returns notFound unless a row with id exists. Updates use it when no row was
// affected, since MySQL counts changed rows and an update with identical values affects none.
func (s *Store) requireRow(ctx context.Context, model interface{}, id uint64, notFound error) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return notFound
	}
	return nil
}

func (s *Store) DeletePresetTool(ctx context.Context, id uint64) error {
	result := s.db.WithContext(ctx).Delete(&PresetTool{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrToolNotFound
	}
	return nil
}

// PathNameExists is a case-sensitive exact match on path_name.
func (s *Store) PathNameExists(ctx context.Context, pathName string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&UploadedComponent{}).Where("path_name = ?", pathName).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) FindComponent(ctx context.Context, id uint64) (*UploadedComponent, error) {
	var component UploadedComponent
	if err := s.db.WithContext(ctx).First(&component, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComponentNotFound
		}
		return nil, err
	}
	return &component, nil
}

func (s *Store) FindComponentByPath(ctx context.Context, pathName string) (*UploadedComponent, error) {
	var component UploadedComponent
	if err := s.db.WithContext(ctx).First(&component, "path_name = ?", pathName).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrComponentNotFound
		}
		return nil, err
	}
	return &component, nil
}

// CreateComponent inserts a component; the unique index on path_name turns a lost race
// into ErrPathNameTaken.
func (s *Store) CreateComponent(ctx context.Context, component *UploadedComponent) error {
	if err := s.db.WithContext(ctx).Create(component).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrPathNameTaken
		}
		return err
	}
	return nil
}

func (s *Store) DeleteComponent(ctx context.Context, id uint64) error {
	result := s.db.WithContext(ctx).Delete(&UploadedComponent{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrComponentNotFound
	}
	return nil
}

// ComponentFileNames returns the blob name of every stored component.
func (s *Store) ComponentFileNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.db.WithContext(ctx).Model(&UploadedComponent{}).Order("id").Pluck("file_name", &names).Error; err != nil {
		return nil, err
	}
	return names, nil
}

// ListComponents returns uploaded components sorted by sortColumn (upload_date or title) in
// direction (asc or desc).
// Callers normalize both arguments first.
func (s *Store) ListComponents(ctx context.Context, sortColumn, direction string) ([]ComponentView, error) {
	column := "uc.upload_date"
	if sortColumn == "title" {
		column = "uc.title"
	}
	dir := "DESC"
	if direction == "asc" {
		dir = "ASC"
	}

	var components []ComponentView
	err := s.db.WithContext(ctx).
		Table("uploaded_components AS uc").
		Select("uc.id, uc.title, uc.path_name, uc.file_name, uc.category_id, uc.upload_date, c.display_name AS category_name").
		Joins("JOIN categories c ON uc.category_id = c.id").
		Order(column + " " + dir).
		Order("uc.id " + dir).
		Scan(&components).Error
	if err != nil {
		return nil, err
	}
	return components, nil
}

// Ping checks that the underlying database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
