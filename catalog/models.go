package catalog

// DateLayout is the only format dates are written in. The combined listing orders rows
// by comparing these strings, so every writer must use it.
const DateLayout = "2006-01-02"

// Category groups preset tools and uploaded components.
type Category struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:64;not null;uniqueIndex" json:"name"`
	DisplayName string `gorm:"size:128;not null" json:"display_name"`
}

// TableName pins the categories table name.
func (Category) TableName() string {
	return "categories"
}

// PresetTool is a descriptive listing entry with no file behind it.
type PresetTool struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	CategoryID  uint64    `gorm:"not null;index" json:"category_id"`
	PublishDate string    `gorm:"size:10;not null;index" json:"publish_date"`
	Category    *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// TableName pins the preset tools table name.
func (PresetTool) TableName() string {
	return "tools"
}

// UploadedComponent is an uploaded HTML file served at /<path_name>.
// FileName names the blob holding the content; record and blob are created and removed together.
type UploadedComponent struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	PathName   string    `gorm:"size:128;not null;uniqueIndex" json:"path_name"`
	FileName   string    `gorm:"size:255;not null" json:"file_name"`
	CategoryID uint64    `gorm:"not null;index" json:"category_id"`
	UploadDate string    `gorm:"size:10;not null;index" json:"upload_date"`
	Category   *Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}

// TableName pins the uploaded components table name.
func (UploadedComponent) TableName() string {
	return "uploaded_components"
}

// PresetToolView is a preset tool joined with its category label.
type PresetToolView struct {
	ID           uint64 `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	CategoryID   uint64 `json:"category_id"`
	PublishDate  string `json:"publish_date"`
	CategoryName string `json:"category_name"`
}

// ComponentView is an uploaded component joined with its category label.
type ComponentView struct {
	ID           uint64 `json:"id"`
	Title        string `json:"title"`
	PathName     string `json:"path_name"`
	FileName     string `json:"file_name"`
	CategoryID   uint64 `json:"category_id"`
	UploadDate   string `json:"upload_date"`
	CategoryName string `json:"category_name"`
}

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{&Category{}, &PresetTool{}, &UploadedComponent{}}
}
