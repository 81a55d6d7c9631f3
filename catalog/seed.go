package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

type seedTool struct {
	title       string
	description string
	category    string
}

var seedCategories = []Category{
	{Name: "image", DisplayName: "Image Tools"},
	{Name: "pdf", DisplayName: "PDF Tools"},
	{Name: "entertainment", DisplayName: "Everyday & Fun"},
	{Name: "education", DisplayName: "Education"},
}

var seedTools = []seedTool{
	{"Image Compressor", "Shrink image files in bulk while keeping output quality high", "image"},
	{"Image Format Converter", "Convert between JPG, PNG, GIF, WebP and more", "image"},
	{"Image Watermark", "Add text or image watermarks to many pictures at once", "image"},
	{"Image Resizer", "Resize images in bulk by ratio or to exact dimensions", "image"},

	{"PDF Merge", "Combine several PDF files into one with a custom page order", "pdf"},
	{"PDF Split", "Split a large PDF by page count or bookmarks", "pdf"},
	{"PDF to Word", "Turn PDF documents into editable Word files", "pdf"},
	{"PDF Encrypt/Decrypt", "Add or remove password protection on PDF files", "pdf"},

	{"QR Code Generator", "Create QR codes for text, links, Wi-Fi credentials and more", "entertainment"},
	{"Color Palette", "Generate color schemes for design and decoration", "entertainment"},
	{"Password Generator", "Generate strong random passwords with custom length and charset", "entertainment"},
	{"Unit Converter", "Convert length, weight, temperature, currency and more", "entertainment"},

	{"Formula Editor", "Edit math formulas online with LaTeX syntax", "education"},
	{"Mind Map", "Build mind maps in the browser", "education"},
	{"Vocabulary Trainer", "Memorize English words on a spaced repetition schedule", "education"},
	{"Code Formatter", "Format and highlight source code in many languages", "education"},
}

// SeedResult counts what Seed inserted.
type SeedResult struct {
	Categories int
	Tools      int
}

// Seed inserts the sample categories and preset tools. Running it again adds nothing new.
// Each tool gets a publish date between 1 and 30 days before now.
func Seed(ctx context.Context, store *Store, now time.Time, rng *rand.Rand) (SeedResult, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano()))
	}

	var result SeedResult
	err := store.Transaction(ctx, func(tx *Store) error {
		ids := make(map[string]uint64, len(seedCategories))
		for _, candidate := range seedCategories {
			var category Category
			res := tx.db.WithContext(ctx).
				Where(Category{Name: candidate.Name}).
				Attrs(Category{DisplayName: candidate.DisplayName}).
				FirstOrCreate(&category)
			if res.Error != nil {
				return fmt.Errorf("catalog: seed category %s: %w", candidate.Name, res.Error)
			}
			if res.RowsAffected > 0 {
				result.Categories++
			}
			ids[candidate.Name] = category.ID
		}

		for _, sample := range seedTools {
			var existing PresetTool
			err := tx.db.WithContext(ctx).Where("title = ?", sample.title).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("catalog: seed lookup %s: %w", sample.title, err)
			}

			daysAgo := rng.Intn(30) + 1
			tool := PresetTool{
				Title:       sample.title,
				Description: sample.description,
				CategoryID:  ids[sample.category],
				PublishDate: now.AddDate(0, 0, -daysAgo).Format(DateLayout),
			}
			if err := tx.CreatePresetTool(ctx, &tool); err != nil {
				return fmt.Errorf("catalog: seed tool %s: %w", sample.title, err)
			}
			result.Tools++
		}
		return nil
	})
	return result, err
}
