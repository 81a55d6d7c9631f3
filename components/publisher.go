package components

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"toolbox_back/apierr"
	"toolbox_back/catalog"
	"toolbox_back/logging"
	"toolbox_back/storage"
)

// PublishRequest carries the raw upload form.
type PublishRequest struct {
	Title      string
	PathName   string
	CategoryID string
	File       *multipart.FileHeader
}

// Published is the outcome of a successful publish.
type Published struct {
	Component *catalog.UploadedComponent
	AccessURL string
}

// Publisher validates an upload and stores its record and file as one unit.
type Publisher struct {
	store    *catalog.Store
	blobs    storage.BlobStore
	registry *Registry
	log      *logging.Logger
	now      func() time.Time
	maxBytes int64
}

func NewPublisher(store *catalog.Store, blobs storage.BlobStore, log *logging.Logger, now func() time.Time, maxBytes int64) *Publisher {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Publisher{
		store:    store,
		blobs:    blobs,
		registry: NewRegistry(store),
		log:      log,
		now:      now,
		maxBytes: maxBytes,
	}
}

var (
	errFileRequired     = apierr.Validation("file_required", "please choose a file")
	errTitleRequired    = apierr.Validation("title_required", "please enter a title")
	errCategoryRequired = apierr.Validation("category_required", "please select a category")
	errCategoryMissing  = apierr.Validation("category_not_found", "category does not exist")
	errNotHTML          = apierr.Validation("invalid_file_type", "only .html files may be uploaded")
)

func fileTooLarge(limit int64) *apierr.Error {
	return apierr.Validation("file_too_large", fmt.Sprintf("file exceeds the %d byte limit", limit))
}

// Publish validates req, then writes the record and the blob in one transaction.
//
// The record goes first so a racing duplicate fails on the unique index before it can
// overwrite the winner's file. A failed blob write rolls the insert back. If the commit
// fails the written blob is removed best-effort.
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (*Published, error) {
	if req.File == nil {
		return nil, errFileRequired
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errTitleRequired
	}
	pathName := strings.TrimSpace(req.PathName)
	if err := p.registry.Check(ctx, pathName); err != nil {
		return nil, err
	}

	categoryID, err := parseCategoryID(req.CategoryID)
	if err != nil {
		return nil, err
	}
	if _, err := p.store.FindCategory(ctx, categoryID); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			return nil, errCategoryMissing
		}
		return nil, err
	}

	if strings.TrimSpace(req.File.Filename) == "" {
		return nil, errFileRequired
	}
	if !strings.EqualFold(filepath.Ext(req.File.Filename), ".html") {
		return nil, errNotHTML
	}
	if p.maxBytes > 0 && req.File.Size > p.maxBytes {
		return nil, fileTooLarge(p.maxBytes)
	}

	component := &catalog.UploadedComponent{
		Title:      title,
		PathName:   pathName,
		FileName:   StorageFileName(pathName),
		CategoryID: categoryID,
		UploadDate: p.now().Format(catalog.DateLayout),
	}

	written := false
	err = p.store.Transaction(ctx, func(tx *catalog.Store) error {
		if err := tx.CreateComponent(ctx, component); err != nil {
			return err
		}
		src, err := req.File.Open()
		if err != nil {
			return fmt.Errorf("components: open upload: %w", err)
		}
		defer src.Close()

		if err := p.blobs.Put(ctx, component.FileName, src, req.File.Size, storage.HTMLContentType); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		if written {
			if rmErr := p.blobs.Remove(context.WithoutCancel(ctx), component.FileName); rmErr != nil {
				p.log.Error("remove blob after failed commit", "file_name", component.FileName, "error", rmErr)
			}
		}
		if errors.Is(err, catalog.ErrPathNameTaken) {
			return nil, errPathNameTaken
		}
		return nil, err
	}

	p.log.Info("component published", "component_id", component.ID, "path_name", pathName, "size", req.File.Size)
	return &Published{Component: component, AccessURL: "/" + pathName}, nil
}

// parseCategoryID treats "", "0" and anything non-numeric as no selection.
func parseCategoryID(raw string) (uint64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "0" {
		return 0, errCategoryRequired
	}
	id, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil || id == 0 {
		return 0, errCategoryRequired
	}
	return id, nil
}
