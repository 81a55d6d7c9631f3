package components

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"toolbox_back/apierr"
	"toolbox_back/catalog"
	"toolbox_back/logging"
	"toolbox_back/storage"
)

// multipartOverhead is allowed on top of the file limit for form fields and boundaries.
const multipartOverhead = 1 << 20

// Options tunes a Module. Zero values disable the cache and the size limit.
type Options struct {
	MaxBytes int64
	Redis    *redis.Client
	CacheTTL time.Duration
	Now      func() time.Time
}

// Module handles component upload, listing, deletion and serving at /<path_name>.
type Module struct {
	store     *catalog.Store
	blobs     storage.BlobStore
	publisher *Publisher
	cache     componentCache
	log       *logging.Logger
	maxBytes  int64
}

func NewModule(store *catalog.Store, blobs storage.BlobStore, log *logging.Logger, opts Options) *Module {
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("module", "components")
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Module{
		store:     store,
		blobs:     blobs,
		publisher: NewPublisher(store, blobs, log, opts.Now, opts.MaxBytes),
		cache:     newLookupCache(opts.Redis, ttl, log),
		log:       log,
		maxBytes:  opts.MaxBytes,
	}
}

// RegisterRoutes mounts the management endpoints under the /api group.
func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	api.POST("/upload", m.handleUpload)
	api.GET("/uploaded-components", m.handleList)
	api.DELETE("/uploaded-components/:id", m.handleDelete)
}

// ServeComponent answers GET /:path_name. It must be registered after every fixed route.
func (m *Module) ServeComponent(c *gin.Context) {
	m.handleServe(c)
}

type uploadResult struct {
	apierr.Result
	AccessURL string `json:"access_url,omitempty"`
}

func (m *Module) handleUpload(c *gin.Context) {
	if m.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, m.maxBytes+multipartOverhead)
	}

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierr.Respond(c, fileTooLarge(m.maxBytes), "")
			return
		}
		apierr.Respond(c, apierr.Validation("invalid_payload", "invalid multipart form"), "")
		return
	}

	req := PublishRequest{
		Title:      firstValue(form.Value["title"]),
		PathName:   firstValue(form.Value["path_name"]),
		CategoryID: firstValue(form.Value["category_id"]),
	}
	if files := form.File["file"]; len(files) > 0 {
		req.File = files[0]
	}

	published, err := m.publisher.Publish(c.Request.Context(), req)
	if err != nil {
		apierr.Respond(c, err, "upload failed")
		return
	}

	c.JSON(http.StatusOK, uploadResult{Result: apierr.OK("upload succeeded"), AccessURL: published.AccessURL})
}

// NormalizeComponentSort falls back to upload_date and desc for unknown values.
func NormalizeComponentSort(sort, order string) (string, string) {
	sort = strings.TrimSpace(sort)
	order = strings.ToLower(strings.TrimSpace(order))
	if sort != "upload_date" && sort != "title" {
		sort = "upload_date"
	}
	if order != "asc" && order != "desc" {
		order = "desc"
	}
	return sort, order
}

func (m *Module) handleList(c *gin.Context) {
	sort, order := NormalizeComponentSort(c.Query("sort"), c.Query("order"))
	components, err := m.store.ListComponents(c.Request.Context(), sort, order)
	if err != nil {
		apierr.Respond(c, err, "failed to list components")
		return
	}
	if components == nil {
		components = []catalog.ComponentView{}
	}
	c.JSON(http.StatusOK, components)
}

var errComponentNotFound = apierr.NotFound("component_not_found", "component not found")

// handleDelete removes the record, then the file. If the file removal fails the record is
// already gone and the 500 response says the file was left behind.
func (m *Module) handleDelete(c *gin.Context) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		apierr.Respond(c, errComponentNotFound, "")
		return
	}

	ctx := c.Request.Context()
	component, err := m.store.FindComponent(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrComponentNotFound) {
			apierr.Respond(c, errComponentNotFound, "")
			return
		}
		apierr.Respond(c, err, "delete failed")
		return
	}

	if err := m.store.DeleteComponent(ctx, id); err != nil {
		if errors.Is(err, catalog.ErrComponentNotFound) {
			apierr.Respond(c, errComponentNotFound, "")
			return
		}
		apierr.Respond(c, err, "delete failed")
		return
	}
	m.cache.invalidate(ctx, component.PathName)

	if err := m.blobs.Remove(ctx, component.FileName); err != nil {
		m.log.Error("remove component file", "component_id", id, "file_name", component.FileName, "error", err)
		apierr.Respond(c, apierr.Internal("component deleted but failed to remove file", err), "")
		return
	}

	m.log.Info("component deleted", "component_id", id, "path_name", component.PathName)
	c.JSON(http.StatusOK, apierr.OK(fmt.Sprintf("component %q deleted", component.Title)))
}

func (m *Module) handleServe(c *gin.Context) {
	pathName := c.Param("path_name")
	if !ValidPathName(pathName) {
		c.String(http.StatusNotFound, "invalid path name")
		return
	}

	ctx := c.Request.Context()
	entry, cached := m.cache.get(ctx, pathName)
	if !cached {
		var ok bool
		if entry, ok = m.lookupComponent(c, pathName); !ok {
			return
		}
	}

	body, size, err := m.blobs.Open(ctx, entry.FileName)
	if cached && errors.Is(err, storage.ErrBlobNotFound) {
		// A lookup that raced a delete can leave an entry for a record that is gone.
		m.cache.invalidate(ctx, pathName)
		var ok bool
		if entry, ok = m.lookupComponent(c, pathName); !ok {
			return
		}
		body, size, err = m.blobs.Open(ctx, entry.FileName)
	}
	if err != nil {
		if errors.Is(err, storage.ErrBlobNotFound) {
			m.log.Warn("component file missing", "path_name", pathName, "file_name", entry.FileName)
			c.String(http.StatusNotFound, "file not found")
			return
		}
		m.log.Error("open component file", "path_name", pathName, "error", err)
		c.String(http.StatusInternalServerError, "failed to load component")
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, size, storage.HTMLContentType, body, map[string]string{
		"X-Content-Type-Options": "nosniff",
		"Cache-Control":          "no-cache",
	})
}

// lookupComponent reads the record from the store and caches it. On failure it has already
// written the response.
func (m *Module) lookupComponent(c *gin.Context, pathName string) (*cachedComponent, bool) {
	ctx := c.Request.Context()
	component, err := m.store.FindComponentByPath(ctx, pathName)
	if err != nil {
		if errors.Is(err, catalog.ErrComponentNotFound) {
			c.String(http.StatusNotFound, "component not found")
			return nil, false
		}
		m.log.Error("lookup component", "path_name", pathName, "error", err)
		c.String(http.StatusInternalServerError, "failed to load component")
		return nil, false
	}
	entry := &cachedComponent{ID: component.ID, Title: component.Title, FileName: component.FileName}
	m.cache.store(ctx, pathName, *entry)
	return entry, true
}

func firstValue(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
