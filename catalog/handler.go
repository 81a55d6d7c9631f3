package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"toolbox_back/apierr"
	"toolbox_back/logging"
)

var categoryNamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Module serves the category, preset tool and combined listing endpoints.
type Module struct {
	store *Store
	log   *logging.Logger
	now   func() time.Time
}

// NewModule wires the catalog handlers. now defaults to time.Now.
func NewModule(store *Store, log *logging.Logger, now func() time.Time) *Module {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Module{store: store, log: log.With("module", "catalog"), now: now}
}

// RegisterRoutes mounts the catalog endpoints under the given /api group.
func (m *Module) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/categories", m.handleListCategories)
	api.POST("/categories", m.handleCreateCategory)
	api.PUT("/categories/:id", m.handleUpdateCategory)
	api.DELETE("/categories/:id", m.handleDeleteCategory)

	api.GET("/tools", m.handleListTools)

	api.GET("/preset-tools", m.handleListPresetTools)
	api.POST("/preset-tools", m.handleCreatePresetTool)
	api.PUT("/preset-tools/:id", m.handleUpdatePresetTool)
	api.DELETE("/preset-tools/:id", m.handleDeletePresetTool)
}

// FlexibleID accepts a JSON number, a numeric string, or null/empty (decoded as 0).
type FlexibleID uint64

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = 0
		return nil
	}
	raw := string(trimmed)
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*f = 0
			return nil
		}
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("catalog: invalid id %q", raw)
	}
	*f = FlexibleID(value)
	return nil
}

type categoryRequest struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
}

type categoryResult struct {
	apierr.Result
	Category *Category `json:"category,omitempty"`
}

type presetToolRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  FlexibleID `json:"category_id"`
}

type presetToolResult struct {
	apierr.Result
	Tool *PresetTool `json:"tool,omitempty"`
}

type listToolsResponse struct {
	Tools      []ListedTool `json:"tools"`
	Pagination Pagination   `json:"pagination"`
}

var errInvalidPayload = apierr.Validation("invalid_payload", "invalid request payload")

func (m *Module) handleListCategories(c *gin.Context) {
	categories, err := m.store.ListCategories(c.Request.Context())
	if err != nil {
		apierr.Respond(c, err, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []Category{}
	}
	c.JSON(http.StatusOK, categories)
}

func (m *Module) handleCreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, errInvalidPayload, "")
		return
	}

	category, err := m.validateCategory(req)
	if err != nil {
		apierr.Respond(c, err, "")
		return
	}

	ctx := c.Request.Context()
	taken, err := m.store.CategoryNameTaken(ctx, category.Name, 0)
	if err != nil {
		apierr.Respond(c, err, "create failed")
		return
	}
	if taken {
		apierr.Respond(c, errCategoryNameTaken, "")
		return
	}

	if err := m.store.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, ErrCategoryNameTaken) {
			apierr.Respond(c, errCategoryNameTaken, "")
			return
		}
		apierr.Respond(c, err, "create failed")
		return
	}

	m.log.Info("category created", "category_id", category.ID, "name", category.Name)
	c.JSON(http.StatusOK, categoryResult{Result: apierr.OK("category created"), Category: category})
}

func (m *Module) handleUpdateCategory(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		apierr.Respond(c, apierr.NotFound("category_not_found", "category not found"), "")
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, errInvalidPayload, "")
		return
	}

	category, err := m.validateCategory(req)
	if err != nil {
		apierr.Respond(c, err, "")
		return
	}
	category.ID = id

	ctx := c.Request.Context()
	if _, err := m.store.FindCategory(ctx, id); err != nil {
		apierr.Respond(c, categoryError(err), "update failed")
		return
	}

	taken, err := m.store.CategoryNameTaken(ctx, category.Name, id)
	if err != nil {
		apierr.Respond(c, err, "update failed")
		return
	}
	if taken {
		apierr.Respond(c, errCategoryNameTaken, "")
		return
	}

	if err := m.store.UpdateCategory(ctx, category); err != nil {
		apierr.Respond(c, categoryError(err), "update failed")
		return
	}

	c.JSON(http.StatusOK, categoryResult{Result: apierr.OK("category updated"), Category: category})
}

func (m *Module) handleDeleteCategory(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		apierr.Respond(c, apierr.NotFound("category_not_found", "category not found"), "")
		return
	}

	ctx := c.Request.Context()
	category, err := m.store.FindCategory(ctx, id)
	if err != nil {
		apierr.Respond(c, categoryError(err), "delete failed")
		return
	}

	tools, components, err := m.store.CountCategoryReferences(ctx, id)
	if err != nil {
		apierr.Respond(c, err, "delete failed")
		return
	}
	if refs := tools + components; refs > 0 {
		apierr.Respond(c, apierr.Conflict("category_in_use",
			fmt.Sprintf("cannot delete category: %d tools still use it", refs)), "")
		return
	}

	if err := m.store.DeleteCategory(ctx, id); err != nil {
		apierr.Respond(c, categoryError(err), "delete failed")
		return
	}

	m.log.Info("category deleted", "category_id", id)
	c.JSON(http.StatusOK, apierr.OK(fmt.Sprintf("category %q deleted", category.DisplayName)))
}

func (m *Module) handleListTools(c *gin.Context) {
	categoryID, err := parseOptionalID(c.Query("category_id"))
	if err != nil {
		apierr.Respond(c, apierr.Validation("invalid_category", "invalid category_id"), "")
		return
	}

	filter := ListFilter{CategoryID: categoryID, Search: c.Query("search")}
	all, err := m.store.ListCombined(c.Request.Context(), filter)
	if err != nil {
		apierr.Respond(c, err, "failed to list tools")
		return
	}

	page := parseIntDefault(c.Query("page"), 1)
	perPage := parseIntDefault(c.Query("per_page"), DefaultPerPage)
	items, meta := Paginate(all, page, perPage)

	c.JSON(http.StatusOK, listToolsResponse{Tools: items, Pagination: meta})
}

func (m *Module) handleListPresetTools(c *gin.Context) {
	categoryID, err := parseOptionalID(c.Query("category_id"))
	if err != nil {
		apierr.Respond(c, apierr.Validation("invalid_category", "invalid category_id"), "")
		return
	}

	tools, err := m.store.ListPresetTools(c.Request.Context(), PresetToolFilter{
		CategoryID: categoryID,
		SortColumn: strings.TrimSpace(c.Query("sort")),
	})
	if err != nil {
		apierr.Respond(c, err, "failed to list tools")
		return
	}
	if tools == nil {
		tools = []PresetToolView{}
	}
	c.JSON(http.StatusOK, tools)
}

func (m *Module) handleCreatePresetTool(c *gin.Context) {
	var req presetToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, errInvalidPayload, "")
		return
	}

	tool, err := validatePresetTool(req)
	if err != nil {
		apierr.Respond(c, err, "")
		return
	}

	ctx := c.Request.Context()
	if err := m.requireCategory(c, tool.CategoryID); err != nil {
		apierr.Respond(c, err, "create failed")
		return
	}

	tool.PublishDate = m.now().Format(DateLayout)
	if err := m.store.CreatePresetTool(ctx, tool); err != nil {
		apierr.Respond(c, err, "create failed")
		return
	}

	m.log.Info("preset tool created", "tool_id", tool.ID, "category_id", tool.CategoryID)
	c.JSON(http.StatusOK, presetToolResult{Result: apierr.OK("tool created"), Tool: tool})
}

func (m *Module) handleUpdatePresetTool(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		apierr.Respond(c, errToolNotFound, "")
		return
	}

	var req presetToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, errInvalidPayload, "")
		return
	}

	tool, err := validatePresetTool(req)
	if err != nil {
		apierr.Respond(c, err, "")
		return
	}
	tool.ID = id

	ctx := c.Request.Context()
	existing, err := m.store.FindPresetTool(ctx, id)
	if err != nil {
		apierr.Respond(c, toolError(err), "update failed")
		return
	}
	if err := m.requireCategory(c, tool.CategoryID); err != nil {
		apierr.Respond(c, err, "update failed")
		return
	}

	if err := m.store.UpdatePresetTool(ctx, tool); err != nil {
		apierr.Respond(c, toolError(err), "update failed")
		return
	}

	tool.PublishDate = existing.PublishDate
	c.JSON(http.StatusOK, presetToolResult{Result: apierr.OK("tool updated"), Tool: tool})
}

func (m *Module) handleDeletePresetTool(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		apierr.Respond(c, errToolNotFound, "")
		return
	}

	ctx := c.Request.Context()
	tool, err := m.store.FindPresetTool(ctx, id)
	if err != nil {
		apierr.Respond(c, toolError(err), "delete failed")
		return
	}

	if err := m.store.DeletePresetTool(ctx, id); err != nil {
		apierr.Respond(c, toolError(err), "delete failed")
		return
	}

	m.log.Info("preset tool deleted", "tool_id", id)
	c.JSON(http.StatusOK, apierr.OK(fmt.Sprintf("tool %q deleted", tool.Title)))
}

var (
	errCategoryNameTaken = apierr.Conflict("category_name_taken", "category name already exists")
	errToolNotFound      = apierr.NotFound("tool_not_found", "tool not found")
)

func (m *Module) validateCategory(req categoryRequest) (*Category, error) {
	name := strings.TrimSpace(req.Name)
	displayName := strings.TrimSpace(req.DisplayName)
	if name == "" || displayName == "" {
		return nil, apierr.Validation("category_fields_required", "category name and display name are required")
	}
	if !categoryNamePattern.MatchString(name) {
		return nil, apierr.Validation("invalid_category_name", "category name may only contain letters, digits and underscores")
	}
	return &Category{Name: name, DisplayName: displayName}, nil
}

func validatePresetTool(req presetToolRequest) (*PresetTool, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, apierr.Validation("tool_fields_required", "title and description are required")
	}
	if req.CategoryID == 0 {
		return nil, apierr.Validation("category_required", "please select a category")
	}
	return &PresetTool{Title: title, Description: description, CategoryID: uint64(req.CategoryID)}, nil
}

// requireCategory reports a missing category as a validation error, since it names
// a field of the request rather than the resource being addressed.
func (m *Module) requireCategory(c *gin.Context, id uint64) error {
	if _, err := m.store.FindCategory(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return apierr.Validation("category_not_found", "category does not exist")
		}
		return err
	}
	return nil
}

func categoryError(err error) error {
	switch {
	case errors.Is(err, ErrCategoryNotFound):
		return apierr.NotFound("category_not_found", "category not found")
	case errors.Is(err, ErrCategoryNameTaken):
		return errCategoryNameTaken
	default:
		return err
	}
}

func toolError(err error) error {
	if errors.Is(err, ErrToolNotFound) {
		return errToolNotFound
	}
	return err
}

// parseID reads a non-zero unsigned id from the named path parameter.
func parseID(raw string) (uint64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, errors.New("invalid id")
	}
	id, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parseOptionalID treats an empty value and "0" as no filter.
func parseOptionalID(raw string) (uint64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, nil
	}
	return strconv.ParseUint(trimmed, 10, 64)
}

func parseIntDefault(raw string, def int) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return def
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return def
	}
	return value
}
