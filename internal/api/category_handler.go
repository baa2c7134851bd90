package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/taxonomy"
)

const categoryNotFound = "Category not found"

// CategoryHandler 暴露分类与子分类管理接口。
type CategoryHandler struct {
	taxonomy *taxonomy.Service
}

func NewCategoryHandler(svc *taxonomy.Service) *CategoryHandler {
	return &CategoryHandler{taxonomy: svc}
}

// List GET /categories
func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.taxonomy.List(c.Request.Context())
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

type createCategoryRequest struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

// Create POST /categories
func (h *CategoryHandler) Create(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	var req createCategoryRequest
	if !bindJSON(c, &req, false) {
		return
	}
	category, err := h.taxonomy.Create(c.Request.Context(), session, req.Name, req.Subcategories)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

type renameCategoryRequest struct {
	Name string `json:"name"`
}

// Rename PUT /categories/:id
func (h *CategoryHandler) Rename(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, categoryNotFound)
	if !ok {
		return
	}
	var req renameCategoryRequest
	if !bindJSON(c, &req, false) {
		return
	}
	category, err := h.taxonomy.Rename(c.Request.Context(), session, id, req.Name)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// Delete DELETE /categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, categoryNotFound)
	if !ok {
		return
	}
	if err := h.taxonomy.Delete(c.Request.Context(), session, id); err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category and related jobs deleted"})
}

type subcategoryRequest struct {
	Subcategory string `json:"subcategory"`
}

// AddSubcategory POST /categories/:id/subcategories
func (h *CategoryHandler) AddSubcategory(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, categoryNotFound)
	if !ok {
		return
	}
	var req subcategoryRequest
	if !bindJSON(c, &req, false) {
		return
	}
	category, err := h.taxonomy.AddSubcategory(c.Request.Context(), session, id, req.Subcategory)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// RemoveSubcategory DELETE /categories/:id/subcategories
func (h *CategoryHandler) RemoveSubcategory(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, categoryNotFound)
	if !ok {
		return
	}
	var req subcategoryRequest
	if !bindJSON(c, &req, false) {
		return
	}
	category, err := h.taxonomy.RemoveSubcategory(c.Request.Context(), session, id, req.Subcategory)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

type renameSubcategoryRequest struct {
	OldSubcategory string `json:"oldSubcategory"`
	NewSubcategory string `json:"newSubcategory"`
}

// RenameSubcategory PUT /categories/:id/subcategories
func (h *CategoryHandler) RenameSubcategory(c *gin.Context) {
	session, ok := sessionOrAbort(c)
	if !ok {
		return
	}
	id, ok := pathID(c, categoryNotFound)
	if !ok {
		return
	}
	var req renameSubcategoryRequest
	if !bindJSON(c, &req, false) {
		return
	}
	category, err := h.taxonomy.RenameSubcategory(c.Request.Context(), session, id, req.OldSubcategory, req.NewSubcategory)
	if err != nil {
		Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}
