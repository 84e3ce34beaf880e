package handler

import (
	"errors"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zapify/zapify/internal/pkg/response"
	"github.com/zapify/zapify/internal/storage"
	"github.com/zapify/zapify/internal/storage/model"
)

var templateVar = regexp.MustCompile(`\{\{(\w+)\}\}`)

type TemplateHandler struct {
	templates storage.TemplateRepository
}

func NewTemplateHandler(templates storage.TemplateRepository) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

func (h *TemplateHandler) Register(r *gin.RouterGroup) {
	r.GET("/templates", h.list)
	r.GET("/templates/categories", h.listCategories)
	r.GET("/templates/:id", h.get)
	r.POST("/templates", h.create)
	r.PUT("/templates/:id", h.update)
	r.DELETE("/templates/:id", h.delete)
	r.POST("/templates/:id/preview", h.preview)
}

func (h *TemplateHandler) list(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	if category := c.Query("category"); category != "" {
		filtered := templates[:0:0]
		for _, tpl := range templates {
			if tpl.Category == category {
				filtered = append(filtered, tpl)
			}
		}
		templates = filtered
	}
	if templates == nil {
		templates = []model.Template{}
	}
	response.Success(c, http.StatusOK, templates)
}

func (h *TemplateHandler) listCategories(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	seen := map[string]struct{}{}
	for _, tpl := range templates {
		if tpl.Category != "" {
			seen[tpl.Category] = struct{}{}
		}
	}

	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	response.Success(c, http.StatusOK, categories)
}

func (h *TemplateHandler) get(c *gin.Context) {
	tpl, err := h.templates.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "template não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, tpl)
}

type templateRequest struct {
	Name     string `json:"name" binding:"required"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category"`
	IsActive *bool  `json:"isActive"`
}

func (h *TemplateHandler) create(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	tpl, err := h.templates.Create(c.Request.Context(), model.Template{
		Name:      req.Name,
		Content:   req.Content,
		Variables: extractVariables(req.Content),
		Category:  req.Category,
		IsActive:  isActive,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusCreated, tpl)
}

func (h *TemplateHandler) update(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	tpl, err := h.templates.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "template não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	tpl.Name = req.Name
	tpl.Content = req.Content
	tpl.Variables = extractVariables(req.Content)
	tpl.Category = req.Category
	if req.IsActive != nil {
		tpl.IsActive = *req.IsActive
	}

	updated, err := h.templates.Update(c.Request.Context(), tpl)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, updated)
}

func (h *TemplateHandler) delete(c *gin.Context) {
	if err := h.templates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "template não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "template removido com sucesso"})
}

type previewRequest struct {
	Variables map[string]string `json:"variables"`
}

func (h *TemplateHandler) preview(c *gin.Context) {
	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, err)
		return
	}

	tpl, err := h.templates.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.ErrorWithMessage(c, http.StatusNotFound, "template não encontrado")
			return
		}
		response.Error(c, http.StatusInternalServerError, err)
		return
	}

	preview := tpl.Content
	for key, value := range req.Variables {
		preview = strings.ReplaceAll(preview, "{{"+key+"}}", value)
	}

	response.Success(c, http.StatusOK, gin.H{"preview": preview})
}

// extractVariables lista os nomes {{var}} distintos do conteúdo, na ordem em
// que aparecem.
func extractVariables(content string) []string {
	seen := map[string]struct{}{}
	variables := []string{}
	for _, match := range templateVar.FindAllStringSubmatch(content, -1) {
		if _, ok := seen[match[1]]; ok {
			continue
		}
		seen[match[1]] = struct{}{}
		variables = append(variables, match[1])
	}
	return variables
}
