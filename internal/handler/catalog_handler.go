package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stemsi/krs-backend/internal/model"
	"github.com/stemsi/krs-backend/internal/response"
	"github.com/stemsi/krs-backend/internal/service"
	"github.com/stemsi/krs-backend/internal/validator"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCourses godoc
// GET /api/v1/public/catalog/courses
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.catalogService.GetAll(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if courses == nil {
		courses = []model.Course{}
	}

	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// GetCourse godoc
// GET /api/v1/public/catalog/courses/:code
func (h *CatalogHandler) GetCourse(c *gin.Context) {
	course, err := h.catalogService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// CreateCourse godoc
// POST /api/v1/admin/courses
func (h *CatalogHandler) CreateCourse(c *gin.Context) {
	var req model.CreateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.catalogService.Create(c.Request.Context(), &req)
	if err != nil {
		failCatalogError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"course": course})
}

// UpdateCourse godoc
// PUT /api/v1/admin/courses/:code
func (h *CatalogHandler) UpdateCourse(c *gin.Context) {
	var req model.UpdateCourseRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	course, err := h.catalogService.Update(c.Request.Context(), c.Param("code"), &req)
	if err != nil {
		failCatalogError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course": course})
}

// DeleteCourse godoc
// DELETE /api/v1/admin/courses/:code
func (h *CatalogHandler) DeleteCourse(c *gin.Context) {
	if err := h.catalogService.Delete(c.Request.Context(), c.Param("code")); err != nil {
		failCatalogError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "course deleted successfully"})
}

// RefreshCache godoc
// POST /api/v1/admin/catalog/refresh-cache
func (h *CatalogHandler) RefreshCache(c *gin.Context) {
	if err := h.catalogService.PrewarmCache(c.Request.Context()); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "catalog cache refreshed"})
}

func failCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrInvalidSchedule),
		errors.Is(err, model.ErrInvalidDay),
		errors.Is(err, model.ErrInvalidInterval),
		errors.Is(err, model.ErrInvalidCredits):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidSchedule, map[string]string{
			"detail": err.Error(),
		})
	case isUniqueViolation(err):
		response.Fail(c, http.StatusConflict, response.ErrConflict)
	case isForeignKeyViolation(err):
		response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
