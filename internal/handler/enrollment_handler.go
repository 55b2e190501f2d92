package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/krs-backend/internal/eligibility"
	"github.com/stemsi/krs-backend/internal/middleware"
	"github.com/stemsi/krs-backend/internal/model"
	"github.com/stemsi/krs-backend/internal/response"
	"github.com/stemsi/krs-backend/internal/service"
	"github.com/stemsi/krs-backend/internal/validator"
)

// EnrollmentHandler serves the student KRS portal: study plan, eligibility
// preview, enroll and withdraw.
type EnrollmentHandler struct {
	enrollmentService *service.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// GetPlan godoc
// GET /api/v1/student/plan
func (h *EnrollmentHandler) GetPlan(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	plan, err := h.enrollmentService.Plan(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"plan": plan})
}

// CheckEligibility godoc
// GET /api/v1/student/courses/:code/eligibility
// Runs the rule check without enrolling. The decision is informational:
// POST /enrollments re-evaluates under the per-student lock.
func (h *EnrollmentHandler) CheckEligibility(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	decision, course, err := h.enrollmentService.Evaluate(c.Request.Context(), claims.UserID, c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"course":   course,
		"decision": decision,
	})
}

// Enroll godoc
// POST /api/v1/student/enrollments
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.EnrollRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), claims.UserID, req.CourseCode)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		var ineligible *service.IneligibleError
		if errors.As(err, &ineligible) {
			failIneligible(c, ineligible.Decision)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"enrollment": enrollment})
}

// Withdraw godoc
// DELETE /api/v1/student/enrollments/:code
func (h *EnrollmentHandler) Withdraw(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	err := h.enrollmentService.Withdraw(c.Request.Context(), claims.UserID, c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		if errors.Is(err, service.ErrNotEnrolled) {
			response.Fail(c, http.StatusConflict, response.ErrNotEnrolled)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "enrollment withdrawn"})
}

// failIneligible maps an evaluator rejection to its HTTP error, attaching
// the offending course code when the rule names one.
func failIneligible(c *gin.Context, d eligibility.Decision) {
	code := response.ErrInternal
	switch d.Reason {
	case eligibility.ReasonAlreadyEnrolled:
		code = response.ErrAlreadyEnrolled
	case eligibility.ReasonMissingPrerequisite:
		code = response.ErrMissingPrerequisite
	case eligibility.ReasonCreditLimitExceeded:
		code = response.ErrCreditLimitExceeded
	case eligibility.ReasonScheduleConflict:
		code = response.ErrScheduleConflict
	}

	if d.CourseCode != "" {
		response.FailWithFields(c, http.StatusConflict, code, map[string]string{
			"course_code": d.CourseCode,
		})
		return
	}
	response.Fail(c, http.StatusConflict, code)
}
