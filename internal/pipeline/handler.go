package pipeline

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	httperr "github.com/stageline-lab/stageline/internal/core/errors"
	"github.com/stageline-lab/stageline/internal/core/storage"
	"github.com/stageline-lab/stageline/internal/crm"
)

const (
	msgCompanyNotFound = "Company not found"
	msgInvalidID       = "Invalid company id"
	msgInvalidJSON     = "Invalid JSON body"
	msgInternal        = "Internal error"
)

// apiError carries the structured HTTP error shape from a helper back to the
// handler. Helpers return this instead of writing to gin.Context directly,
// keeping them decoupled from HTTP.
type apiError struct {
	statusCode int
	errorType  string
	message    string
}

func (e *apiError) Error() string {
	return e.message
}

// RegisterRoutes mounts the pipeline API on the router.
func (s *Service) RegisterRoutes(r *gin.Engine) {
	v1 := r.Group("/v1")
	v1.POST("/companies", s.CreateCompanyHandler)
	v1.GET("/companies", s.ListCompaniesHandler)
	v1.GET("/companies/:id/card", s.CardHandler)
	v1.POST("/companies/:id/actions", s.ActionHandler)
	v1.POST("/companies/:id/advance", s.AdvanceHandler)
}

type createCompanyRequest struct {
	Name string `json:"name" binding:"required"`
}

type actionRequest struct {
	Action string         `json:"action" binding:"required"`
	Data   map[string]any `json:"data"`
}

// CreateCompanyHandler handles POST /v1/companies.
func (s *Service) CreateCompanyHandler(c *gin.Context) {
	var req createCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &apiError{http.StatusBadRequest, httperr.HttpInvalidJsonError, msgInvalidJSON})
		return
	}

	id, err := s.CreateCompany(c.Request.Context(), req.Name)
	if err != nil {
		slog.Error("Failed to create company", "error", err)
		writeError(c, &apiError{http.StatusInternalServerError, httperr.HttpInternalError, msgInternal})
		return
	}

	slog.Info("Created company", "company_id", id, "name", req.Name)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListCompaniesHandler handles GET /v1/companies.
func (s *Service) ListCompaniesHandler(c *gin.Context) {
	companies, err := s.ListCompanies(c.Request.Context())
	if err != nil {
		slog.Error("Failed to list companies", "error", err)
		writeError(c, &apiError{http.StatusInternalServerError, httperr.HttpInternalError, msgInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"companies": companies})
}

// CardHandler handles GET /v1/companies/:id/card.
func (s *Service) CardHandler(c *gin.Context) {
	id, apiErr := companyIDParam(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	card, err := s.CompanyCard(c.Request.Context(), id)
	if err != nil {
		writeError(c, storeError(err, id))
		return
	}
	c.JSON(http.StatusOK, card)
}

// ActionHandler handles POST /v1/companies/:id/actions.
//
// A restricted action is a business outcome, not a transport error: it comes
// back 200 with success=false. Only malformed input and unknown ids map to
// HTTP error statuses.
func (s *Service) ActionHandler(c *gin.Context) {
	id, apiErr := companyIDParam(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &apiError{http.StatusBadRequest, httperr.HttpInvalidJsonError, msgInvalidJSON})
		return
	}

	action, err := crm.ParseEventType(req.Action)
	if err != nil {
		writeError(c, &apiError{http.StatusBadRequest, httperr.HttpUnknownActionError, "Unknown action: " + req.Action})
		return
	}

	result, err := s.PerformAction(c.Request.Context(), id, action, req.Data)
	if err != nil {
		writeError(c, storeError(err, id))
		return
	}
	c.JSON(http.StatusOK, result)
}

// AdvanceHandler handles POST /v1/companies/:id/advance.
func (s *Service) AdvanceHandler(c *gin.Context) {
	id, apiErr := companyIDParam(c)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	result, err := s.TryAdvance(c.Request.Context(), id)
	if err != nil {
		writeError(c, storeError(err, id))
		return
	}
	c.JSON(http.StatusOK, result)
}

func companyIDParam(c *gin.Context) (int64, *apiError) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &apiError{http.StatusBadRequest, httperr.HttpInvalidRequestError, msgInvalidID}
	}
	return id, nil
}

// storeError maps a store failure to its HTTP shape.
func storeError(err error, companyID int64) *apiError {
	if errors.Is(err, storage.ErrNotFound) {
		return &apiError{http.StatusNotFound, httperr.HttpCompanyNotFoundError, msgCompanyNotFound}
	}
	slog.Error("Store operation failed", "error", err, "company_id", companyID)
	return &apiError{http.StatusInternalServerError, httperr.HttpInternalError, msgInternal}
}

// writeError serializes an apiError as the JSON HTTP response.
func writeError(c *gin.Context, err *apiError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
	})
}
