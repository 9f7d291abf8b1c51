package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uni-iro/mou-registry-api/internal/dto"
	"github.com/uni-iro/mou-registry-api/internal/models"
	appErrors "github.com/uni-iro/mou-registry-api/pkg/errors"
	"github.com/uni-iro/mou-registry-api/pkg/response"
)

type mouService interface {
	Submit(ctx context.Context, claims *models.JWTClaims, req dto.SubmitMOURequest) (*models.MOU, error)
	Get(ctx context.Context, claims *models.JWTClaims, id string) (*models.MOU, error)
	List(ctx context.Context, claims *models.JWTClaims, query dto.MOUQuery) ([]models.MOU, error)
	Recent(ctx context.Context, claims *models.JWTClaims, limit int) ([]models.MOU, error)
	Pending(ctx context.Context, claims *models.JWTClaims) ([]models.MOU, error)
	Approve(ctx context.Context, claims *models.JWTClaims, id string, stage models.Stage) (*models.MOU, error)
	Reject(ctx context.Context, claims *models.JWTClaims, id string, stage models.Stage) (*models.MOU, error)
	Renew(ctx context.Context, claims *models.JWTClaims, id string, req dto.RenewMOURequest) (*models.MOU, error)
}

// MOUHandler exposes the submission and workflow endpoints.
type MOUHandler struct {
	service mouService
}

// NewMOUHandler constructs the handler.
func NewMOUHandler(service mouService) *MOUHandler {
	return &MOUHandler{service: service}
}

// Submit godoc
// @Summary Submit a new MOU
// @Tags MOU
// @Accept json
// @Produce json
// @Param payload body dto.SubmitMOURequest true "Submission payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /mous [post]
func (h *MOUHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.SubmitMOURequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	mou, err := h.service.Submit(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, mou)
}

// Get godoc
// @Summary Get a submission by ID
// @Tags MOU
// @Produce json
// @Param id path string true "MOU ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mous/{id} [get]
func (h *MOUHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	mou, err := h.service.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, mou, nil)
}

// List godoc
// @Summary List submissions visible to the caller
// @Tags MOU
// @Produce json
// @Param organizationId query string false "Filter by partner organization"
// @Param expiringWithinDays query int false "Only submissions expiring within N days"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /mous [get]
func (h *MOUHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	query := dto.MOUQuery{OrganizationID: strings.TrimSpace(c.Query("organizationId"))}
	if raw := c.Query("expiringWithinDays"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "expiringWithinDays must be a positive integer"))
			return
		}
		query.ExpiringWithin = time.Duration(days) * 24 * time.Hour
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		query.Limit = limit
	}

	mous, err := h.service.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.MOUListResponse{MOUs: mous, Total: len(mous)}, nil)
}

// Recent godoc
// @Summary Most recent submissions
// @Tags MOU
// @Produce json
// @Param limit query int false "Maximum entries (default 5)"
// @Success 200 {object} response.Envelope
// @Router /mous/recent [get]
func (h *MOUHandler) Recent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	mous, err := h.service.Recent(c.Request.Context(), claims, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.MOUListResponse{MOUs: mous, Total: len(mous)}, nil)
}

// Expiring godoc
// @Summary Submissions nearing their validity end
// @Tags MOU
// @Produce json
// @Param days query int false "Window in days (default 30)"
// @Success 200 {object} response.Envelope
// @Router /mous/expiring [get]
func (h *MOUHandler) Expiring(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "days must be a positive integer"))
			return
		}
		days = parsed
	}

	query := dto.MOUQuery{ExpiringWithin: time.Duration(days) * 24 * time.Hour}
	mous, err := h.service.List(c.Request.Context(), claims, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.MOUListResponse{MOUs: mous, Total: len(mous)}, nil)
}

// ByOrganization godoc
// @Summary Submissions linked to a partner organization
// @Tags MOU
// @Produce json
// @Param orgId query string true "Organization ID"
// @Success 200 {object} response.Envelope
// @Router /mous/by-organization [get]
func (h *MOUHandler) ByOrganization(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	orgID := strings.TrimSpace(c.Query("orgId"))
	if orgID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "orgId is required"))
		return
	}

	mous, err := h.service.List(c.Request.Context(), claims, dto.MOUQuery{OrganizationID: orgID})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.MOUListResponse{MOUs: mous, Total: len(mous)}, nil)
}

// Pending godoc
// @Summary Submissions awaiting the caller's stage
// @Tags MOU
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /mous/pending [get]
func (h *MOUHandler) Pending(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	mous, err := h.service.Pending(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dto.MOUListResponse{MOUs: mous, Total: len(mous)}, nil)
}

// Approve godoc
// @Summary Approve a submission stage
// @Tags MOU
// @Accept json
// @Produce json
// @Param id path string true "MOU ID"
// @Param payload body dto.DecisionRequest false "Optional explicit stage"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /mous/{id}/approve [post]
func (h *MOUHandler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject a submission stage
// @Tags MOU
// @Accept json
// @Produce json
// @Param id path string true "MOU ID"
// @Param payload body dto.DecisionRequest false "Optional explicit stage"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /mous/{id}/reject [post]
func (h *MOUHandler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

func (h *MOUHandler) decide(c *gin.Context, action func(context.Context, *models.JWTClaims, string, models.Stage) (*models.MOU, error)) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.DecisionRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
			return
		}
	}

	mou, err := action(c.Request.Context(), claims, c.Param("id"), req.Stage)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, mou, nil)
}

// Renew godoc
// @Summary Renew a submission
// @Description Creates a linked follow-up submission that restarts the approval workflow.
// @Tags MOU
// @Accept json
// @Produce json
// @Param id path string true "MOU ID"
// @Param payload body dto.RenewMOURequest true "Renewal payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mous/{id}/renew [post]
func (h *MOUHandler) Renew(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RenewMOURequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid renewal payload"))
		return
	}

	mou, err := h.service.Renew(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, mou)
}
