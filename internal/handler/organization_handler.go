package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/uni-iro/mou-registry-api/internal/models"
	appErrors "github.com/uni-iro/mou-registry-api/pkg/errors"
	"github.com/uni-iro/mou-registry-api/pkg/response"
)

type organizationService interface {
	List(ctx context.Context) ([]models.Organization, error)
	Get(ctx context.Context, id string) (*models.Organization, error)
	Create(ctx context.Context, org *models.Organization) (*models.Organization, error)
}

// OrganizationHandler exposes the partner organization directory.
type OrganizationHandler struct {
	service organizationService
}

// NewOrganizationHandler constructs the handler.
func NewOrganizationHandler(service organizationService) *OrganizationHandler {
	return &OrganizationHandler{service: service}
}

// List godoc
// @Summary List partner organizations
// @Tags Organizations
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /organizations [get]
func (h *OrganizationHandler) List(c *gin.Context) {
	orgs, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, orgs, nil)
}

// Get godoc
// @Summary Get a partner organization by ID
// @Tags Organizations
// @Produce json
// @Param id path string true "Organization ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /organizations/{id} [get]
func (h *OrganizationHandler) Get(c *gin.Context) {
	org, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, org, nil)
}

// Create godoc
// @Summary Register a partner organization
// @Tags Organizations
// @Accept json
// @Produce json
// @Param payload body models.Organization true "Organization payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /organizations [post]
func (h *OrganizationHandler) Create(c *gin.Context) {
	var org models.Organization
	if err := c.ShouldBindJSON(&org); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid organization payload"))
		return
	}

	created, err := h.service.Create(c.Request.Context(), &org)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, created)
}
