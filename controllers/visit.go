package controllers

import (
	"context"
	"net/http"

	"salon-backoffice/models"
	"salon-backoffice/services"
	"salon-backoffice/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VisitManager is the visit workflow the handlers drive.
type VisitManager interface {
	Create(ctx context.Context, input services.CreateVisitInput, createdBy uuid.UUID) (*models.Visit, error)
	Update(ctx context.Context, id uuid.UUID, input services.UpdateVisitInput) (*models.Visit, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Preview(ctx context.Context, input services.PreviewInput) (*services.VisitPreview, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Visit, error)
	List(ctx context.Context, f services.VisitFilter, p utils.Pagination) ([]models.Visit, int64, error)
}

type VisitController struct {
	visits VisitManager
}

func NewVisitController(visits VisitManager) *VisitController {
	return &VisitController{visits: visits}
}

func (vc *VisitController) Create(c *gin.Context) {
	var input services.CreateVisitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	visit, err := vc.visits.Create(c.Request.Context(), input, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithData(c, http.StatusCreated, visit)
}

func (vc *VisitController) Preview(c *gin.Context) {
	var input services.PreviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	preview, err := vc.visits.Preview(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, preview)
}

func (vc *VisitController) List(c *gin.Context) {
	p := utils.ParsePagination(c)

	var f services.VisitFilter
	var ok bool
	if f.CustomerID, ok = queryUUID(c, "customerId"); !ok {
		return
	}
	if f.StaffID, ok = queryUUID(c, "staffId"); !ok {
		return
	}
	if f.From, ok = queryTime(c, "from"); !ok {
		return
	}
	if f.To, ok = queryTime(c, "to"); !ok {
		return
	}
	f.IsCompleted = queryBoolPtr(c, "isCompleted")

	visits, total, err := vc.visits.List(c.Request.Context(), f, p)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithList(c, visits, p, total)
}

func (vc *VisitController) Get(c *gin.Context) {
	id, ok := parseID(c, "id", "visit")
	if !ok {
		return
	}

	visit, err := vc.visits.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, visit)
}

func (vc *VisitController) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "visit")
	if !ok {
		return
	}

	var input services.UpdateVisitInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	visit, err := vc.visits.Update(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithData(c, http.StatusOK, visit)
}

func (vc *VisitController) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "visit")
	if !ok {
		return
	}

	if err := vc.visits.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondWithMessage(c, http.StatusOK, "Visit deleted successfully", nil)
}
