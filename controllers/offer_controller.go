package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daniilbelik94/online-shop-sub002/models"
	"github.com/daniilbelik94/online-shop-sub002/services"
)

// OfferController handles HTTP requests for promotional offers.
type OfferController struct {
	offerService services.OfferService
}

// NewOfferController creates a new OfferController.
func NewOfferController(offerService services.OfferService) *OfferController {
	return &OfferController{offerService: offerService}
}

// ListOffers handles GET /offers: every currently-valid offer, for
// merchandising display.
func (oc *OfferController) ListOffers(ctx *gin.Context) {
	offers, svcErr := oc.offerService.ListActiveOffers(ctx.Request.Context())
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"offers": offers})
}

// CreateOffer handles POST /offers (admin only).
func (oc *OfferController) CreateOffer(ctx *gin.Context) {
	var req models.CreateOfferRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "details": err.Error()})
		return
	}

	offer, svcErr := oc.offerService.CreateOffer(ctx.Request.Context(), &req)
	if svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"offer": offer})
}

// DeactivateOffer handles DELETE /offers/:id (admin only).
func (oc *OfferController) DeactivateOffer(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offer ID"})
		return
	}

	if svcErr := oc.offerService.DeactivateOffer(ctx.Request.Context(), id); svcErr != nil {
		ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Offer deactivated"})
}
