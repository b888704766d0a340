package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Advik16/LegalAI/internal/service"
)

type RetrieveHandler struct {
	retrievalSvc *service.RetrievalService
}

func NewRetrieveHandler(retrievalSvc *service.RetrievalService) *RetrieveHandler {
	return &RetrieveHandler{retrievalSvc: retrievalSvc}
}

type RetrieveRequest struct {
	Query string `json:"query" binding:"required"`
	TopK  int    `json:"top_k"`
}

type RetrieveResponse struct {
	Chunks []service.Match `json:"retrieved_chunks"`
}

// Retrieve returns ranked chunk matches without answer generation.
func (h *RetrieveHandler) Retrieve(c *gin.Context) {
	var req RetrieveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matches, err := h.retrievalSvc.Retrieve(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, RetrieveResponse{Chunks: matches})
}
