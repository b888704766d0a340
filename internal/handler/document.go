package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Advik16/LegalAI/internal/chunker"
	"github.com/Advik16/LegalAI/internal/service"
)

type DocumentHandler struct {
	ingestSvc *service.IngestService
}

func NewDocumentHandler(ingestSvc *service.IngestService) *DocumentHandler {
	return &DocumentHandler{ingestSvc: ingestSvc}
}

type PageInput struct {
	PageNumber int    `json:"page_number" binding:"required,min=1"`
	Text       string `json:"text" binding:"required"`
}

type IngestRequest struct {
	DocumentID string      `json:"document_id"`
	Title      string      `json:"title"`
	Pages      []PageInput `json:"pages" binding:"required,min=1,dive"`
}

// Ingest chunks the submitted pages, stores them and swaps in a rebuilt
// index. Supplying an existing document_id replaces that document wholesale.
func (h *DocumentHandler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pages := make([]chunker.Page, len(req.Pages))
	for i, p := range req.Pages {
		pages[i] = chunker.Page{PageNumber: p.PageNumber, Text: p.Text}
	}

	result, err := h.ingestSvc.IngestDocument(c.Request.Context(), req.DocumentID, req.Title, pages)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, result)
}
