package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Advik16/LegalAI/internal/service"
	"github.com/Advik16/LegalAI/internal/streaming"
)

type QueryHandler struct {
	retrievalSvc *service.RetrievalService
	controller   *streaming.Controller
	log          *logrus.Entry
}

func NewQueryHandler(retrievalSvc *service.RetrievalService, controller *streaming.Controller, log *logrus.Logger) *QueryHandler {
	return &QueryHandler{
		retrievalSvc: retrievalSvc,
		controller:   controller,
		log:          log.WithField("component", "query_handler"),
	}
}

type QueryRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k"`
	UserID   string `json:"user_id"`
}

type ChatRequest struct {
	Question       string `json:"question" binding:"required"`
	ConversationID string `json:"conversation_id" binding:"required"`
}

// Stream answers a fresh question as a server-sent event stream: a source
// event, one event per token, a final event, then the done sentinel.
func (h *QueryHandler) Stream(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.log.WithField("question", req.Question).Info("new streaming query")

	matches, err := h.retrievalSvc.Retrieve(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(matches) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no relevant chunks found"})
		return
	}

	events := h.controller.Answer(c.Request.Context(), streaming.AnswerRequest{
		UserID:   req.UserID,
		Question: req.Question,
		Match:    matches[0],
	})
	h.writeStream(c, events)
}

// ChatStream continues an existing conversation. A missing conversation
// surfaces as an error event inside the stream, not an HTTP error.
func (h *QueryHandler) ChatStream(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.log.WithField("conversation_id", req.ConversationID).Info("continuing conversation")

	events := h.controller.Continue(c.Request.Context(), req.ConversationID, req.Question)
	h.writeStream(c, events)
}

// writeStream drains the event channel to completion even if the client is
// gone, so the controller's persistence step is never abandoned mid-flight.
func (h *QueryHandler) writeStream(c *gin.Context, events <-chan streaming.Event) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	for ev := range events {
		payload, err := ev.Payload()
		if err != nil {
			h.log.WithError(err).Error("failed to encode stream event")
			continue
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		c.Writer.Flush()
	}
}
