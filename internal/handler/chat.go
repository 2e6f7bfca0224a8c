package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rohitsolanki2392/creportfoliopulse/internal/repository"
	"github.com/rohitsolanki2392/creportfoliopulse/internal/service"
)

type ChatHandler struct {
	chatSvc *service.ChatService
}

func NewChatHandler(chatSvc *service.ChatService) *ChatHandler {
	return &ChatHandler{chatSvc: chatSvc}
}

type AskRequest struct {
	Question   string `json:"question" binding:"required"`
	SessionID  string `json:"session_id" binding:"required"`
	UserID     string `json:"user_id"`
	CompanyID  string `json:"company_id" binding:"required"`
	Category   string `json:"category"`
	BuildingID string `json:"building_id"`
	FileID     string `json:"file_id"`
	DocType    string `json:"doc_type"`
}

// Ask handles POST /v1/chat/ask.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.chatSvc.Ask(c.Request.Context(), service.AskInput{
		Question:   req.Question,
		SessionID:  req.SessionID,
		UserID:     req.UserID,
		CompanyID:  req.CompanyID,
		Category:   req.Category,
		BuildingID: req.BuildingID,
		FileID:     req.FileID,
		DocType:    req.DocType,
	})
	if err != nil {
		// A session handle owned by another company reads as absent; its
		// existence is not confirmed to the caller.
		if errors.Is(err, repository.ErrSessionScope) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process request"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// History handles GET /v1/chat/sessions/:session_id/turns.
func (h *ChatHandler) History(c *gin.Context) {
	companyID := c.Query("company_id")
	if companyID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_id is required"})
		return
	}

	turns, err := h.chatSvc.History(c.Request.Context(), c.Param("session_id"), companyID, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"turns": turns, "total": len(turns)})
}
