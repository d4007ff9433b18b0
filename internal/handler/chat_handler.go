package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ragserve/internal/service"
)

// ChatHandler exposes the chat pipeline over HTTP. Pipeline failures are
// logged with their session id and failing stage but clients only ever see a
// generic failure body; prompt content never leaves the server through errors.
type ChatHandler struct {
	chat  *service.ChatService
	store *service.Store
}

func NewChatHandler(chat *service.ChatService, store *service.Store) *ChatHandler {
	return &ChatHandler{chat: chat, store: store}
}

type askRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

func (h *ChatHandler) NewChat(c *gin.Context) {
	sess := h.chat.NewSession()
	h.store.Put(sess)
	logutil.GetLogger(c.Request.Context()).Info("created new chat", zap.String("uuid", sess.ID().String()))
	c.JSON(http.StatusOK, gin.H{"uuid": sess.ID()})
}

func (h *ChatHandler) Ask(c *gin.Context) {
	logger := logutil.GetLogger(c.Request.Context())

	id, err := uuid.Parse(c.Param("uuid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat uuid"})
		return
	}
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	// The read lock is released inside Get; the slow pipeline below never
	// blocks other sessions.
	sess, ok := h.store.Get(id)
	if !ok {
		logger.Warn("chat does not exist", zap.String("uuid", id.String()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown chat uuid"})
		return
	}
	resp, err := sess.Ask(c.Request.Context(), req.Prompt)
	if err != nil {
		logger.Error("chat pipeline failed", zap.String("uuid", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AskStateless answers a single-turn question outside any session, with the
// configured similarity cutoff applied.
func (h *ChatHandler) AskStateless(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	resp, err := h.chat.Answer(c.Request.Context(), req.Prompt)
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Error("stateless ask failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, resp)
}
