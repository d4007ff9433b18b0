package handler

import (
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Chat *ChatHandler
}

func RegisterRoutes(r *gin.RouterGroup, deps RouterDeps) {
	r.GET("/new_chat", deps.Chat.NewChat)
	r.POST("/ask", deps.Chat.AskStateless)
	r.POST("/:uuid/ask", deps.Chat.Ask)
}
