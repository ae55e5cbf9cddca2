package http

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"botgpt-backend/internal/bootstrap"
	"botgpt-backend/internal/transport/http/handler"
	"botgpt-backend/internal/transport/http/middleware"
	"botgpt-backend/internal/transport/http/response"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	response.UseWireFieldNames()

	router := gin.New()
	router.MaxMultipartMemory = handler.MaxUploadSize
	router.Use(
		middleware.RequestID(),
		gin.LoggerWithFormatter(logFormatter),
		gin.Recovery(),
		cors.Default(),
	)

	healthHandler := handler.NewHealthHandler(app)
	userHandler := handler.NewUserHandler(app.Users)
	conversationHandler := handler.NewConversationHandler(app.Conversations)

	router.GET("/", healthHandler.Root)
	router.GET("/healthz", healthHandler.Check)

	users := router.Group("/users")
	users.POST("", userHandler.Create)
	users.DELETE("/:id", userHandler.Delete)

	conversations := router.Group("/conversations")
	conversations.POST("", conversationHandler.Start)
	conversations.POST("/upload", conversationHandler.Upload)
	conversations.GET("", conversationHandler.List)
	conversations.GET("/:id", conversationHandler.Get)
	conversations.POST("/:id/messages", conversationHandler.SendMessage)
	conversations.DELETE("/:id", conversationHandler.Delete)

	return router
}

func logFormatter(param gin.LogFormatterParams) string {
	requestID, _ := param.Keys[middleware.ContextRequestIDKey].(string)
	line := fmt.Sprintf("%s | %3d | %13v | %15s | %-7s %s | request_id=%s",
		param.TimeStamp.Format(time.RFC3339),
		param.StatusCode,
		param.Latency,
		param.ClientIP,
		param.Method,
		param.Path,
		requestID,
	)
	if param.ErrorMessage != "" {
		line += " | " + param.ErrorMessage
	}
	return line + "\n"
}
