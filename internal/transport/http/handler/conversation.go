package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"botgpt-backend/internal/app"
	"botgpt-backend/internal/model"
	"botgpt-backend/internal/pkg/pdfextract"
	"botgpt-backend/internal/transport/http/response"
)

const MaxUploadSize = 10 << 20 // 10 MB

type ConversationHandler struct {
	conversationService *app.ConversationService
}

type StartConversationRequest struct {
	UserID          uint    `json:"user_id" binding:"required"`
	FirstMessage    string  `json:"first_message" binding:"required"`
	Mode            string  `json:"mode" binding:"omitempty,oneof=open grounded"`
	DocumentContent *string `json:"document_content"`
}

type UploadConversationRequest struct {
	UserID       uint   `form:"user_id" binding:"required"`
	FirstMessage string `form:"first_message" binding:"required"`
}

type ListConversationsQuery struct {
	UserID uint `form:"user_id" binding:"required"`
	Skip   int  `form:"skip" binding:"min=0"`
	Limit  int  `form:"limit" binding:"min=0,max=100"`
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

type ChatResponse struct {
	ConversationID uint   `json:"conversation_id"`
	Response       string `json:"response"`
}

type ReplyResponse struct {
	Response string `json:"response"`
}

type ConversationSummary struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Mode      string    `json:"mode"`
	CreatedAt time.Time `json:"created_at"`
}

type MessageView struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type ConversationView struct {
	ConversationID uint          `json:"conversation_id"`
	Mode           string        `json:"mode"`
	Messages       []MessageView `json:"messages"`
}

func NewConversationHandler(conversationService *app.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func (h *ConversationHandler) Start(c *gin.Context) {
	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}
	input := app.StartInput{
		UserID:       req.UserID,
		FirstMessage: req.FirstMessage,
		Mode:         req.Mode,
	}
	if req.DocumentContent != nil {
		input.DocumentContent = *req.DocumentContent
	}
	h.start(c, input)
}

// Upload starts a grounded conversation from a .pdf or .txt file.
func (h *ConversationHandler) Upload(c *gin.Context) {
	var req UploadConversationRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Validation(c, err)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.FieldInvalid(c, "file", "required")
		return
	}
	if file.Size > MaxUploadSize {
		response.FieldInvalid(c, "file", "max")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	text, err := pdfextract.ExtractFile(file.Filename, f)
	if err != nil {
		if errors.Is(err, pdfextract.ErrUnsupportedType) {
			response.FieldInvalid(c, "file", "ext")
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to extract text: "+err.Error())
		return
	}
	if text == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file contains no extractable text")
		return
	}

	h.start(c, app.StartInput{
		UserID:          req.UserID,
		FirstMessage:    req.FirstMessage,
		Mode:            model.ModeGrounded,
		DocumentContent: text,
	})
}

func (h *ConversationHandler) start(c *gin.Context, input app.StartInput) {
	result, err := h.conversationService.Start(c.Request.Context(), input)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{ConversationID: result.ConversationID, Response: result.Response})
}

func (h *ConversationHandler) List(c *gin.Context) {
	var q ListConversationsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Validation(c, err)
		return
	}
	convs, err := h.conversationService.List(c.Request.Context(), q.UserID, q.Skip, q.Limit)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		out = append(out, ConversationSummary{
			ID:        conv.ID,
			Title:     conv.Title,
			Mode:      conv.Mode,
			CreatedAt: conv.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *ConversationHandler) Get(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.conversationService.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	view := ConversationView{
		ConversationID: detail.Conversation.ID,
		Mode:           detail.Conversation.Mode,
		Messages:       make([]MessageView, 0, len(detail.Messages)),
	}
	for _, m := range detail.Messages {
		view.Messages = append(view.Messages, MessageView{Role: m.Role, Content: m.Content, CreatedAt: m.CreatedAt})
	}
	c.JSON(http.StatusOK, view)
}

func (h *ConversationHandler) SendMessage(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Validation(c, err)
		return
	}
	reply, err := h.conversationService.SendMessage(c.Request.Context(), id, req.Message)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ReplyResponse{Response: reply})
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.conversationService.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
