package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"botgpt-backend/internal/ai"
	"botgpt-backend/internal/bootstrap"
	"botgpt-backend/internal/config"
	"botgpt-backend/internal/repository"
)

type stubLLM struct {
	mu      sync.Mutex
	err     error
	prompts [][]ai.ChatMessage
}

func (s *stubLLM) Complete(_ context.Context, messages []ai.ChatMessage) (*ai.Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, messages)
	if s.err != nil {
		return nil, s.err
	}
	return &ai.Completion{Content: fmt.Sprintf("reply #%d", len(s.prompts)), TotalTokens: 12}, nil
}

type RouterSuite struct {
	suite.Suite
	app    *bootstrap.App
	llm    *stubLLM
	router *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(s.T().Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(repository.AutoMigrate(db))

	cfg := &config.Config{
		App:       config.AppConfig{Name: "botgpt-backend", Env: "test", GinMode: gin.TestMode},
		Database:  config.DatabaseConfig{Driver: config.DriverSQLite},
		LLM:       config.LLMConfig{Provider: config.ProviderOpenAI},
		Retrieval: config.RetrievalConfig{ChunkBytes: 60, TopK: 2, HistoryWindow: 12},
	}
	s.llm = &stubLLM{}
	s.app = &bootstrap.App{Config: cfg, DB: db, StartedAt: time.Now()}
	s.app.Wire(s.llm)
	s.router = NewRouter(s.app)
}

func (s *RouterSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
}

func (s *RouterSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) decode(w *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

func (s *RouterSuite) createUser(name string) uint {
	w := s.do(stdhttp.MethodPost, "/users", map[string]any{"username": name})
	s.Require().Equal(stdhttp.StatusOK, w.Code, w.Body.String())
	var u struct {
		ID uint `json:"id"`
	}
	s.decode(w, &u)
	return u.ID
}

func (s *RouterSuite) startConversation(body map[string]any) uint {
	w := s.do(stdhttp.MethodPost, "/conversations", body)
	s.Require().Equal(stdhttp.StatusOK, w.Code, w.Body.String())
	var res struct {
		ConversationID uint `json:"conversation_id"`
	}
	s.decode(w, &res)
	return res.ConversationID
}

func (s *RouterSuite) TestRootAndHealth() {
	w := s.do(stdhttp.MethodGet, "/", nil)
	s.Equal(stdhttp.StatusOK, w.Code)
	s.Contains(w.Body.String(), "BOT GPT Backend running!")
	s.NotEmpty(w.Header().Get("X-Request-ID"))

	w = s.do(stdhttp.MethodGet, "/healthz", nil)
	s.Equal(stdhttp.StatusOK, w.Code)
	var health struct {
		Dependencies map[string]struct {
			OK      bool   `json:"ok"`
			Message string `json:"message"`
		} `json:"dependencies"`
	}
	s.decode(w, &health)
	s.True(health.Dependencies["database"].OK)
	s.Equal("disabled", health.Dependencies["redis"].Message)
}

func (s *RouterSuite) TestCreateUser() {
	w := s.do(stdhttp.MethodPost, "/users", map[string]any{"username": "bob"})
	s.Require().Equal(stdhttp.StatusOK, w.Code)
	var u struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
	}
	s.decode(w, &u)
	s.NotZero(u.ID)
	s.Equal("bob", u.Username)

	w = s.do(stdhttp.MethodPost, "/users", map[string]any{"username": "bob"})
	s.Equal(stdhttp.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "Username taken")
}

func (s *RouterSuite) TestValidationErrors() {
	w := s.do(stdhttp.MethodPost, "/users", map[string]any{})
	s.Require().Equal(422, w.Code)
	var body struct {
		Code    int `json:"code"`
		Details []struct {
			Field string `json:"field"`
			Rule  string `json:"rule"`
		} `json:"details"`
	}
	s.decode(w, &body)
	s.Equal(42200, body.Code)
	s.Require().Len(body.Details, 1)
	s.Equal("username", body.Details[0].Field)
	s.Equal("required", body.Details[0].Rule)

	w = s.do(stdhttp.MethodPost, "/conversations", map[string]any{"user_id": 1, "first_message": "hi", "mode": "chaos"})
	s.Equal(422, w.Code)
	s.Contains(w.Body.String(), `"field":"mode"`)

	w = s.do(stdhttp.MethodGet, "/conversations/abc", nil)
	s.Equal(422, w.Code)

	w = s.do(stdhttp.MethodGet, "/conversations", nil)
	s.Equal(422, w.Code)
	s.Contains(w.Body.String(), `"field":"user_id"`)
}

func (s *RouterSuite) TestStartOpenConversation() {
	userID := s.createUser("alice")

	w := s.do(stdhttp.MethodPost, "/conversations", map[string]any{
		"user_id": userID, "first_message": "Hello", "mode": "open",
	})
	s.Require().Equal(stdhttp.StatusOK, w.Code, w.Body.String())
	var res struct {
		ConversationID uint   `json:"conversation_id"`
		Response       string `json:"response"`
	}
	s.decode(w, &res)
	s.Positive(res.ConversationID)
	s.NotEmpty(res.Response)

	w = s.do(stdhttp.MethodPost, "/conversations", map[string]any{"user_id": 9999, "first_message": "Hello"})
	s.Equal(stdhttp.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestConversationFlow() {
	userID := s.createUser("carol")
	convID := s.startConversation(map[string]any{
		"user_id":          userID,
		"first_message":    "What is shipped?",
		"mode":             "grounded",
		"document_content": "Widgets are shipped on Mondays only. Gadgets leave the warehouse each Friday. Returns are accepted within thirty days.",
	})

	w := s.do(stdhttp.MethodPost, fmt.Sprintf("/conversations/%d/messages", convID), map[string]any{"message": "When do gadgets leave?"})
	s.Require().Equal(stdhttp.StatusOK, w.Code, w.Body.String())
	s.Contains(w.Body.String(), `"response":"reply #2"`)
	s.Contains(s.llm.prompts[1][0].Content, "Gadgets leave the warehouse each Friday.")

	w = s.do(stdhttp.MethodGet, fmt.Sprintf("/conversations/%d", convID), nil)
	s.Require().Equal(stdhttp.StatusOK, w.Code)
	var view struct {
		ConversationID uint   `json:"conversation_id"`
		Mode           string `json:"mode"`
		Messages       []struct {
			Role      string    `json:"role"`
			Content   string    `json:"content"`
			CreatedAt time.Time `json:"created_at"`
		} `json:"messages"`
	}
	s.decode(w, &view)
	s.Equal(convID, view.ConversationID)
	s.Equal("grounded", view.Mode)
	s.Require().Len(view.Messages, 4)
	s.Equal("user", view.Messages[2].Role)
	s.Equal("When do gadgets leave?", view.Messages[2].Content)
	s.False(view.Messages[0].CreatedAt.IsZero())

	w = s.do(stdhttp.MethodGet, fmt.Sprintf("/conversations?user_id=%d&skip=0&limit=10", userID), nil)
	s.Require().Equal(stdhttp.StatusOK, w.Code)
	var list []struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
		Mode  string `json:"mode"`
	}
	s.decode(w, &list)
	s.Require().Len(list, 1)
	s.Equal("What is shipped?", list[0].Title)
}

func (s *RouterSuite) TestDeleteConversation() {
	userID := s.createUser("dave")
	convID := s.startConversation(map[string]any{"user_id": userID, "first_message": "Hello"})

	w := s.do(stdhttp.MethodDelete, fmt.Sprintf("/conversations/%d", convID), nil)
	s.Equal(stdhttp.StatusNoContent, w.Code)
	s.Empty(w.Body.String())

	w = s.do(stdhttp.MethodGet, fmt.Sprintf("/conversations/%d", convID), nil)
	s.Equal(stdhttp.StatusNotFound, w.Code)

	n, err := s.app.Store.Messages.CountByConversationID(context.Background(), convID)
	s.Require().NoError(err)
	s.Zero(n)

	w = s.do(stdhttp.MethodDelete, fmt.Sprintf("/conversations/%d", convID), nil)
	s.Equal(stdhttp.StatusNotFound, w.Code)

	w = s.do(stdhttp.MethodPost, fmt.Sprintf("/conversations/%d/messages", convID), map[string]any{"message": "hi"})
	s.Equal(stdhttp.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestDeleteUser() {
	userID := s.createUser("erin")
	s.startConversation(map[string]any{"user_id": userID, "first_message": "Hello"})

	w := s.do(stdhttp.MethodDelete, fmt.Sprintf("/users/%d", userID), nil)
	s.Equal(stdhttp.StatusNoContent, w.Code)

	w = s.do(stdhttp.MethodGet, fmt.Sprintf("/conversations?user_id=%d", userID), nil)
	s.Require().Equal(stdhttp.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())

	w = s.do(stdhttp.MethodDelete, fmt.Sprintf("/users/%d", userID), nil)
	s.Equal(stdhttp.StatusNotFound, w.Code)
}

func (s *RouterSuite) TestLLMUnavailable() {
	userID := s.createUser("frank")
	s.llm.err = errors.New("connection refused")

	w := s.do(stdhttp.MethodPost, "/conversations", map[string]any{"user_id": userID, "first_message": "Hello"})
	s.Equal(stdhttp.StatusServiceUnavailable, w.Code)
	s.Contains(w.Body.String(), "LLM unavailable: connection refused")
}

func (s *RouterSuite) upload(fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		s.Require().NoError(err)
		_, err = part.Write(content)
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(stdhttp.MethodPost, "/conversations/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *RouterSuite) TestUploadTextDocument() {
	userID := s.createUser("gina")
	fields := map[string]string{"user_id": fmt.Sprint(userID), "first_message": "Summarise the policy"}

	w := s.upload(fields, "policy.txt", []byte("Refunds take fourteen days.\n\nExchanges are free of charge."))
	s.Require().Equal(stdhttp.StatusOK, w.Code, w.Body.String())
	var res struct {
		ConversationID uint `json:"conversation_id"`
	}
	s.decode(w, &res)

	doc, err := s.app.Store.Documents.GetByConversationID(context.Background(), res.ConversationID)
	s.Require().NoError(err)
	s.Require().NotNil(doc)
	s.Equal("Refunds take fourteen days. Exchanges are free of charge.", doc.OriginalText)

	w = s.upload(fields, "photo.png", []byte("x"))
	s.Equal(422, w.Code)
	s.Contains(w.Body.String(), `"rule":"ext"`)

	w = s.upload(fields, "", nil)
	s.Equal(422, w.Code)
	s.Contains(w.Body.String(), `"field":"file"`)
}
