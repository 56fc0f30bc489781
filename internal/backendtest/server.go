// Package backendtest is an in-memory fake of the chat REST backend. It
// issues real HS256 JWTs and rotates refresh tokens on every refresh. Tests
// can expire tokens, inject failures and hold a refresh open; the dev server
// in cmd/server serves the same handler for trying the CLI locally.
package backendtest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Grupo-Cloud/frontend/internal/client/models"
	"github.com/Grupo-Cloud/frontend/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Call is one request as seen by the server.
type Call struct {
	Method    string
	Path      string
	Token     string
	RequestID string
	Status    int
}

type account struct {
	user      models.User
	password  string
	documents []models.Document
}

type chatRecord struct {
	chat     models.Chat
	owner    uuid.UUID
	messages []models.StoredMessage
}

type Server struct {
	URL string

	srv *httptest.Server

	mu            sync.Mutex
	secret        []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	epoch         int
	users         map[string]*account
	byID          map[uuid.UUID]*account
	refreshTokens map[string]refreshToken
	chats         map[uuid.UUID]*chatRecord
	chatOrder     []uuid.UUID
	calls         []Call
	injected      map[string]int
	rotateRefresh bool
	rejectTokens  bool
	refreshStatus int
	hold          chan struct{}
	llm           func(query string) string

	refreshCalls atomic.Int64
	unauthorized atomic.Int64
}

// Options tunes a server built with NewUnstarted. Zero fields take the
// defaults used by New.
type Options struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewUnstarted builds the fake backend without listening anywhere. Serve
// Handler() yourself.
func NewUnstarted(o Options) *Server {
	if len(o.Secret) == 0 {
		o.Secret = common.GenerateRandByteArray(32)
	}
	if o.AccessTTL <= 0 {
		o.AccessTTL = time.Hour
	}
	if o.RefreshTTL <= 0 {
		o.RefreshTTL = 24 * time.Hour
	}
	return &Server{
		secret:        o.Secret,
		accessTTL:     o.AccessTTL,
		refreshTTL:    o.RefreshTTL,
		users:         make(map[string]*account),
		byID:          make(map[uuid.UUID]*account),
		refreshTokens: make(map[string]refreshToken),
		chats:         make(map[uuid.UUID]*chatRecord),
		injected:      make(map[string]int),
		rotateRefresh: true,
		llm:           func(q string) string { return "echo: " + q },
	}
}

// New starts the fake backend on a loopback port. Close it when done.
func New() *Server {
	s := NewUnstarted(Options{})
	s.srv = httptest.NewServer(s.Handler())
	s.URL = s.srv.URL
	return s
}

func (s *Server) Close() {
	if s.srv != nil {
		s.srv.Close()
	}
}

func (s *Server) Handler() http.Handler { return s.routes() }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/refresh", s.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Get("/users/me", s.handleMe)
		r.Post("/users/{userID}/documents", s.handleUpload)
		r.Delete("/users/{userID}/documents/{docID}", s.handleDeleteDocument)
		r.Post("/users/{userID}/chats", s.handleCreateChat)
		r.Delete("/users/{userID}/chats/{chatID}", s.handleDeleteChat)
		r.Get("/chats/{chatID}/messages", s.handleListMessages)
		r.Post("/chats/{chatID}/messages", s.handlePostMessage)
		r.Post("/llm/generate", s.handleGenerate)
	})
	return r
}

// record logs every call and applies injected statuses.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		s.mu.Lock()
		status, injected := s.injected[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if injected {
			writeDetail(ww, status, "injected failure")
		} else {
			next.ServeHTTP(ww, r)
		}

		if ww.Status() == http.StatusUnauthorized {
			s.unauthorized.Add(1)
		}
		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Method:    r.Method,
			Path:      r.URL.Path,
			Token:     token,
			RequestID: r.Header.Get("X-Request-ID"),
			Status:    ww.Status(),
		})
		s.mu.Unlock()
	})
}

type ctxKey struct{}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		claims, err := parseToken(strings.TrimPrefix(header, "Bearer "), s.secret)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		s.mu.Lock()
		stale := claims.Epoch != s.epoch || s.rejectTokens
		acc := s.byID[userID]
		s.mu.Unlock()

		if stale || acc == nil {
			writeDetail(w, http.StatusUnauthorized, "Token expired")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, acc.user.ID)))
	})
}

func callerID(r *http.Request) uuid.UUID {
	id, _ := r.Context().Value(ctxKey{}).(uuid.UUID)
	return id
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.users[r.PostForm.Get("username")]
	if !ok || acc.password != r.PostForm.Get("password") {
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	access, refresh, err := s.issuePair(acc.user.ID.String())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models.TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in models.UserCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if in.Username == "" || in.Password == "" || !strings.Contains(in.Email, "@") {
		writeDetail(w, http.StatusUnprocessableEntity, "username, valid email and password are required")
		return
	}

	u, err := s.AddUser(in.Username, in.Email, in.Password)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	s.mu.Lock()
	hold := s.hold
	s.mu.Unlock()
	if hold != nil {
		<-hold
	}

	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshStatus != 0 {
		writeDetail(w, s.refreshStatus, "refresh rejected")
		return
	}

	access, refresh, err := s.rotate(in.RefreshToken)
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}

	out := map[string]string{"accessToken": access}
	if s.rotateRefresh {
		out["refreshToken"] = refresh
	} else {
		// the client keeps its old refresh token, so keep it valid
		s.refreshTokens[in.RefreshToken] = s.refreshTokens[refresh]
		delete(s.refreshTokens, refresh)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.byID[callerID(r)]
	detail := models.UserDetail{User: acc.user, Documents: append([]models.Document{}, acc.documents...), Chats: []models.Chat{}}
	for _, id := range s.chatOrder {
		if c := s.chats[id]; c.owner == acc.user.ID {
			detail.Chats = append(detail.Chats, c.chat)
		}
	}
	writeJSON(w, http.StatusOK, detail)
}

// owner checks the {userID} path parameter against the caller.
func owner(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil || id != callerID(r) {
		writeDetail(w, http.StatusForbidden, "Not allowed")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := owner(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("upload_file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "upload_file is required")
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	ft := models.FileTypeFromMIME(header.Header.Get("Content-Type"))
	if ft == models.FileTypeUnknown {
		ft = models.FileTypeFromName(header.Filename)
	}
	if ft == models.FileTypeUnknown {
		writeDetail(w, http.StatusUnsupportedMediaType, "Unsupported file type")
		return
	}

	id := uuid.New()
	doc := models.Document{
		ID:         id,
		Name:       header.Filename,
		FileType:   ft,
		Size:       int64(len(content)),
		S3Location: "s3://documents/" + userID.String() + "/" + id.String(),
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	acc := s.byID[userID]
	acc.documents = append(acc.documents, doc)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := owner(w, r)
	if !ok {
		return
	}
	docID, err := uuid.Parse(chi.URLParam(r, "docID"))
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Document not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.byID[userID]
	for i, d := range acc.documents {
		if d.ID == docID {
			acc.documents = append(acc.documents[:i], acc.documents[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Document not found")
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := owner(w, r)
	if !ok {
		return
	}
	var in models.ChatCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Name == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "name is required")
		return
	}
	if in.UserID != userID {
		writeDetail(w, http.StatusForbidden, "Not allowed")
		return
	}

	c := models.Chat{ID: uuid.New(), Name: in.Name, CreationDate: time.Now().UTC().Format("2006-01-02T15:04:05.000000")}

	s.mu.Lock()
	s.chats[c.ID] = &chatRecord{chat: c, owner: userID}
	s.chatOrder = append(s.chatOrder, c.ID)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := owner(w, r)
	if !ok {
		return
	}
	chatID, _ := uuid.Parse(chi.URLParam(r, "chatID"))

	s.mu.Lock()
	defer s.mu.Unlock()

	c, found := s.chats[chatID]
	if !found || c.owner != userID {
		writeDetail(w, http.StatusNotFound, "Chat not found")
		return
	}
	delete(s.chats, chatID)
	for i, id := range s.chatOrder {
		if id == chatID {
			s.chatOrder = append(s.chatOrder[:i], s.chatOrder[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// chat returns the caller's chat named by {chatID}. Callers hold s.mu.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) (*chatRecord, bool) {
	chatID, _ := uuid.Parse(chi.URLParam(r, "chatID"))
	c, found := s.chats[chatID]
	if !found || c.owner != callerID(r) {
		writeDetail(w, http.StatusNotFound, "Chat not found")
		return nil, false
	}
	return c, true
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chat(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, append([]models.StoredMessage{}, c.messages...))
}

func (s *Server) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	var in models.Message
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chat(w, r)
	if !ok {
		return
	}
	m := models.StoredMessage{ID: uuid.New(), Message: in}
	c.messages = append(c.messages, m)
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "query is required")
		return
	}

	s.mu.Lock()
	llm := s.llm
	s.mu.Unlock()

	var out models.GenerateResponse
	out.Response.Content = llm(query)
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

var errUserExists = errors.New("username already registered")
