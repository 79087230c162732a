// Package api exposes the marketplace's HTTP/JSON surface: auth, listings,
// and health, behind CORS and request-logging middleware.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"agriloop/auth"
	"agriloop/listing"
)

type ctxKey int

const (
	ctxKeyUserID ctxKey = iota
	ctxKeyUserType
	ctxKeyRequestID
)

type authService interface {
	Signup(ctx context.Context, req auth.SignupRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	GetUserByID(ctx context.Context, userID string) (*auth.User, error)
	VerifyToken(token string) (string, auth.UserType, error)
}

type listingService interface {
	Create(ctx context.Context, params listing.CreateParams) (listing.Listing, error)
	List(ctx context.Context) ([]listing.Listing, error)
	Delete(ctx context.Context, id string) error
}

// Server wires the HTTP transport to the domain services.
type Server struct {
	log            *zap.SugaredLogger
	authService    authService
	listingService listingService
	allowedOrigin  string
}

// NewServer builds a Server. An empty allowedOrigin permits any origin.
func NewServer(log *zap.SugaredLogger, authSvc authService, listingSvc listingService, allowedOrigin string) *Server {
	return &Server{
		log:            log,
		authService:    authSvc,
		listingService: listingSvc,
		allowedOrigin:  allowedOrigin,
	}
}

// Handler returns the full route table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/auth/signup", s.handleSignup)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/me", s.handleMe)
	mux.HandleFunc("/api/listings", s.handleListings)
	mux.HandleFunc("/api/listings/", s.handleListingDetail)
	return s.withRequestLog(s.withCORS(mux))
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserType string `json:"userType"`
}

type loginResponse struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
	Token   string       `json:"token"`
}

type listingResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	WasteType   string `json:"type"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	Location    string `json:"location"`
	Farmer      string `json:"farmer"`
	Image       string `json:"image"`
	Description string `json:"description"`
	Verified    bool   `json:"verified"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toUserResponse(u auth.User) userResponse {
	return userResponse{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		UserType: string(u.UserType),
	}
}

func toListingResponse(l listing.Listing) listingResponse {
	return listingResponse{
		ID:          l.ID,
		Title:       l.Title,
		WasteType:   l.WasteType,
		Quantity:    l.Quantity,
		Price:       l.Price,
		Location:    l.Location,
		Farmer:      l.Farmer,
		Image:       l.Image,
		Description: l.Description,
		Verified:    l.Verified,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   l.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	var req auth.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	_, err := s.authService.Signup(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, messageResponse{Message: "User created successfully!"})
	case errors.Is(err, auth.ErrDuplicateEmail):
		writeError(w, http.StatusBadRequest, "User already exists.")
	case errors.Is(err, auth.ErrMissingFields), errors.Is(err, auth.ErrInvalidUserType):
		writeError(w, http.StatusBadRequest, "All fields are required.")
	default:
		s.serverError(w, r, "signup", err)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, loginResponse{
			Message: "Login successful!",
			User:    toUserResponse(result.User),
			Token:   result.Token,
		})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "Invalid credentials.")
	default:
		s.serverError(w, r, "login", err)
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	userID, _, ok := s.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	user, err := s.authService.GetUserByID(r.Context(), userID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toUserResponse(*user))
	case errors.Is(err, auth.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
	default:
		s.serverError(w, r, "me", err)
	}
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListListings(w, r)
	case http.MethodPost:
		s.handleCreateListing(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.listingService.List(r.Context())
	if err != nil {
		s.serverError(w, r, "list listings", err)
		return
	}

	items := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		items = append(items, toListingResponse(l))
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	var params listing.CreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	_, err := s.listingService.Create(r.Context(), params)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, messageResponse{Message: "Listing created."})
	case errors.Is(err, listing.ErrInvalidListing):
		writeError(w, http.StatusBadRequest, "All fields are required.")
	default:
		s.serverError(w, r, "create listing", err)
	}
}

func (s *Server) handleListingDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/listings/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "Invalid listing id.")
		return
	}

	if _, _, ok := s.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized.")
		return
	}

	err := s.listingService.Delete(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, messageResponse{Message: "Listing deleted successfully."})
	case errors.Is(err, listing.ErrNotFound):
		writeError(w, http.StatusNotFound, "Listing not found.")
	case errors.Is(err, listing.ErrInvalidListing):
		writeError(w, http.StatusBadRequest, "Invalid listing id.")
	default:
		s.serverError(w, r, "delete listing", err)
	}
}

// authenticate resolves the caller's identity from a Bearer token, or from
// context values when an upstream middleware (or test) already resolved it.
func (s *Server) authenticate(r *http.Request) (string, auth.UserType, bool) {
	if userID, ok := r.Context().Value(ctxKeyUserID).(string); ok && userID != "" {
		userType, _ := r.Context().Value(ctxKeyUserType).(auth.UserType)
		return userID, userType, true
	}

	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}

	userID, userType, err := s.authService.VerifyToken(strings.TrimPrefix(header, prefix))
	if err != nil {
		return "", "", false
	}
	return userID, userType, true
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	origin := s.allowedOrigin
	if origin == "" {
		origin = "*"
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		r = r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, requestID))
		next.ServeHTTP(sw, r)

		if s.log != nil {
			s.log.Infow("request",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start),
			)
		}
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// serverError logs the full diagnostic and answers with a generic message.
func (s *Server) serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if s.log != nil {
		requestID, _ := r.Context().Value(ctxKeyRequestID).(string)
		s.log.Errorw(op, "request_id", requestID, "error", err)
	}
	writeError(w, http.StatusInternalServerError, "Server error.")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}
