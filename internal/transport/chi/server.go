package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/osinter/osinter/internal/domain"
	"github.com/osinter/osinter/internal/domain/ids"
	"github.com/osinter/osinter/internal/domain/item"
	"github.com/osinter/osinter/internal/domain/search/order"
	"github.com/osinter/osinter/internal/logger"
	healthuc "github.com/osinter/osinter/internal/usecase/health"
	searchuc "github.com/osinter/osinter/internal/usecase/search"
	subscriptionuc "github.com/osinter/osinter/internal/usecase/subscription"
	useruc "github.com/osinter/osinter/internal/usecase/user"
)

// RetryAfterSeconds is advertised with write contention responses.
const RetryAfterSeconds = 1

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the osinter API.
type Server struct {
	users         *useruc.Service
	subs          *subscriptionuc.Service
	articles      *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	users *useruc.Service,
	subs *subscriptionuc.Service,
	articles *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		users:    users,
		subs:     subs,
		articles: articles,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		revisionConflictHandler,
		contentionHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, ErrorResponseCodeForbidden),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorResponseCodeAlreadyExists),
		sentinelHandler(domain.ErrValidation, http.StatusUnprocessableEntity, ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidCredentials, http.StatusUnauthorized, ErrorResponseCodeInvalidCredentials),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, ErrorResponseCodeStoreUnavailable),
		sentinelHandler(domain.ErrSearchUnavailable,
			http.StatusServiceUnavailable, ErrorResponseCodeSearchUnavailable),
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, ErrorResponseCodeNotImplemented),
	}
	return s
}

// Signup handles POST /auth/signup.
func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := s.users.Signup(r.Context(), useruc.SignupParams{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Code:     req.SignupCode,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, userToResponse(u))
}

// AuthStatus handles GET /auth/status.
func (s *Server) AuthStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userToResponse(UserFromContext(r.Context())))
}

// ChangeCredentials handles POST /auth/credentials.
func (s *Server) ChangeCredentials(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}

	current := UserFromContext(r.Context())
	u, err := s.users.ChangeCredentials(r.Context(), current.ID(), req.Password, useruc.CredentialChange{
		Username: req.NewUsername,
		Password: req.NewPassword,
		Email:    req.NewEmail,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userToResponse(u))
}

// RemoveAccount handles DELETE /auth/user.
func (s *Server) RemoveAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Remove(r.Context(), UserFromContext(r.Context()).Username()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ModifySubscription handles POST /my/subscriptions.
func (s *Server) ModifySubscription(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	action := subscriptionuc.Action(req.Action)
	if !action.IsValid() {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest,
			`action must be "subscribe" or "unsubscribe"`)
		return
	}

	u, err := s.subs.ModifySubscription(
		r.Context(), UserFromContext(r.Context()).ID(), domain.Kind(req.Kind), ids.New(req.IDs...), action,
	)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userToResponse(u))
}

// ListFeeds handles GET /my/feeds/list.
func (s *Server) ListFeeds(w http.ResponseWriter, r *http.Request) {
	s.listItems(w, r, domain.KindFeed)
}

// ListCollections handles GET /my/collections/list.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	s.listItems(w, r, domain.KindCollection)
}

func (s *Server) listItems(w http.ResponseWriter, r *http.Request, kind domain.Kind) {
	list, err := s.subs.ListItems(r.Context(), UserFromContext(r.Context()).ID(), kind)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetMyFeeds handles GET /my/feeds.
func (s *Server) GetMyFeeds(w http.ResponseWriter, r *http.Request) {
	feeds, err := s.subs.Feeds(r.Context(), UserFromContext(r.Context()).ID())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	out := make(map[string]FeedResponse, len(feeds))
	for id, f := range feeds {
		out[id] = feedToResponse(f)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetMyCollections handles GET /my/collections.
func (s *Server) GetMyCollections(w http.ResponseWriter, r *http.Request) {
	colls, err := s.subs.Collections(r.Context(), UserFromContext(r.Context()).ID())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	out := make(map[string]CollectionResponse, len(colls))
	for id, c := range colls {
		out[id] = collectionToResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateFeed handles POST /user-items/feed. The creator owns and is subscribed to the new feed.
func (s *Server) CreateFeed(w http.ResponseWriter, r *http.Request) {
	var req FeedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	owner := UserFromContext(r.Context()).ID()
	f, err := s.subs.CreateFeed(r.Context(), feedParamsFromRequest(req), req.Name, owner)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedToResponse(f))
}

// CreateCollection handles POST /user-items/collection. The creator owns and is subscribed to it.
func (s *Server) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req CollectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	owner := UserFromContext(r.Context()).ID()
	c, err := s.subs.CreateCollection(r.Context(), req.Name, owner, ids.New(req.IDs...))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, collectionToResponse(c))
}

// GetFeed handles GET /user-items/feed/{id}.
func (s *Server) GetFeed(w http.ResponseWriter, r *http.Request, id string) {
	f, err := s.subs.Feed(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedToResponse(f))
}

// GetCollection handles GET /user-items/collection/{id}.
func (s *Server) GetCollection(w http.ResponseWriter, r *http.Request, id string) {
	c, err := s.subs.Collection(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionToResponse(c))
}

// UpdateFeed handles PUT /user-items/feed/{id}. Absent fields are kept.
func (s *Server) UpdateFeed(w http.ResponseWriter, r *http.Request, id string) {
	var req FeedRequest
	if !decodeBody(w, r, &req) {
		return
	}

	f, err := s.subs.ModifyFeed(r.Context(), id, feedPatchFromRequest(req), UserFromContext(r.Context()).ID())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feedToResponse(f))
}

// UpdateCollection handles PUT /user-items/collection/{id}.
func (s *Server) UpdateCollection(w http.ResponseWriter, r *http.Request, id string) {
	var req CollectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := s.subs.ModifyCollection(r.Context(), id, ids.New(req.IDs...), UserFromContext(r.Context()).ID())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, collectionToResponse(c))
}

// RenameItem handles PUT /user-items/{id}/name.
func (s *Server) RenameItem(w http.ResponseWriter, r *http.Request, id string) {
	var req RenameRequest
	if !decodeBody(w, r, &req) {
		return
	}

	o, err := s.subs.RenameItem(r.Context(), id, req.Name, UserFromContext(r.Context()).ID())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, o.Base().Summary())
}

// RemoveItem handles DELETE /user-items/{id}.
func (s *Server) RemoveItem(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.subs.RemoveItem(r.Context(), id, UserFromContext(r.Context()).ID()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchArticles handles GET /articles/search.
func (s *Server) SearchArticles(w http.ResponseWriter, r *http.Request, params SearchArticlesParams) {
	page, err := s.articles.Search(r.Context(), params.toRequest())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// NewestArticles handles GET /articles/overview/newest.
func (s *Server) NewestArticles(w http.ResponseWriter, r *http.Request) {
	page, err := s.articles.Newest(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// FeedArticles handles GET /articles/feed/{id}.
func (s *Server) FeedArticles(w http.ResponseWriter, r *http.Request, id string, params FeedArticlesParams) {
	limit := 0
	if params.Limit != nil {
		limit = *params.Limit
	}
	page, err := s.articles.FeedSearch(r.Context(), id, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func feedParamsFromRequest(req FeedRequest) item.FeedParams {
	var p item.FeedParams
	if req.Limit != nil {
		p.Limit = *req.Limit
	}
	if req.SortBy != nil {
		p.SortBy = order.Field(*req.SortBy)
	}
	if req.SortOrder != nil {
		p.SortOrder = order.Direction(*req.SortOrder)
	}
	if req.SearchTerm != nil {
		p.SearchTerm = *req.SearchTerm
	}
	if req.Highlight != nil {
		p.Highlight = *req.Highlight
	}
	p.FirstDate = req.FirstDate
	p.LastDate = req.LastDate
	if len(req.SourceCategory) > 0 {
		p.SourceCategory = ids.New(req.SourceCategory...)
	}
	return p
}

func feedPatchFromRequest(req FeedRequest) item.FeedPatch {
	p := item.FeedPatch{
		Limit:      req.Limit,
		SearchTerm: req.SearchTerm,
		Highlight:  req.Highlight,
		FirstDate:  req.FirstDate,
		LastDate:   req.LastDate,
	}
	if req.SortBy != nil {
		f := order.Field(*req.SortBy)
		p.SortBy = &f
	}
	if req.SortOrder != nil {
		d := order.Direction(*req.SortOrder)
		p.SortOrder = &d
	}
	if req.SourceCategory != nil {
		p.SourceCategory = ids.New(req.SourceCategory...)
	}
	return p
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation messages are written for clients and pass through whole.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrValidation) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrForbidden,
		domain.ErrAlreadyExists,
		domain.ErrRevisionConflict,
		domain.ErrWriteContention,
		domain.ErrInvalidCredentials,
		domain.ErrStoreUnavailable,
		domain.ErrSearchUnavailable,
		domain.ErrNotImplemented,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// revisionConflictHandler handles ErrRevisionConflict with ETag header and extra fields.
func revisionConflictHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRevisionConflict) {
		return false
	}
	var rce *domain.RevisionConflictError
	if errors.As(err, &rce) && rce.CurrentRevision != "" {
		w.Header().Set("ETag", strconv.Quote(rce.CurrentRevision))
		writeJSON(w, http.StatusConflict, map[string]any{
			"code":             ErrorResponseCodeRevisionConflict,
			"message":          msg,
			"current_revision": rce.CurrentRevision,
		})
		return true
	}
	writeError(w, http.StatusConflict, ErrorResponseCodeRevisionConflict, msg)
	return true
}

// contentionHandler handles ErrWriteContention with a Retry-After hint.
func contentionHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrWriteContention) {
		return false
	}
	w.Header().Set("Retry-After", strconv.Itoa(RetryAfterSeconds))
	writeError(w, http.StatusConflict, ErrorResponseCodeWriteContention, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
