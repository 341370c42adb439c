package chi

import (
	"time"

	"github.com/osinter/osinter/internal/domain/item"
	domuser "github.com/osinter/osinter/internal/domain/user"
	"github.com/osinter/osinter/internal/domain/search/result"
)

// ErrorResponseCode is the machine-readable error code of an ErrorResponse.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest         ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed   ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized       ErrorResponseCode = "unauthorized"
	ErrorResponseCodeInvalidCredentials ErrorResponseCode = "invalid_credentials"
	ErrorResponseCodeForbidden          ErrorResponseCode = "forbidden"
	ErrorResponseCodeNotFound           ErrorResponseCode = "not_found"
	ErrorResponseCodeAlreadyExists      ErrorResponseCode = "already_exists"
	ErrorResponseCodeRevisionConflict   ErrorResponseCode = "revision_conflict"
	ErrorResponseCodeWriteContention    ErrorResponseCode = "write_contention"
	ErrorResponseCodeStoreUnavailable   ErrorResponseCode = "store_unavailable"
	ErrorResponseCodeSearchUnavailable  ErrorResponseCode = "search_unavailable"
	ErrorResponseCodeNotImplemented     ErrorResponseCode = "not_implemented"
	ErrorResponseCodeInternalError      ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email,omitempty"`
	SignupCode string `json:"signup_code,omitempty"`
}

// CredentialsRequest is the body of POST /auth/credentials.
type CredentialsRequest struct {
	Password    string  `json:"password"`
	NewUsername *string `json:"new_username,omitempty"`
	NewPassword *string `json:"new_password,omitempty"`
	NewEmail    *string `json:"new_email,omitempty"`
}

// UserResponse is the public projection of a user. Hashes are never exposed.
type UserResponse struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Active        bool     `json:"active"`
	FeedIDs       []string `json:"feed_ids"`
	CollectionIDs []string `json:"collection_ids"`
	AlreadyRead   string   `json:"already_read,omitempty"`
}

// SubscriptionRequest is the body of POST /my/subscriptions.
type SubscriptionRequest struct {
	Kind   string   `json:"type"`
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
}

// FeedRequest is the body of feed create (all fields) and patch (any subset).
type FeedRequest struct {
	Name           string     `json:"name,omitempty"`
	Limit          *int       `json:"limit,omitempty"`
	SortBy         *string    `json:"sort_by,omitempty"`
	SortOrder      *string    `json:"sort_order,omitempty"`
	SearchTerm     *string    `json:"search_term,omitempty"`
	Highlight      *bool      `json:"highlight,omitempty"`
	FirstDate      *time.Time `json:"first_date,omitempty"`
	LastDate       *time.Time `json:"last_date,omitempty"`
	SourceCategory []string   `json:"source_category,omitempty"`
}

// CollectionRequest is the body of collection create and replace.
type CollectionRequest struct {
	Name string   `json:"name,omitempty"`
	IDs  []string `json:"ids"`
}

// RenameRequest is the body of PUT /user-items/{id}/name.
type RenameRequest struct {
	Name string `json:"name"`
}

// FeedResponse is a full feed.
type FeedResponse struct {
	item.Summary
	Limit          int        `json:"limit"`
	SortBy         string     `json:"sort_by"`
	SortOrder      string     `json:"sort_order"`
	SearchTerm     string     `json:"search_term,omitempty"`
	Highlight      bool       `json:"highlight"`
	FirstDate      *time.Time `json:"first_date,omitempty"`
	LastDate       *time.Time `json:"last_date,omitempty"`
	SourceCategory []string   `json:"source_category"`
}

// CollectionResponse is a full collection.
type CollectionResponse struct {
	item.Summary
	IDs []string `json:"ids"`
}

// ArticleResponse is one search hit.
type ArticleResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Content     string              `json:"content,omitempty"`
	URL         string              `json:"url"`
	ImageURL    string              `json:"image_url,omitempty"`
	Author      string              `json:"author,omitempty"`
	Source      string              `json:"source"`
	PublishDate time.Time           `json:"publish_date"`
	InsertedAt  *time.Time          `json:"inserted_at,omitempty"`
	ReadTimes   int                 `json:"read_times"`
	Score       float64             `json:"score,omitempty"`
	Highlights  map[string][]string `json:"highlights,omitempty"`
	ML          *ArticleML          `json:"ml,omitempty"`
}

// ArticleML carries precomputed machine-learning annotations.
type ArticleML struct {
	Cluster int `json:"cluster"`
}

// ArticleListResponse is a page of search hits.
type ArticleListResponse struct {
	Total    int64             `json:"total"`
	Articles []ArticleResponse `json:"articles"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func userToResponse(u *domuser.User) UserResponse {
	return UserResponse{
		ID:            u.ID(),
		Username:      u.Username(),
		Active:        u.Active(),
		FeedIDs:       u.FeedIDs().Slice(),
		CollectionIDs: u.CollectionIDs().Slice(),
		AlreadyRead:   u.AlreadyRead(),
	}
}

func feedToResponse(f *item.Feed) FeedResponse {
	p := f.Params()
	sources := []string{}
	if p.SourceCategory != nil {
		sources = p.SourceCategory.Slice()
	}
	return FeedResponse{
		Summary:        f.Summary(),
		Limit:          p.Limit,
		SortBy:         string(p.SortBy),
		SortOrder:      string(p.SortOrder.OrDefault()),
		SearchTerm:     p.SearchTerm,
		Highlight:      p.Highlight,
		FirstDate:      p.FirstDate,
		LastDate:       p.LastDate,
		SourceCategory: sources,
	}
}

func collectionToResponse(c *item.Collection) CollectionResponse {
	return CollectionResponse{Summary: c.Summary(), IDs: c.ArticleIDs().Slice()}
}

func pageToResponse(p result.Page) ArticleListResponse {
	out := ArticleListResponse{Total: p.Total, Articles: make([]ArticleResponse, len(p.Articles))}
	for i := range p.Articles {
		a := &p.Articles[i]
		resp := ArticleResponse{
			ID:          a.ID,
			Title:       a.Title,
			Description: a.Description,
			Content:     a.Content,
			URL:         a.URL,
			ImageURL:    a.ImageURL,
			Author:      a.Author,
			Source:      a.Source,
			PublishDate: a.PublishDate,
			ReadTimes:   a.ReadTimes,
			Score:       a.Score,
			Highlights:  a.Highlights,
		}
		if !a.InsertedAt.IsZero() {
			t := a.InsertedAt
			resp.InsertedAt = &t
		}
		if a.Cluster != nil {
			resp.ML = &ArticleML{Cluster: *a.Cluster}
		}
		out.Articles[i] = resp
	}
	return out
}
