package chi

import (
	"fmt"
	"net/http"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/osinter/osinter/internal/domain/search/order"
	"github.com/osinter/osinter/internal/domain/search/request"
)

// SearchArticlesParams are the query parameters of GET /articles/search.
type SearchArticlesParams struct {
	Limit           *int       `form:"limit,omitempty" json:"limit,omitempty"`
	SortBy          *string    `form:"sort_by,omitempty" json:"sort_by,omitempty"`
	SortOrder       *string    `form:"sort_order,omitempty" json:"sort_order,omitempty"`
	SearchTerm      *string    `form:"search_term,omitempty" json:"search_term,omitempty"`
	FirstDate       *time.Time `form:"first_date,omitempty" json:"first_date,omitempty"`
	LastDate        *time.Time `form:"last_date,omitempty" json:"last_date,omitempty"`
	SourceCategory  *[]string  `form:"source_category,omitempty" json:"source_category,omitempty"`
	IDs             *[]string  `form:"ids,omitempty" json:"ids,omitempty"`
	Highlight       *bool      `form:"highlight,omitempty" json:"highlight,omitempty"`
	HighlightSymbol *string    `form:"highlight_symbol,omitempty" json:"highlight_symbol,omitempty"`
	ClusterID       *int       `form:"cluster_id,omitempty" json:"cluster_id,omitempty"`
}

func (p SearchArticlesParams) toRequest() request.Params {
	var out request.Params
	if p.Limit != nil {
		out.Limit = *p.Limit
	}
	if p.SortBy != nil {
		out.SortBy = order.Field(*p.SortBy)
	}
	if p.SortOrder != nil {
		out.SortOrder = order.Direction(*p.SortOrder)
	}
	if p.SearchTerm != nil {
		out.SearchTerm = *p.SearchTerm
	}
	out.FirstDate = p.FirstDate
	out.LastDate = p.LastDate
	if p.SourceCategory != nil {
		out.Sources = *p.SourceCategory
	}
	if p.IDs != nil {
		out.IDs = *p.IDs
	}
	if p.Highlight != nil {
		out.Highlight = *p.Highlight
	}
	if p.HighlightSymbol != nil {
		out.HighlightSymbol = *p.HighlightSymbol
	}
	out.ClusterID = p.ClusterID
	return out
}

// FeedArticlesParams are the query parameters of GET /articles/feed/{id}.
type FeedArticlesParams struct {
	Limit *int `form:"limit,omitempty" json:"limit,omitempty"`
}

// InvalidParamFormatError reports a path or query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ServerOptions configures Handler.
type ServerOptions struct {
	BaseRouter       gochi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler mounts the API on a new chi router.
func Handler(s *Server) http.Handler {
	return HandlerWithOptions(s, ServerOptions{})
}

// HandlerWithOptions mounts the API on opts.BaseRouter. Routes under /auth
// (except signup), /my and /user-items require basic credentials.
func HandlerWithOptions(s *Server, opts ServerOptions) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = gochi.NewRouter()
	}
	if opts.ErrorHandlerFunc == nil {
		opts.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	wrap := &wrapper{s: s, errorHandler: opts.ErrorHandlerFunc}

	r.Group(func(r gochi.Router) {
		r.Use(opts.Middlewares...)

		r.Get("/health", s.HealthCheck)
		r.Get("/metrics", s.Metrics)
		r.Post("/auth/signup", s.Signup)

		r.Get("/articles/search", wrap.searchArticles)
		r.Get("/articles/overview/newest", s.NewestArticles)
		r.Get("/articles/feed/{id}", wrap.feedArticles)

		r.Group(func(r gochi.Router) {
			r.Use(BasicAuthMiddleware(s.users))

			r.Get("/auth/status", s.AuthStatus)
			r.Post("/auth/credentials", s.ChangeCredentials)
			r.Delete("/auth/user", s.RemoveAccount)

			r.Post("/my/subscriptions", s.ModifySubscription)
			r.Get("/my/feeds/list", s.ListFeeds)
			r.Get("/my/feeds", s.GetMyFeeds)
			r.Get("/my/collections/list", s.ListCollections)
			r.Get("/my/collections", s.GetMyCollections)

			r.Route("/user-items", func(r gochi.Router) {
				r.Post("/feed", s.CreateFeed)
				r.Post("/collection", s.CreateCollection)
				r.Get("/feed/{id}", wrap.withID(s.GetFeed))
				r.Put("/feed/{id}", wrap.withID(s.UpdateFeed))
				r.Get("/collection/{id}", wrap.withID(s.GetCollection))
				r.Put("/collection/{id}", wrap.withID(s.UpdateCollection))
				r.Put("/{id}/name", wrap.withID(s.RenameItem))
				r.Delete("/{id}", wrap.withID(s.RemoveItem))
			})
		})
	})

	return r
}

// wrapper binds path and query parameters before calling a Server handler.
type wrapper struct {
	s            *Server
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func (wr *wrapper) bindID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", gochi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		wr.errorHandler(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return "", false
	}
	return id, true
}

func (wr *wrapper) withID(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := wr.bindID(w, r)
		if !ok {
			return
		}
		h(w, r, id)
	}
}

func (wr *wrapper) searchArticles(w http.ResponseWriter, r *http.Request) {
	var params SearchArticlesParams
	q := r.URL.Query()

	for _, b := range []struct {
		name string
		dest any
	}{
		{"limit", &params.Limit},
		{"sort_by", &params.SortBy},
		{"sort_order", &params.SortOrder},
		{"search_term", &params.SearchTerm},
		{"first_date", &params.FirstDate},
		{"last_date", &params.LastDate},
		{"source_category", &params.SourceCategory},
		{"ids", &params.IDs},
		{"highlight", &params.Highlight},
		{"highlight_symbol", &params.HighlightSymbol},
		{"cluster_id", &params.ClusterID},
	} {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			wr.errorHandler(w, r, &InvalidParamFormatError{ParamName: b.name, Err: err})
			return
		}
	}

	wr.s.SearchArticles(w, r, params)
}

func (wr *wrapper) feedArticles(w http.ResponseWriter, r *http.Request) {
	id, ok := wr.bindID(w, r)
	if !ok {
		return
	}

	var params FeedArticlesParams
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		wr.errorHandler(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	wr.s.FeedArticles(w, r, id, params)
}
