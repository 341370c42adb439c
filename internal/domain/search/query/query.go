// Package query holds the engine-neutral structured article query and the
// compiler that builds it from a validated search request.
package query

import (
	"time"

	"github.com/osinter/osinter/internal/domain/search/order"
)

// Article document fields known to the compiler.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldContent     = "content"
	FieldSource      = "source"
	FieldPublishDate = "publish_date"
	FieldCluster     = "ml.cluster"
	FieldURL         = "url"
	FieldImageURL    = "image_url"
	FieldAuthor      = "author"
	FieldInsertedAt  = "inserted_at"
	FieldReadTimes   = "read_times"
)

// TextFields are matched by the free-text clause and highlighted.
var TextFields = []string{FieldTitle, FieldDescription, FieldContent}

// Query is a structured full-text article query.
type Query struct {
	// Match is nil when no search term was supplied.
	Match *Match
	// Filters restrict the candidate set; all must hold.
	Filters []Filter
	// Sort is nil for engine relevance ranking.
	Sort *Sort
	// Size is the result cap; 0 means unset.
	Size int
	// Highlight is nil when highlighting is off.
	Highlight *Highlight
	// OmitContent drops the article body from hits.
	OmitContent bool
}

// Match is a multi-field full-text clause.
type Match struct {
	Term   string
	Fields []string
}

// Sort orders hits by a single field.
type Sort struct {
	Field     string
	Ascending bool
}

// Highlight configures snippet highlighting.
type Highlight struct {
	PreTag            string
	PostTag           string
	Fields            []string
	FragmentSize      int
	NumberOfFragments int
}

// Filter is a non-scoring restriction clause.
type Filter interface {
	filter()
}

// DateRange keeps documents published within [From, To]. A nil bound is open.
type DateRange struct {
	Field string
	From  *time.Time
	To    *time.Time
}

// Terms keeps documents whose Field equals one of Values.
type Terms struct {
	Field  string
	Values []string
}

// IDs keeps exactly the listed documents.
type IDs struct {
	Values []string
}

// Cluster keeps documents assigned to a precomputed topic cluster.
type Cluster struct {
	Field string
	ID    int
}

func (DateRange) filter() {}
func (Terms) filter()     {}
func (IDs) filter()       {}
func (Cluster) filter()   {}

// sortFields maps request sort fields to document fields.
var sortFields = map[order.Field]string{
	order.PublishDate: FieldPublishDate,
	order.ReadTimes:   FieldReadTimes,
	order.Source:      FieldSource,
	order.Author:      FieldAuthor,
	order.InsertedAt:  FieldInsertedAt,
}

// SortFieldName returns the document field a sort enum maps to.
func SortFieldName(f order.Field) (string, bool) {
	name, ok := sortFields[f]
	return name, ok
}
