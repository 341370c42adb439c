package result

import "time"

// Article is a single search hit.
type Article struct {
	ID          string
	Title       string
	Description string
	Content     string
	URL         string
	ImageURL    string
	Author      string
	Source      string
	PublishDate time.Time
	InsertedAt  time.Time
	ReadTimes   int
	// Cluster is the precomputed topic cluster, nil when unassigned.
	Cluster *int
	Score       float64
	// Highlights maps a field name to its highlighted fragments.
	Highlights map[string][]string
}

// Page is an ordered list of hits plus the engine's total match count.
type Page struct {
	Total    int64
	Articles []Article
}

// IDs returns the article ids in hit order.
func (p *Page) IDs() []string {
	out := make([]string, 0, len(p.Articles))
	for i := range p.Articles {
		out = append(out, p.Articles[i].ID)
	}
	return out
}
