// Package order holds the sortable article fields and sort directions.
package order

// Field is a sortable article field. The zero value means relevance ranking.
type Field string

// Sortable fields.
const (
	Relevance   Field = ""
	PublishDate Field = "publish_date"
	ReadTimes   Field = "read_times"
	Source      Field = "source"
	Author      Field = "author"
	InsertedAt  Field = "inserted_at"
)

// IsValid reports whether f is a supported sort field.
func (f Field) IsValid() bool {
	switch f {
	case Relevance, PublishDate, ReadTimes, Source, Author, InsertedAt:
		return true
	}
	return false
}

// Direction is the sort direction.
type Direction string

// Sort directions. Descending is the default.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// IsValid reports whether d is a supported direction.
func (d Direction) IsValid() bool {
	return d == Asc || d == Desc
}

// OrDefault returns Desc for the zero value.
func (d Direction) OrDefault() Direction {
	if d == "" {
		return Desc
	}
	return d
}
