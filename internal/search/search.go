package search

// Record is the data indexed for a case study. Search is a list surface:
// rich-text bodies stay out of the index, the serve path renders them.
type Record struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ClientName  string `json:"clientName"`
	Industry    string `json:"industry"`
	ProjectType string `json:"projectType"`
	Summary     string `json:"summary"`
}

// Query describes a search request. Text is a global query across all
// indexed fields; Title/ClientName/Industry narrow by individual field.
type Query struct {
	Text       string
	Title      string
	ClientName string
	Industry   string
	Limit      int
	Offset     int
}

// Response is the envelope returned to the caller.
type Response struct {
	Results []Record `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a case-study search.
type Searcher interface {
	Search(q Query) ([]Record, int, error)
	Healthy() bool
}
