package model

// CandidateSource identifies where a candidate document came from
type CandidateSource string

const (
	SourceInternalDB CandidateSource = "internal_db" // Previously ingested content
	SourceWebSearch  CandidateSource = "web_search"  // Live search backend result
	SourceUpload     CandidateSource = "upload"      // User-supplied document
	SourceArchive    CandidateSource = "archive"     // Archived snapshot
)

// CandidateDoc is a search result considered as potential evidence for a
// claim. Within one claim's candidate set the URL is unique.
type CandidateDoc struct {
	ID          string          `json:"id,omitempty"`
	URL         string          `json:"url"`
	Title       string          `json:"title,omitempty"`
	Domain      string          `json:"domain,omitempty"`
	PublishedAt string          `json:"published_at,omitempty"`
	Snippet     string          `json:"snippet,omitempty"`
	Score       float64         `json:"score,omitempty"` // Backend relevance, 0-1
	Source      CandidateSource `json:"source,omitempty"`
}
