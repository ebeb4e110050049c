// Package semanticscholar provides a client for the Semantic Scholar Graph API.
//
// Semantic Scholar is a free, AI-powered research tool for scientific
// literature. This package covers the paper search, paper detail, and author
// search endpoints, including the nested citation/reference lists and the
// AI-generated TLDR summaries the detail endpoint exposes.
//
// API Documentation: https://api.semanticscholar.org/api-docs/
package semanticscholar

// SearchResponse represents the response from the paper search endpoint.
type SearchResponse struct {
	// Total is the total number of papers matching the query.
	Total int `json:"total"`

	// Offset is the current offset in the result set.
	Offset int `json:"offset"`

	// Next is the offset for the next page of results.
	// A value of 0 indicates no more results.
	Next int `json:"next"`

	// Data contains the list of papers returned by the search.
	Data []Paper `json:"data"`
}

// Paper represents a single paper in the Semantic Scholar API response.
// Every field is optional; the API omits what it does not know.
type Paper struct {
	// PaperID is the Semantic Scholar unique identifier for the paper.
	PaperID string `json:"paperId"`

	// Title is the title of the paper.
	Title string `json:"title"`

	// Abstract is the paper's abstract text.
	Abstract string `json:"abstract"`

	// Year is the publication year.
	Year int `json:"year"`

	// PublicationDate is the full publication date in YYYY-MM-DD format.
	PublicationDate string `json:"publicationDate"`

	// Venue is the publication venue (conference, journal name, etc.).
	Venue string `json:"venue"`

	// PublicationVenue carries richer venue metadata when available.
	PublicationVenue *PublicationVenue `json:"publicationVenue,omitempty"`

	// Journal contains journal-specific information if published in a journal.
	Journal *Journal `json:"journal,omitempty"`

	// Authors is the ordered list of paper authors.
	Authors []Author `json:"authors"`

	// CitationCount is the number of citations this paper has received.
	CitationCount int `json:"citationCount"`

	// InfluentialCitationCount is the number of citations judged influential.
	InfluentialCitationCount int `json:"influentialCitationCount"`

	// ReferenceCount is the number of references in this paper.
	ReferenceCount int `json:"referenceCount"`

	// IsOpenAccess indicates whether the paper is open access.
	IsOpenAccess bool `json:"isOpenAccess"`

	// FieldsOfStudy lists the paper's research fields.
	FieldsOfStudy []string `json:"fieldsOfStudy,omitempty"`

	// S2FieldsOfStudy lists machine-classified research fields.
	S2FieldsOfStudy []S2FieldOfStudy `json:"s2FieldsOfStudy,omitempty"`

	// PublicationTypes lists publication types (JournalArticle, Review, ...).
	PublicationTypes []string `json:"publicationTypes,omitempty"`

	// ExternalIDs contains external identifiers for the paper (DOI, ArXiv, etc.).
	ExternalIDs *ExternalIDs `json:"externalIds,omitempty"`

	// URL is the Semantic Scholar page for the paper.
	URL string `json:"url,omitempty"`

	// TLDR is the AI-generated one-sentence summary, when available.
	TLDR *TLDR `json:"tldr,omitempty"`

	// Citations lists papers citing this one. Populated only on detail
	// lookups and search-result enrichment, bounded by a fields limit.
	Citations []Paper `json:"citations,omitempty"`

	// References lists papers cited by this one. Populated the same way
	// as Citations.
	References []Paper `json:"references,omitempty"`
}

// ExternalIDs contains external identifiers for a paper.
type ExternalIDs struct {
	// DOI is the Digital Object Identifier.
	DOI string `json:"DOI,omitempty"`

	// ArXiv is the ArXiv identifier.
	ArXiv string `json:"ArXiv,omitempty"`

	// PubMed is the PubMed identifier.
	PubMed string `json:"PubMed,omitempty"`

	// PubMedCentral is the PubMed Central identifier.
	PubMedCentral string `json:"PubMedCentral,omitempty"`

	// CorpusID is the Semantic Scholar corpus identifier.
	CorpusID int64 `json:"CorpusId,omitempty"`

	// DBLP is the DBLP identifier.
	DBLP string `json:"DBLP,omitempty"`
}

// Journal contains journal-specific information.
type Journal struct {
	// Name is the name of the journal.
	Name string `json:"name,omitempty"`

	// Volume is the journal volume.
	Volume string `json:"volume,omitempty"`

	// Issue is the journal issue.
	Issue string `json:"issue,omitempty"`

	// Pages is the page range (e.g., "1-15").
	Pages string `json:"pages,omitempty"`
}

// PublicationVenue carries structured venue metadata.
type PublicationVenue struct {
	// ID is the venue identifier.
	ID string `json:"id,omitempty"`

	// Name is the venue name.
	Name string `json:"name,omitempty"`

	// Type is the venue type (journal, conference, ...).
	Type string `json:"type,omitempty"`
}

// Author represents a paper author in the Semantic Scholar API.
type Author struct {
	// AuthorID is the Semantic Scholar unique identifier for the author.
	AuthorID string `json:"authorId,omitempty"`

	// Name is the author's name.
	Name string `json:"name"`

	// Affiliations lists the author's affiliations, when known.
	Affiliations []string `json:"affiliations,omitempty"`
}

// S2FieldOfStudy is a machine-classified research field.
type S2FieldOfStudy struct {
	// Category is the field name.
	Category string `json:"category,omitempty"`

	// Source identifies the classifier that produced the field.
	Source string `json:"source,omitempty"`
}

// TLDR is the AI-generated short summary attached to some papers.
type TLDR struct {
	// Model identifies the model that generated the summary.
	Model string `json:"model,omitempty"`

	// Text is the summary text.
	Text string `json:"text,omitempty"`
}

// AuthorSearchResponse represents the response from the author search endpoint.
type AuthorSearchResponse struct {
	// Total is the total number of authors matching the query.
	Total int `json:"total"`

	// Offset is the current offset in the result set.
	Offset int `json:"offset"`

	// Next is the offset for the next page of results.
	Next int `json:"next"`

	// Data contains the list of authors returned by the search.
	Data []AuthorProfile `json:"data"`
}

// AuthorProfile represents a full author record from the author search endpoint.
type AuthorProfile struct {
	// AuthorID is the Semantic Scholar unique identifier for the author.
	AuthorID string `json:"authorId,omitempty"`

	// Name is the author's name.
	Name string `json:"name"`

	// Aliases lists alternative name spellings.
	Aliases []string `json:"aliases,omitempty"`

	// Affiliations lists the author's affiliations.
	Affiliations []string `json:"affiliations,omitempty"`

	// Homepage is the author's homepage URL.
	Homepage string `json:"homepage,omitempty"`

	// PaperCount is the author's total number of publications.
	PaperCount int `json:"paperCount"`

	// CitationCount is the author's total citation count.
	CitationCount int `json:"citationCount"`

	// HIndex is the author's h-index.
	HIndex int `json:"hIndex"`

	// URL is the Semantic Scholar profile page for the author.
	URL string `json:"url,omitempty"`
}

// ErrorResponse represents an error response from the Semantic Scholar API.
type ErrorResponse struct {
	// Error is the error message from the API.
	Error string `json:"error,omitempty"`

	// Message is an alternative error message field.
	Message string `json:"message,omitempty"`
}
