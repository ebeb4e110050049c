package render

import (
	"fmt"
	"strings"

	"github.com/yakeworld/mcp-semantic-scholar-server/internal/semanticscholar"
)

// journalOrVenue picks the best available publication name for citations.
// Returns "" when neither a journal name nor a venue is known.
func journalOrVenue(p *semanticscholar.Paper) string {
	if p.Journal != nil && p.Journal.Name != "" {
		return p.Journal.Name
	}
	return p.Venue
}

// citationYear renders the publication year for citation strings,
// using the "n.d." (no date) convention when the year is unknown.
func citationYear(p *semanticscholar.Paper) string {
	if p.Year == 0 {
		return "n.d."
	}
	return fmt.Sprintf("%d", p.Year)
}

// authorNames extracts the author name list, substituting a placeholder
// when the record carries no authors at all.
func authorNames(p *semanticscholar.Paper) []string {
	if len(p.Authors) == 0 {
		return []string{"Unknown Author"}
	}
	names := make([]string, 0, len(p.Authors))
	for _, a := range p.Authors {
		names = append(names, a.Name)
	}
	return names
}

// splitSurname splits a "First Middle Last" name into surname and the rest.
// Single-token names come back unchanged with an empty remainder.
func splitSurname(name string) (surname, rest string) {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		return name, ""
	}
	return parts[len(parts)-1], strings.Join(parts[:len(parts)-1], " ")
}

// APA derives an APA-style citation string from a paper record.
func APA(p *semanticscholar.Paper) string {
	var b strings.Builder
	names := authorNames(p)

	switch {
	case len(names) == 1:
		fmt.Fprintf(&b, "%s. ", names[0])
	case len(names) == 2:
		fmt.Fprintf(&b, "%s & %s. ", names[0], names[1])
	default:
		fmt.Fprintf(&b, "%s et al. ", names[0])
	}

	fmt.Fprintf(&b, "(%s). %s. ", citationYear(p), titleOrUntitled(p))

	if name := journalOrVenue(p); name != "" {
		fmt.Fprintf(&b, "*%s*", name)
		if p.Journal != nil {
			if p.Journal.Volume != "" {
				fmt.Fprintf(&b, ", %s", p.Journal.Volume)
				if p.Journal.Issue != "" {
					fmt.Fprintf(&b, "(%s)", p.Journal.Issue)
				}
			}
			if p.Journal.Pages != "" {
				fmt.Fprintf(&b, ", %s", p.Journal.Pages)
			}
		}
	}

	if doi := paperDOI(p); doi != "" {
		fmt.Fprintf(&b, ". https://doi.org/%s", doi)
	}

	return b.String()
}

// MLA derives an MLA-style citation string from a paper record.
func MLA(p *semanticscholar.Paper) string {
	var b strings.Builder
	names := authorNames(p)

	if names[0] != "Unknown Author" {
		surname, rest := splitSurname(names[0])
		if rest != "" {
			fmt.Fprintf(&b, "%s, %s", surname, rest)
		} else {
			b.WriteString(names[0])
		}
		if len(names) > 1 {
			b.WriteString(", et al")
		}
	} else {
		b.WriteString("Unknown Author")
	}

	fmt.Fprintf(&b, ". \"%s.\"", titleOrUntitled(p))
	if name := journalOrVenue(p); name != "" {
		fmt.Fprintf(&b, " *%s*", name)
	}

	if p.Journal != nil {
		if p.Journal.Volume != "" {
			fmt.Fprintf(&b, ", vol. %s", p.Journal.Volume)
		}
		if p.Journal.Issue != "" {
			fmt.Fprintf(&b, ", no. %s", p.Journal.Issue)
		}
	}
	if p.Year != 0 {
		fmt.Fprintf(&b, ", %d", p.Year)
	}
	if p.Journal != nil && p.Journal.Pages != "" {
		fmt.Fprintf(&b, ", pp. %s", p.Journal.Pages)
	}
	if doi := paperDOI(p); doi != "" {
		fmt.Fprintf(&b, ", doi:%s", doi)
	}

	b.WriteString(".")
	return b.String()
}

// BibTeX derives a BibTeX entry from a paper record.
// The entry type is inferred from the publication name: proceedings map to
// @inproceedings, theses to @phdthesis, and records with neither journal
// nor volume fall back to @misc.
func BibTeX(p *semanticscholar.Paper) string {
	names := authorNames(p)
	pubName := journalOrVenue(p)

	entryType := "article"
	hasJournal := p.Journal != nil && p.Journal.Name != ""
	hasVolume := p.Journal != nil && p.Journal.Volume != ""
	switch {
	case strings.Contains(pubName, "Conference") || strings.Contains(pubName, "Proceedings"):
		entryType = "inproceedings"
	case strings.Contains(pubName, "Thesis"):
		entryType = "phdthesis"
	case !hasJournal && !hasVolume:
		entryType = "misc"
	}

	surname, _ := splitSurname(names[0])
	citationKey := strings.ToLower(surname) + citationYear(p)
	if names[0] == "Unknown Author" {
		citationKey = "unknown" + citationYear(p)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@%s{%s,\n", entryType, citationKey)
	fmt.Fprintf(&b, "  title = {%s},\n", titleOrUntitled(p))
	if len(p.Authors) > 0 {
		fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(names, " and "))
	}
	fmt.Fprintf(&b, "  year = {%s},\n", citationYear(p))

	if hasJournal {
		fmt.Fprintf(&b, "  journal = {%s},\n", p.Journal.Name)
	} else if p.Venue != "" {
		fmt.Fprintf(&b, "  booktitle = {%s},\n", p.Venue)
	}
	if p.Journal != nil {
		if p.Journal.Volume != "" {
			fmt.Fprintf(&b, "  volume = {%s},\n", p.Journal.Volume)
		}
		if p.Journal.Issue != "" {
			fmt.Fprintf(&b, "  number = {%s},\n", p.Journal.Issue)
		}
		if p.Journal.Pages != "" {
			fmt.Fprintf(&b, "  pages = {%s},\n", p.Journal.Pages)
		}
	}
	if doi := paperDOI(p); doi != "" {
		fmt.Fprintf(&b, "  doi = {%s},\n", doi)
	}
	if p.URL != "" {
		fmt.Fprintf(&b, "  url = {%s},\n", p.URL)
	}
	b.WriteString("}")

	return b.String()
}

// paperDOI returns the paper's DOI, or "" when it has none.
func paperDOI(p *semanticscholar.Paper) string {
	if p.ExternalIDs == nil {
		return ""
	}
	return p.ExternalIDs.DOI
}
