// Package render turns Semantic Scholar API records into markdown documents.
//
// Every function here is a pure transformation: no field in the underlying
// record is mandatory, and absent data degrades to placeholder text or
// section omission rather than an error.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/yakeworld/mcp-semantic-scholar-server/internal/semanticscholar"
)

// Options bounds the rendered output.
type Options struct {
	// MaxListAuthors is how many authors are shown per paper in search results.
	MaxListAuthors int

	// MaxCitationAuthors is how many authors appear in inline citation strings.
	MaxCitationAuthors int

	// AbstractTruncate is the character cap for abstracts in nested lists.
	AbstractTruncate int

	// MaxNested is how many citing/cited papers are listed per search result.
	MaxNested int
}

// DefaultOptions returns the rendering bounds used when a field is zero.
func DefaultOptions() Options {
	return Options{
		MaxListAuthors:     5,
		MaxCitationAuthors: 6,
		AbstractTruncate:   200,
		MaxNested:          3,
	}
}

// Renderer renders API records as markdown. The zero-value fields of opts
// are replaced by DefaultOptions.
type Renderer struct {
	opts Options
}

// New creates a Renderer, filling unset options with defaults.
func New(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.MaxListAuthors == 0 {
		opts.MaxListAuthors = def.MaxListAuthors
	}
	if opts.MaxCitationAuthors == 0 {
		opts.MaxCitationAuthors = def.MaxCitationAuthors
	}
	if opts.AbstractTruncate == 0 {
		opts.AbstractTruncate = def.AbstractTruncate
	}
	if opts.MaxNested == 0 {
		opts.MaxNested = def.MaxNested
	}
	return &Renderer{opts: opts}
}

// SearchResults renders a paper search response as a markdown listing:
// one numbered section per paper, an inline citation block each, and a
// closing citation-format guidance section.
func (r *Renderer) SearchResults(keyword, sortBy string, resp *semanticscholar.SearchResponse) string {
	if sortBy == "" {
		sortBy = semanticscholar.SortRelevance
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Academic Search Results for '%s'\n\n", keyword)
	fmt.Fprintf(&b, "📚 Found %s papers. Showing %d results sorted by %s:\n\n",
		comma(resp.Total), len(resp.Data), sortBy)

	for i := range resp.Data {
		r.paperSection(&b, i+1, &resp.Data[i])
	}

	b.WriteString(exportOptionsFooter)
	return b.String()
}

// paperSection renders one search result.
func (r *Renderer) paperSection(b *strings.Builder, index int, p *semanticscholar.Paper) {
	fmt.Fprintf(b, "## %d. %s (%s)%s\n\n", index, titleOrUntitled(p), yearOrNA(p.Year), pubTypeSuffix(p, 2))

	if len(p.Authors) > 0 {
		b.WriteString("👥 **Authors:** ")
		names := make([]string, 0, r.opts.MaxListAuthors)
		for i, a := range p.Authors {
			if i >= r.opts.MaxListAuthors {
				break
			}
			if a.AuthorID != "" {
				names = append(names, fmt.Sprintf("[%s](https://www.semanticscholar.org/author/%s)", a.Name, a.AuthorID))
			} else {
				names = append(names, a.Name)
			}
		}
		b.WriteString(strings.Join(names, ", "))
		if extra := len(p.Authors) - r.opts.MaxListAuthors; extra > 0 {
			fmt.Fprintf(b, " and %d others", extra)
		}
		b.WriteString("\n\n")
	}

	if p.Journal != nil && p.Journal.Name != "" {
		fmt.Fprintf(b, "📍 **Journal:** %s\n", p.Journal.Name)
	} else if p.Venue != "" {
		fmt.Fprintf(b, "📍 **Venue:** %s\n", p.Venue)
	}

	if p.PublicationDate != "" {
		if t, err := time.Parse("2006-01-02", p.PublicationDate); err == nil {
			fmt.Fprintf(b, "📅 **Published:** %s\n", t.Format("January 2, 2006"))
		} else {
			fmt.Fprintf(b, "📅 **Published:** %s\n", p.PublicationDate)
		}
	}

	fmt.Fprintf(b, "📊 **Citations:** %s total", comma(p.CitationCount))
	if p.InfluentialCitationCount > 0 {
		fmt.Fprintf(b, ", %s influential", comma(p.InfluentialCitationCount))
	}
	fmt.Fprintf(b, "\n📚 **References:** %s\n", comma(p.ReferenceCount))

	if len(p.FieldsOfStudy) > 0 {
		fmt.Fprintf(b, "🔬 **Fields:** %s\n", strings.Join(p.FieldsOfStudy, ", "))
	}

	fmt.Fprintf(b, "🔓 **Open Access:** %s\n", yesNo(p.IsOpenAccess))

	if ids := identifierLine(p.ExternalIDs); ids != "" {
		fmt.Fprintf(b, "🔗 **Identifiers:** %s\n", ids)
	}

	if p.TLDR != nil && p.TLDR.Text != "" {
		fmt.Fprintf(b, "💡 **TL;DR:** %s\n", p.TLDR.Text)
	}

	if p.Abstract != "" {
		fmt.Fprintf(b, "\n📝 **Abstract:**\n%s\n", p.Abstract)
	}

	r.nestedList(b, "📣 **Key Citations:**", p.Citations)
	r.nestedList(b, "📚 **Key References:**", p.References)

	if p.URL != "" {
		fmt.Fprintf(b, "\n🌐 **Full Paper:** [View on Semantic Scholar](%s)\n", p.URL)
	} else if p.PaperID != "" {
		fmt.Fprintf(b, "\n🌐 **Paper Link:** [View on Semantic Scholar](https://www.semanticscholar.org/paper/%s)\n", p.PaperID)
	}

	fmt.Fprintf(b, "\n📋 **Citation:**\n```\n%s\n```\n", r.inlineCitation(p))

	b.WriteString("\n---\n\n")
}

// nestedList renders a bounded list of citing/cited papers under a heading.
// Empty lists emit nothing.
func (r *Renderer) nestedList(b *strings.Builder, heading string, papers []semanticscholar.Paper) {
	if len(papers) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", heading)
	for i := range papers {
		if i >= r.opts.MaxNested {
			break
		}
		p := &papers[i]
		fmt.Fprintf(b, "%d. %s (%s) - %s\n", i+1, titleOrUntitled(p), yearOrNA(p.Year), joinAuthors(p.Authors, 3))
	}
}

// inlineCitation assembles the short citation block under each search result.
func (r *Renderer) inlineCitation(p *semanticscholar.Paper) string {
	authors := joinAuthors(p.Authors, r.opts.MaxCitationAuthors)
	if authors == "" {
		authors = "Unknown Author"
	}
	if !strings.HasSuffix(authors, ".") {
		authors += "."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s). %s. ", authors, citationYear(p), titleOrUntitled(p))
	if name := journalOrVenue(p); name != "" {
		fmt.Fprintf(&b, "%s. ", name)
	}
	if doi := paperDOI(p); doi != "" {
		fmt.Fprintf(&b, "https://doi.org/%s", doi)
	}
	return strings.TrimRight(b.String(), " ")
}

// PaperDetails renders a single paper as a full markdown document, including
// the three citation formats.
func (r *Renderer) PaperDetails(p *semanticscholar.Paper, includeReferences, includeCitations bool) string {
	var b strings.Builder

	title := p.Title
	if title == "" {
		title = "Untitled Paper"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "**Published:** %s%s\n\n", yearOrNA(p.Year), pubTypeSuffix(p, len(p.PublicationTypes)))

	if len(p.Authors) > 0 {
		b.WriteString("## 👥 Authors\n\n")
		for _, a := range p.Authors {
			name := a.Name
			if name == "" {
				name = "Unknown"
			}
			if a.AuthorID != "" {
				fmt.Fprintf(&b, "- [%s](https://www.semanticscholar.org/author/%s)", name, a.AuthorID)
			} else {
				fmt.Fprintf(&b, "- %s", name)
			}
			if len(a.Affiliations) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(a.Affiliations, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if p.Journal != nil && p.Journal.Name != "" {
		fmt.Fprintf(&b, "**Journal:** %s\n", p.Journal.Name)
		if p.Journal.Volume != "" {
			fmt.Fprintf(&b, "**Volume:** %s", p.Journal.Volume)
			if p.Journal.Pages != "" {
				fmt.Fprintf(&b, ", Pages: %s", p.Journal.Pages)
			}
			b.WriteString("\n")
		}
	} else if p.Venue != "" {
		fmt.Fprintf(&b, "**Publication Venue:** %s\n", p.Venue)
	}

	b.WriteString("## 📊 Impact Metrics\n\n")
	fmt.Fprintf(&b, "- **Total Citations:** %s\n", comma(p.CitationCount))
	fmt.Fprintf(&b, "- **Influential Citations:** %s\n", comma(p.InfluentialCitationCount))
	fmt.Fprintf(&b, "- **References:** %s\n", comma(p.ReferenceCount))
	if p.IsOpenAccess {
		b.WriteString("- **Open Access:** Yes ✓\n\n")
	} else {
		b.WriteString("- **Open Access:** No ✗\n\n")
	}

	if p.ExternalIDs != nil || p.PaperID != "" {
		b.WriteString("## 🔗 Identifiers\n\n")
		if ids := p.ExternalIDs; ids != nil {
			if ids.DOI != "" {
				fmt.Fprintf(&b, "- **DOI:** [%s](https://doi.org/%s)\n", ids.DOI, ids.DOI)
			}
			if ids.ArXiv != "" {
				fmt.Fprintf(&b, "- **arXiv:** [%s](https://arxiv.org/abs/%s)\n", ids.ArXiv, ids.ArXiv)
			}
			if ids.PubMed != "" {
				fmt.Fprintf(&b, "- **PubMed:** %s\n", ids.PubMed)
			}
			if ids.DBLP != "" {
				fmt.Fprintf(&b, "- **DBLP:** %s\n", ids.DBLP)
			}
			if ids.CorpusID != 0 {
				fmt.Fprintf(&b, "- **Corpus ID:** %d\n", ids.CorpusID)
			}
		}
		if p.PaperID != "" {
			fmt.Fprintf(&b, "- **Semantic Scholar ID:** %s\n", p.PaperID)
		}
		b.WriteString("\n")
	}

	if len(p.FieldsOfStudy) > 0 {
		b.WriteString("## 🔬 Research Fields\n\n")
		for _, field := range p.FieldsOfStudy {
			fmt.Fprintf(&b, "- %s\n", field)
		}
		b.WriteString("\n")
	}

	if p.TLDR != nil && p.TLDR.Text != "" {
		fmt.Fprintf(&b, "## 💡 TL;DR\n\n%s\n\n", p.TLDR.Text)
	}

	if p.Abstract != "" {
		fmt.Fprintf(&b, "## 📝 Abstract\n\n%s\n\n", p.Abstract)
	}

	if includeCitations && len(p.Citations) > 0 {
		fmt.Fprintf(&b, "## 📣 Key Citations (%d of %s)\n\n", len(p.Citations), comma(p.CitationCount))
		for i := range p.Citations {
			c := &p.Citations[i]
			fmt.Fprintf(&b, "### %d. %s (%s) - %s citations\n", i+1, titleOrUntitled(c), yearOrNA(c.Year), comma(c.CitationCount))
			if len(c.Authors) > 0 {
				fmt.Fprintf(&b, "**Authors:** %s\n", joinAuthors(c.Authors, 5))
			}
			if c.Abstract != "" {
				fmt.Fprintf(&b, "**Abstract:** %s\n", truncate(c.Abstract, r.opts.AbstractTruncate))
			}
			if c.URL != "" {
				fmt.Fprintf(&b, "[View Paper](%s)\n", c.URL)
			}
			b.WriteString("\n")
		}
	}

	if includeReferences && len(p.References) > 0 {
		fmt.Fprintf(&b, "## 📚 References (%d of %s)\n\n", len(p.References), comma(p.ReferenceCount))
		for i := range p.References {
			ref := &p.References[i]
			fmt.Fprintf(&b, "%d. **%s** (%s)\n", i+1, titleOrUntitled(ref), yearOrNA(ref.Year))
			if len(ref.Authors) > 0 {
				fmt.Fprintf(&b, "   *%s*\n", joinAuthors(ref.Authors, 3))
			}
			if ref.URL != "" {
				fmt.Fprintf(&b, "   [View Paper](%s)\n", ref.URL)
			}
			b.WriteString("\n")
		}
	}

	if p.URL != "" {
		fmt.Fprintf(&b, "## 🌐 Access\n\n[View Full Paper on Semantic Scholar](%s)\n\n", p.URL)
	}

	b.WriteString("## 📋 Citation Formats\n\n")
	fmt.Fprintf(&b, "**APA:**\n```\n%s\n```\n\n", APA(p))
	fmt.Fprintf(&b, "**MLA:**\n```\n%s\n```\n\n", MLA(p))
	fmt.Fprintf(&b, "**BibTeX:**\n```bibtex\n%s\n```\n", BibTeX(p))

	return b.String()
}

// AuthorResults renders an author search response as a markdown listing.
func (r *Renderer) AuthorResults(name string, resp *semanticscholar.AuthorSearchResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Author Search Results for '%s'\n\n", name)
	fmt.Fprintf(&b, "Found %s authors. Showing top %d:\n\n", comma(resp.Total), len(resp.Data))

	for i := range resp.Data {
		a := &resp.Data[i]
		displayName := a.Name
		if displayName == "" {
			displayName = "Unknown"
		}
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, displayName)

		if len(a.Aliases) > 0 {
			fmt.Fprintf(&b, "**Also known as:** %s\n", strings.Join(a.Aliases, ", "))
		}
		if len(a.Affiliations) > 0 {
			fmt.Fprintf(&b, "**Affiliations:** %s\n", strings.Join(a.Affiliations, ", "))
		}

		b.WriteString("**Metrics:**\n")
		fmt.Fprintf(&b, "- H-index: %d\n", a.HIndex)
		fmt.Fprintf(&b, "- Total Citations: %s\n", comma(a.CitationCount))
		fmt.Fprintf(&b, "- Publications: %s\n", comma(a.PaperCount))

		if a.Homepage != "" {
			fmt.Fprintf(&b, "**Homepage:** [%s](%s)\n", a.Homepage, a.Homepage)
		}
		if a.URL != "" {
			fmt.Fprintf(&b, "**Semantic Scholar Profile:** [View Profile](%s)\n", a.URL)
		} else if a.AuthorID != "" {
			fmt.Fprintf(&b, "**Semantic Scholar Profile:** [View Profile](https://www.semanticscholar.org/author/%s)\n", a.AuthorID)
		}

		b.WriteString("\n---\n\n")
	}

	return b.String()
}

// exportOptionsFooter is the fixed citation-format guidance block appended to
// every search result listing.
const exportOptionsFooter = `
## 📥 Export Options

To cite these papers in your research, you can use the following formats:

- **APA**: Author, A. A., & Author, B. B. (Year). Title of article. *Journal Title*, Volume(Issue), page range. https://doi.org/xxxx
- **MLA**: Author Surname, First Name. "Title of Article." *Journal Title*, vol. number, no. number, Year, pp. range. DOI or URL.
- **Chicago**: Author Surname, First Name. Year. "Title of Article." *Journal Title* Volume, no. Issue (Year): Page range. DOI or URL.

For more citation options or to download citations in BibTeX format, click on the paper links to visit Semantic Scholar.
`

// identifierLine renders the compact external-identifier list used in search
// results. Returns "" when no identifier is known.
func identifierLine(ids *semanticscholar.ExternalIDs) string {
	if ids == nil {
		return ""
	}
	var parts []string
	if ids.DOI != "" {
		parts = append(parts, fmt.Sprintf("DOI: [%s](https://doi.org/%s)", ids.DOI, ids.DOI))
	}
	if ids.ArXiv != "" {
		parts = append(parts, fmt.Sprintf("arXiv: [%s](https://arxiv.org/abs/%s)", ids.ArXiv, ids.ArXiv))
	}
	if ids.PubMed != "" {
		parts = append(parts, "PubMed: "+ids.PubMed)
	}
	if ids.CorpusID != 0 {
		parts = append(parts, fmt.Sprintf("Corpus ID: %d", ids.CorpusID))
	}
	return strings.Join(parts, ", ")
}

// titleOrUntitled returns the paper title or the "Untitled" placeholder.
func titleOrUntitled(p *semanticscholar.Paper) string {
	if p.Title == "" {
		return "Untitled"
	}
	return p.Title
}

// yearOrNA renders a publication year, or "N/A" when unknown.
func yearOrNA(year int) string {
	if year == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", year)
}

// pubTypeSuffix renders up to max publication types as a " [a, b]" suffix.
func pubTypeSuffix(p *semanticscholar.Paper, max int) string {
	if len(p.PublicationTypes) == 0 || max <= 0 {
		return ""
	}
	types := p.PublicationTypes
	if len(types) > max {
		types = types[:max]
	}
	return fmt.Sprintf(" [%s]", strings.Join(types, ", "))
}

// joinAuthors joins up to max author names, appending "et al." when the list
// is longer.
func joinAuthors(authors []semanticscholar.Author, max int) string {
	names := make([]string, 0, max)
	for i, a := range authors {
		if i >= max {
			break
		}
		names = append(names, a.Name)
	}
	joined := strings.Join(names, ", ")
	if len(authors) > max {
		joined += " et al."
	}
	return joined
}

// truncate shortens s to at most n characters, appending an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// yesNo renders a boolean as Yes/No.
func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// comma formats an integer with thousands separators.
func comma(n int) string {
	return humanize.Comma(int64(n))
}
