package plaintext

import (
	"context"
	"net/url"
	"path"
	"strings"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// MaxTitleLength caps titles derived from the first line of content.
const MaxTitleLength = 80

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedContentTypes returns the content types this normaliser handles.
func (n *Normaliser) SupportedContentTypes() []string {
	return []string{domain.ContentTypePlain, "text/csv"}
}

// Normalise cleans up line endings and whitespace. The title comes from
// the input, then the first line of content, then the URL.
func (n *Normaliser) Normalise(ctx context.Context, input *domain.DocumentInput) (*domain.Document, error) {
	if input == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := Clean(input.Content)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = FirstLine(content)
	}
	if title == "" {
		title = TitleFromURL(input.URL)
	}

	return &domain.Document{
		Title:    title,
		Content:  content,
		Category: strings.TrimSpace(input.Category),
		Keywords: CleanKeywords(input.Keywords),
		URL:      strings.TrimSpace(input.URL),
	}, nil
}

// Clean converts CRLF line endings, strips trailing spaces and collapses
// runs of blank lines into a single paragraph break.
func Clean(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// FirstLine returns the first non-blank line, shortened to MaxTitleLength
// runes at a word boundary where possible.
func FirstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) <= MaxTitleLength {
			return line
		}
		cut := string(runes[:MaxTitleLength])
		if i := strings.LastIndex(cut, " "); i > 0 {
			cut = cut[:i]
		}
		return strings.TrimSpace(cut)
	}
	return ""
}

// TitleFromURL derives a readable title from the last path segment.
func TitleFromURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	p := strings.TrimRight(u.Path, "/")
	if p == "" {
		return ""
	}
	base := path.Base(p)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}

// CleanKeywords lowercases and trims keywords, dropping blanks and repeats.
func CleanKeywords(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
