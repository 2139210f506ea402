package markdown

import (
	"context"
	"regexp"
	"strings"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	escapedRe    = regexp.MustCompile("\\\\([\\\\`*_{}\\[\\]()#+\\-.!|>~])")
	codeFenceRe  = regexp.MustCompile("(?s)```[^\\n]*\\n(.*?)```")
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	imageRe      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	refLinkRe    = regexp.MustCompile(`(?m)^[ \t]*\[[^\]]+\]:[ \t]+\S+.*$`)
	headingRe    = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
	blockquoteRe = regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`)
	hrRe         = regexp.MustCompile(`(?m)^[ \t]*([-*_][ \t]*){3,}$`)
	tableSepRe   = regexp.MustCompile(`(?m)^[ \t]*\|?[ \t:|-]*-[ \t:|-]*(\n|$)`)
	tablePipeRe  = regexp.MustCompile(`[ \t]*\|[ \t]*`)
	bulletRe     = regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+(\[[ xX]\][ \t]+)?`)
	numberedRe   = regexp.MustCompile(`(?m)^[ \t]*\d+[.)][ \t]+`)
	emphasisRe   = regexp.MustCompile(`(\*\*|__|\*|_|~~)(\S(?:.*?\S)?)(\*\*|__|\*|_|~~)`)
	htmlTagRe    = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedContentTypes returns the content types this normaliser handles.
func (n *Normaliser) SupportedContentTypes() []string {
	return []string{domain.ContentTypeMarkdown, "text/x-markdown"}
}

// Normalise strips markdown formatting. The title comes from the input,
// then the first H1, then the first line of text, then the URL.
func (n *Normaliser) Normalise(ctx context.Context, input *domain.DocumentInput) (*domain.Document, error) {
	if input == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := Strip(input.Content)

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = Title(input.Content)
	}
	if title == "" {
		title = plaintext.FirstLine(content)
	}
	if title == "" {
		title = plaintext.TitleFromURL(input.URL)
	}

	return &domain.Document{
		Title:    title,
		Content:  content,
		Category: strings.TrimSpace(input.Category),
		Keywords: plaintext.CleanKeywords(input.Keywords),
		URL:      strings.TrimSpace(input.URL),
	}, nil
}

// Title returns the text of the first H1 heading, or "".
func Title(content string) string {
	inFence := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(line, "# ") {
			return Strip(strings.TrimSpace(line[2:]))
		}
	}
	return ""
}

// Strip removes markdown syntax and returns readable text. Fenced code
// keeps its body, links keep their text, images are dropped and tables
// become space-separated rows.
func Strip(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = escapedRe.ReplaceAllStringFunc(content, func(m string) string {
		return string(rune(escapeBase + int(m[1])))
	})

	content = codeFenceRe.ReplaceAllString(content, "$1")
	content = inlineCodeRe.ReplaceAllString(content, "$1")
	content = imageRe.ReplaceAllString(content, "")
	content = linkRe.ReplaceAllString(content, "$1")
	content = refLinkRe.ReplaceAllString(content, "")
	content = htmlTagRe.ReplaceAllString(content, "")
	content = headingRe.ReplaceAllString(content, "")
	content = blockquoteRe.ReplaceAllString(content, "")
	content = hrRe.ReplaceAllString(content, "")
	content = tableSepRe.ReplaceAllString(content, "")
	content = bulletRe.ReplaceAllString(content, "")
	content = numberedRe.ReplaceAllString(content, "")
	for prev := ""; prev != content; {
		prev = content
		content = emphasisRe.ReplaceAllString(content, "$2")
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.Contains(line, "|") {
			line = tablePipeRe.ReplaceAllString(line, " ")
		}
		lines[i] = strings.TrimSpace(line)
	}
	content = strings.Join(lines, "\n")

	content = strings.Map(func(r rune) rune {
		if r >= escapeBase && r < escapeBase+128 {
			return r - escapeBase
		}
		return r
	}, content)

	return plaintext.Clean(content)
}

// escapeBase is the private-use range backslash escapes are parked in
// while formatting is stripped.
const escapeBase = 0xE000
