package html

import (
	"context"
	"fmt"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	nethtml "golang.org/x/net/html"

	"github.com/custodia-labs/siteassist/internal/core/domain"
	"github.com/custodia-labs/siteassist/internal/core/ports/driven"
	"github.com/custodia-labs/siteassist/internal/normalisers/markdown"
	"github.com/custodia-labs/siteassist/internal/normalisers/plaintext"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Containers tried in order for the main content of a page.
var mainSelectors = []string{"main", "article", "[role=main]"}

// Elements that never carry answer text.
var noiseTags = map[string]bool{
	"nav": true, "header": true, "footer": true, "aside": true,
	"script": true, "style": true, "noscript": true, "template": true,
	"iframe": true, "object": true, "embed": true, "svg": true,
	"form": true, "input": true, "button": true, "select": true,
}

// Class names of page chrome such as menus and cookie banners.
var noiseClasses = map[string]bool{
	"nav": true, "navbar": true, "navigation": true, "menu": true,
	"sidebar": true, "breadcrumb": true, "breadcrumbs": true,
	"toc": true, "table-of-contents": true, "footer": true, "header": true,
	"ad": true, "advertisement": true, "cookie-banner": true,
	"social": true, "share": true, "comments": true, "related": true,
}

// Normaliser handles HTML pages.
type Normaliser struct {
	mu        sync.Mutex
	converter *md.Converter
}

// New creates a new HTML normaliser.
func New() *Normaliser {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	return &Normaliser{converter: converter}
}

// SupportedContentTypes returns the content types this normaliser handles.
func (n *Normaliser) SupportedContentTypes() []string {
	return []string{domain.ContentTypeHTML, "application/xhtml+xml"}
}

// Normalise extracts the readable text of a page. The title comes from
// the input, then <title>, then the first H1, then the URL.
func (n *Normaliser) Normalise(ctx context.Context, input *domain.DocumentInput) (*domain.Document, error) {
	if input == nil {
		return nil, domain.ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	root, err := nethtml.Parse(strings.NewReader(input.Content))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing html: %v", domain.ErrInvalidInput, err)
	}

	pageTitle := titleOf(root)

	converted, err := n.convert(mainContent(root))
	if err != nil {
		return nil, fmt.Errorf("converting html: %w", err)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = pageTitle
	}
	if title == "" {
		title = markdown.Title(converted)
	}
	if title == "" {
		title = plaintext.TitleFromURL(input.URL)
	}

	return &domain.Document{
		Title:    title,
		Content:  markdown.Strip(converted),
		Category: strings.TrimSpace(input.Category),
		Keywords: plaintext.CleanKeywords(input.Keywords),
		URL:      strings.TrimSpace(input.URL),
	}, nil
}

func (n *Normaliser) convert(fragment string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.converter.ConvertString(fragment)
}

// titleOf returns the text of the first <title> element.
func titleOf(root *nethtml.Node) string {
	node := findElement(root, "title")
	if node == nil {
		return ""
	}
	return strings.Join(strings.Fields(textOf(node)), " ")
}

// mainContent renders the main content area with page chrome removed.
// Without a main container the whole body is used.
func mainContent(root *nethtml.Node) string {
	var node *nethtml.Node
	for _, selector := range mainSelectors {
		if node = findElement(root, selector); node != nil {
			break
		}
	}
	if node == nil {
		node = findElement(root, "body")
	}
	if node == nil {
		node = root
	}

	removeNoise(node)

	var sb strings.Builder
	if err := nethtml.Render(&sb, node); err != nil {
		return ""
	}
	return sb.String()
}

func findElement(n *nethtml.Node, selector string) *nethtml.Node {
	if n.Type == nethtml.ElementNode && matches(n, selector) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, selector); found != nil {
			return found
		}
	}
	return nil
}

// matches supports tag names and [attr=value] selectors.
func matches(n *nethtml.Node, selector string) bool {
	if strings.HasPrefix(selector, "[") && strings.HasSuffix(selector, "]") {
		key, val, ok := strings.Cut(selector[1:len(selector)-1], "=")
		if !ok {
			return false
		}
		for _, a := range n.Attr {
			if a.Key == key && a.Val == val {
				return true
			}
		}
		return false
	}
	return n.Data == selector
}

func removeNoise(n *nethtml.Node) {
	var next *nethtml.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == nethtml.CommentNode || (c.Type == nethtml.ElementNode && isNoise(c)) {
			n.RemoveChild(c)
			continue
		}
		removeNoise(c)
	}
}

func isNoise(n *nethtml.Node) bool {
	if noiseTags[n.Data] {
		return true
	}
	for _, a := range n.Attr {
		switch a.Key {
		case "class":
			for _, class := range strings.Fields(strings.ToLower(a.Val)) {
				if noiseClasses[class] {
					return true
				}
			}
		case "hidden":
			return true
		case "aria-hidden":
			if a.Val == "true" {
				return true
			}
		}
	}
	return false
}

func textOf(n *nethtml.Node) string {
	if n.Type == nethtml.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
}
