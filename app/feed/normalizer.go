package feed

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Normalizer rewrites entry HTML in one streaming pass. Anchors lose their
// style attribute and root-relative href/src values on <a> and <img> become
// absolute. Everything else is copied through byte for byte.
type Normalizer struct {
	policy *bluemonday.Policy
}

// NewNormalizer returns a Normalizer; with sanitize set the rewritten HTML
// is additionally passed through a user-generated-content policy.
func NewNormalizer(sanitize bool) *Normalizer {
	n := &Normalizer{}
	if sanitize {
		n.policy = bluemonday.UGCPolicy()
	}
	return n
}

func (n *Normalizer) Normalize(content string, baseURL string) (string, error) {
	if content == "" {
		return "", nil
	}

	var base *url.URL
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil {
			return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
		}
		if parsed.IsAbs() {
			base = parsed
		}
	}

	var out strings.Builder
	out.Grow(len(content))

	z := html.NewTokenizer(strings.NewReader(content))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if errors.Is(z.Err(), io.EOF) {
				break
			}
			return content, fmt.Errorf("failed to tokenize content: %w", z.Err())
		}

		// Token() lowercases the tag name inside the tokenizer buffer
		raw := append([]byte(nil), z.Raw()...)

		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			tok := z.Token()
			if rewriteTag(&tok, base) {
				out.WriteString(tok.String())
				continue
			}
		}

		out.Write(raw)
	}

	result := out.String()
	if n.policy != nil {
		result = n.policy.Sanitize(result)
	}
	return result, nil
}

func rewriteTag(tok *html.Token, base *url.URL) bool {
	var urlAttr string
	switch tok.DataAtom {
	case atom.A:
		urlAttr = "href"
	case atom.Img:
		urlAttr = "src"
	default:
		return false
	}

	changed := false
	attrs := tok.Attr[:0]
	for _, attr := range tok.Attr {
		if tok.DataAtom == atom.A && attr.Namespace == "" && attr.Key == "style" {
			changed = true
			continue
		}

		if base != nil && attr.Namespace == "" && attr.Key == urlAttr && strings.HasPrefix(attr.Val, "/") {
			if ref, err := url.Parse(attr.Val); err == nil {
				attr.Val = base.ResolveReference(ref).String()
				changed = true
			}
		}

		attrs = append(attrs, attr)
	}
	tok.Attr = attrs

	return changed
}
