// Package discovery finds candidate document links on a listing page.
package discovery

import (
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/ThiagoRGoveia/ans-operadoras/internal/models"
	"golang.org/x/net/html"
)

// Filter selects anchors. Label and Class are case-insensitive regular expressions
// and are mutually exclusive; Suffix is a literal, case-sensitive href suffix.
type Filter struct {
	Label  string
	Class  string
	Suffix string
}

// FindLinks returns the hrefs of matching anchors in document order.
// A page that cannot be parsed or has no matches yields an empty list, not an error.
func FindLinks(logger *slog.Logger, page string, filter Filter) ([]string, error) {
	if filter.Label != "" && filter.Class != "" {
		return nil, models.NewAppError(models.KindFilterConflict, "", "choose either a label or a class filter", nil)
	}

	match, err := compileMatcher(filter)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		logger.Warn("could not parse listing page", "error", err)
		return []string{}, nil
	}

	links := []string{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href, ok := attr(n, "href"); ok && match(n) {
				if filter.Suffix == "" || strings.HasSuffix(href, filter.Suffix) {
					links = append(links, href)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(links) == 0 {
		logger.Info("no links matched", "label", filter.Label, "class", filter.Class, "suffix", filter.Suffix)
	} else {
		logger.Debug("links fetched", "count", len(links))
	}
	return links, nil
}

func compileMatcher(filter Filter) (func(*html.Node) bool, error) {
	switch {
	case filter.Label != "":
		re, err := regexp.Compile("(?i)" + filter.Label)
		if err != nil {
			return nil, models.NewAppError(models.KindInvalidFilter, filter.Label, "invalid label pattern", err)
		}
		return func(n *html.Node) bool {
			return re.MatchString(text(n))
		}, nil
	case filter.Class != "":
		re, err := regexp.Compile("(?i)" + filter.Class)
		if err != nil {
			return nil, models.NewAppError(models.KindInvalidFilter, filter.Class, "invalid class pattern", err)
		}
		return func(n *html.Node) bool {
			classes, _ := attr(n, "class")
			for _, c := range strings.Fields(classes) {
				if re.MatchString(c) {
					return true
				}
			}
			return false
		}, nil
	default:
		return func(*html.Node) bool { return true }, nil
	}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func text(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimSpace(sb.String())
}

// Resolve turns hrefs into absolute URLs against the page they were found on.
// Hrefs that cannot be parsed are dropped.
func Resolve(base string, hrefs []string) []string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil
	}

	resolved := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved = append(resolved, baseURL.ResolveReference(ref).String())
	}
	return resolved
}
