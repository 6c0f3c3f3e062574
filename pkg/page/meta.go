package page

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/go-shiori/dom"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

// Meta is the article metadata recorded for a page.
type Meta struct {
	Title    string
	Byline   string
	SiteName string
}

// ExtractMeta runs readability over body. When readability finds no title
// the document <title> is used.
func ExtractMeta(body []byte, u *url.URL) (Meta, error) {
	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return Meta{Title: documentTitle(body)}, err
	}
	meta := Meta{Title: article.Title, Byline: article.Byline, SiteName: article.SiteName}
	if meta.Title == "" {
		meta.Title = documentTitle(body)
	}
	return meta, nil
}

func documentTitle(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if t := dom.QuerySelector(doc, "title"); t != nil {
		return strings.TrimSpace(dom.TextContent(t))
	}
	return ""
}
