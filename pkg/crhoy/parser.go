package crhoy

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// ParseError reports that an article page did not contain extractable
// content. It is permanent for the page in question.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "failed to parse article: " + e.Reason
}

// Selectors stripped from regular article bodies before conversion:
// ads, galleries, comments, tags and embedded recommendations.
var unwantedSelectors = []string{
	"script", "style", "iframe",
	"div.banner-d", "div.bannerEmbedsHome", "div.moreBox",
	"div.comentarios-container", "div.etiquetas",
	"div.leerMasOuter", "div.gallery",
	"div.wp-caption",
}

// ParseArticle extracts the title and body of an article page and renders
// the body as markdown. Both regular articles and opinion pieces are
// supported; anything else yields a ParseError.
func ParseArticle(page []byte) (title, markdown string, err error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse article HTML: %w", err)
	}

	if section := doc.Find("section.main-content"); section.Length() > 0 && section.HasClass("opinion") {
		title, markdown, err = parseOpinion(section)
	} else {
		title, markdown, err = parseRegular(doc)
	}
	if err != nil {
		return "", "", err
	}
	if title == "" || strings.TrimSpace(markdown) == "" {
		return "", "", &ParseError{Reason: "missing title or content"}
	}
	return title, markdown, nil
}

func parseRegular(doc *goquery.Document) (string, string, error) {
	title := strings.TrimSpace(doc.Find("h1.titulo").First().Text())

	content := doc.Find("div#contenido").First()
	if content.Length() == 0 {
		return title, "", nil
	}
	// The real body is the first direct child div; siblings hold bullet
	// points and page chrome.
	main := content.ChildrenFiltered("div").First()
	if main.Length() == 0 {
		return title, "", nil
	}
	for _, sel := range unwantedSelectors {
		main.Find(sel).Remove()
	}
	md, err := renderMarkdown(main)
	return title, md, err
}

func parseOpinion(section *goquery.Selection) (string, string, error) {
	article := section.Find("article.articulo-opinion").First()
	if article.Length() == 0 {
		return "", "", nil
	}
	title := strings.TrimSpace(article.Find("h1").First().Text())
	content := article.Find("div.contenido").First()
	if content.Length() == 0 {
		return title, "", nil
	}
	md, err := renderMarkdown(content)
	return title, md, err
}

func renderMarkdown(sel *goquery.Selection) (string, error) {
	html, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", fmt.Errorf("failed to serialize article content: %w", err)
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert article content to markdown: %w", err)
	}
	return md, nil
}
