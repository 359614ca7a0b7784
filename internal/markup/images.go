package markup

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageSources returns the src attribute of every img element in the
// fragment, in document order. An empty fragment yields an empty slice.
func ImageSources(fragment string) ([]string, error) {
	doc, err := parseFragment(fragment)
	if err != nil {
		return nil, err
	}
	sources := make([]string, 0)
	doc.Find("img").Each(func(_ int, sel *goquery.Selection) {
		sources = append(sources, sel.AttrOr("src", ""))
	})
	return sources, nil
}

// RewriteImages calls rewrite for each img element in document order and
// replaces the element's src with the returned value. An error from rewrite
// aborts the walk and is returned unchanged; all other markup is preserved.
// The result is the re-serialized fragment.
func RewriteImages(fragment string, rewrite func(src string) (string, error)) (string, error) {
	doc, err := parseFragment(fragment)
	if err != nil {
		return "", err
	}

	var walkErr error
	doc.Find("img").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		newSrc, err := rewrite(sel.AttrOr("src", ""))
		if err != nil {
			walkErr = err
			return false
		}
		sel.SetAttr("src", newSrc)
		return true
	})
	if walkErr != nil {
		return "", walkErr
	}

	return serializeFragment(doc)
}

func parseFragment(fragment string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	return doc, nil
}

// serializeFragment returns the inner HTML of the implicit body the parser
// wrapped the fragment in.
func serializeFragment(doc *goquery.Document) (string, error) {
	html, err := doc.Find("body").Html()
	if err != nil {
		return "", fmt.Errorf("serialize markup: %w", err)
	}
	return html, nil
}
