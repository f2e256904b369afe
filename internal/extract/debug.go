package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DebugPrintSelector prints what a selector matches, one block per match with
// a blank line between blocks. This backs the extract command's "-selector"
// mode for dialing in a schema against a saved page.
func DebugPrintSelector(w io.Writer, html, selector string, textOnly bool) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		fmt.Fprintln(w, renderNode(s, textOnly))
		fmt.Fprintln(w)
	})
	return nil
}

// renderNode serializes one matched node, falling back to inner HTML when the
// outer HTML cannot be rebuilt.
func renderNode(s *goquery.Selection, textOnly bool) string {
	if textOnly {
		return strings.TrimSpace(s.Text())
	}
	out, err := goquery.OuterHtml(s)
	if err != nil {
		out, _ = s.Html()
	}
	return out
}
