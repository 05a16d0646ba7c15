package bref

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fuku8/nba-rating-visualizer/internal/table"
	"golang.org/x/net/html"
)

// ExtractTable pulls a stats table out of a Basketball Reference page as a
// raw provider-shaped table. Pages vary, so extraction tries several
// strategies in order:
//
//  1. a table with the expected id attribute,
//  2. any table whose header row contains the marker column,
//  3. tables embedded inside HTML comments, which Basketball Reference
//     uses for lazily revealed sections.
func ExtractTable(htmlContent, tableID, marker string) (*table.Raw, error) {
	doc, err := ParseHTML(htmlContent)
	if err != nil {
		return nil, err
	}

	if sel := doc.Find("table#" + tableID); sel.Length() > 0 {
		return tableFromSelection(sel.First())
	}

	if sel := findTableByMarker(doc, marker); sel != nil {
		return tableFromSelection(sel)
	}

	if raw := extractFromComments(doc, tableID, marker); raw != nil {
		return raw, nil
	}

	return nil, fmt.Errorf("no %q table found in page", tableID)
}

// findTableByMarker returns the first table whose header contains the
// marker column name.
func findTableByMarker(doc *goquery.Document, marker string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(i int, s *goquery.Selection) bool {
		match := false
		s.Find("thead th").Each(func(i int, th *goquery.Selection) {
			if strings.TrimSpace(th.Text()) == marker {
				match = true
			}
		})
		if match {
			found = s
			return false
		}
		return true
	})
	return found
}

// extractFromComments re-parses commented-out markup and retries the id and
// marker strategies against it.
func extractFromComments(doc *goquery.Document, tableID, marker string) *table.Raw {
	var raw *table.Raw
	doc.Contents().Each(func(i int, s *goquery.Selection) {
		walkComments(s, func(comment string) {
			if raw != nil || !strings.Contains(comment, "<table") {
				return
			}
			inner, err := ParseHTML(comment)
			if err != nil {
				return
			}
			if sel := inner.Find("table#" + tableID); sel.Length() > 0 {
				raw, _ = tableFromSelection(sel.First())
				return
			}
			if sel := findTableByMarker(inner, marker); sel != nil {
				raw, _ = tableFromSelection(sel)
			}
		})
	})
	return raw
}

// walkComments visits every HTML comment node under a selection.
func walkComments(s *goquery.Selection, visit func(string)) {
	for _, node := range s.Nodes {
		var walk func(*html.Node)
		walk = func(n *html.Node) {
			if n.Type == html.CommentNode {
				visit(n.Data)
			}
			for child := n.FirstChild; child != nil; child = child.NextSibling {
				walk(child)
			}
		}
		walk(node)
	}
}

// tableFromSelection converts a goquery table selection into a raw table.
// Headers come from the last header row (the page uses a decorative
// over-header on some tables); repeated header rows inside the body are
// kept as data and dropped later by the normalizer.
func tableFromSelection(sel *goquery.Selection) (*table.Raw, error) {
	var columns []string
	sel.Find("thead tr").Last().Find("th").Each(func(i int, th *goquery.Selection) {
		columns = append(columns, strings.TrimSpace(th.Text()))
	})
	if len(columns) == 0 {
		return nil, fmt.Errorf("table has no header row")
	}

	raw := &table.Raw{Columns: columns, Rows: []map[string]string{}}
	sel.Find("tbody tr").Each(func(i int, tr *goquery.Selection) {
		row := make(map[string]string, len(columns))
		tr.Find("th, td").Each(func(j int, cell *goquery.Selection) {
			if j < len(columns) {
				row[columns[j]] = strings.TrimSpace(cell.Text())
			}
		})
		if len(row) > 0 {
			raw.Rows = append(raw.Rows, row)
		}
	})

	return raw, nil
}
