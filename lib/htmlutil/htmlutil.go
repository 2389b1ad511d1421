package htmlutil

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("lib/htmlutil")

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// ExtractRows selects every node matching rowSelector in document order and
// maps each to the trimmed text of its first columnCount <td> cells. Rows
// with fewer cells than columnCount are skipped with a warning, the source
// tables never produce them unless the page shape changed.
func ExtractRows(ctx context.Context, doc *goquery.Document, rowSelector string, columnCount int) [][]string {
	ctx, span := tracer.Start(ctx, "ExtractRows")
	defer span.End()
	span.SetAttributes(attribute.String("selector", rowSelector))

	var rows [][]string
	doc.Find(rowSelector).Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < columnCount {
			slog.WarnContext(
				ctx, "skipping short table row",
				"selector", rowSelector,
				"row", i,
				"cells", cells.Length(),
				"want", columnCount,
			)
			return
		}

		record := make([]string, columnCount)
		for c := 0; c < columnCount; c++ {
			record[c] = strings.TrimSpace(GetText(cells.Get(c)))
		}
		rows = append(rows, record)
	})

	span.SetAttributes(attribute.Int("rows", len(rows)))
	return rows
}
