package grid

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	xhtml "golang.org/x/net/html"
	"golang.org/x/text/encoding/htmlindex"
)

var charsetRe = regexp.MustCompile(`(?i)charset\s*=\s*["']?([A-Za-z0-9._\-]+)`)

// DecodeHTML parses the table markup that legacy ".xls" quote exports
// actually contain. The charset comes from the document's own meta tag
// when present; anything undeclared or unknown is read as UTF-8.
func DecodeHTML(data []byte) ([]Table, string, error) {
	src := decodeCharset(data)
	root, err := xhtml.Parse(strings.NewReader(src))
	if err != nil {
		return nil, "", eris.Wrap(err, "grid: parse html")
	}

	tables := parseTables(root)
	if len(tables) == 0 {
		return nil, "", eris.New("grid: no tables in html document")
	}
	return tables, StripHTML(src), nil
}

func decodeCharset(data []byte) string {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if m := charsetRe.FindSubmatch(head); m != nil {
		if enc, err := htmlindex.Get(string(m[1])); err == nil {
			if out, err := enc.NewDecoder().Bytes(data); err == nil {
				return string(out)
			}
		}
	}
	return string(data)
}

// parseTables collects every <table> in the tree, nested ones included,
// in document order.
func parseTables(root *xhtml.Node) []Table {
	var tables []Table
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.ElementNode && n.Data == "table" {
			if t := parseTable(n); t.Rows() > 0 {
				tables = append(tables, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return tables
}

// parseTable expands colspan by repeating the cell and rowspan by
// carrying the cell into following rows, so adjacency in the grid
// mirrors what a reader sees in the rendered table.
func parseTable(tbl *xhtml.Node) Table {
	type carry struct {
		text string
		left int
	}
	down := map[int]*carry{}

	var grid [][]string
	for _, tr := range tableRows(tbl) {
		var row []string
		col := 0
		emit := func(text string) {
			row = append(row, text)
			col++
		}
		flushCarries := func() {
			for {
				c, ok := down[col]
				if !ok {
					return
				}
				c.left--
				if c.left == 0 {
					delete(down, col)
				}
				emit(c.text)
			}
		}

		for _, cell := range rowCells(tr) {
			flushCarries()
			text := nodeText(cell)
			colspan := intAttr(cell, "colspan", 1)
			rowspan := intAttr(cell, "rowspan", 1)
			for i := 0; i < colspan; i++ {
				if rowspan > 1 {
					down[col] = &carry{text: text, left: rowspan - 1}
				}
				emit(text)
			}
		}
		flushCarries()
		grid = append(grid, row)
	}
	return Table{Cells: grid}
}

// tableRows returns the <tr> elements of a table, skipping rows that
// belong to nested tables.
func tableRows(tbl *xhtml.Node) []*xhtml.Node {
	var trs []*xhtml.Node
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xhtml.ElementNode {
				continue
			}
			switch c.Data {
			case "table":
				continue
			case "tr":
				trs = append(trs, c)
			default:
				walk(c)
			}
		}
	}
	walk(tbl)
	return trs
}

func rowCells(tr *xhtml.Node) []*xhtml.Node {
	var cells []*xhtml.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xhtml.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, c)
		}
	}
	return cells
}

// nodeText concatenates all text under a node, nested markup included,
// with whitespace collapsed.
func nodeText(n *xhtml.Node) string {
	var b strings.Builder
	var walk func(*xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

func intAttr(n *xhtml.Node, name string, def int) int {
	for _, a := range n.Attr {
		if a.Key == name {
			if v, err := strconv.Atoi(strings.TrimSpace(a.Val)); err == nil && v > 0 {
				return v
			}
		}
	}
	return def
}
