package importer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/labelcheck/pkg/refdata"
)

func init() {
	Register(&ndiNotificationsAdapter{charset: "windows-1252"})
}

// ndiNotificationsAdapter scrapes the FDA table of submitted 75-day premarket
// notifications for new dietary ingredients.
type ndiNotificationsAdapter struct {
	charset string
}

func (a *ndiNotificationsAdapter) ID() string             { return "fda-ndi-notifications" }
func (a *ndiNotificationsAdapter) Corpus() refdata.Corpus { return refdata.CorpusNDI }
func (a *ndiNotificationsAdapter) Description() string {
	return "FDA submitted 75-day premarket NDI notifications (HTML table)"
}
func (a *ndiNotificationsAdapter) DefaultURL() string {
	return "https://www.fda.gov/food/new-dietary-ingredient-ndi-notification-process/submitted-75-day-premarket-notifications-new-dietary-ingredients"
}
func (a *ndiNotificationsAdapter) License() string { return "US Government public domain" }

func (a *ndiNotificationsAdapter) Import(ctx context.Context, sourceURL string, store *refdata.Store) (int, error) {
	raw, err := fetchSource(ctx, sourceURL)
	if err != nil {
		return 0, err
	}
	data, err := decodeText(raw, a.charset)
	if err != nil {
		return 0, err
	}
	recs, err := parseNDITable(data)
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	if len(recs) == 0 {
		return 0, ErrNoRecords
	}
	if err := store.ReplaceNDI(ctx, recs); err != nil {
		return 0, err
	}
	return len(recs), nil
}

type ndiColumns struct {
	number, report, name, firm, submitted, response int
}

func (c ndiColumns) usable() bool { return c.number >= 0 && c.name >= 0 }

// parseNDITable reads the first table whose header names both an NDI number
// and an ingredient column.
func parseNDITable(data []byte) ([]refdata.NDINotificationRecord, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	for _, table := range findAll(doc, atom.Table) {
		rows := findAll(table, atom.Tr)
		if len(rows) == 0 {
			continue
		}
		cols := columnsFor(cellTexts(rows[0]))
		if !cols.usable() {
			continue
		}
		return ndiRecords(rows[1:], cols), nil
	}
	return nil, fmt.Errorf("no table with NDI number and ingredient columns")
}

func ndiRecords(rows []*html.Node, cols ndiColumns) []refdata.NDINotificationRecord {
	var out []refdata.NDINotificationRecord
	seen := make(map[string]bool)
	for _, tr := range rows {
		cells := cellTexts(tr)
		num := notificationNumber(field(cells, cols.number))
		name := field(cells, cols.name)
		if num == "" || name == "" || seen[num] {
			continue
		}
		seen[num] = true
		out = append(out, refdata.NDINotificationRecord{
			NotificationNumber: num,
			ReportNumber:       field(cells, cols.report),
			IngredientName:     name,
			Firm:               field(cells, cols.firm),
			SubmissionDate:     field(cells, cols.submitted),
			FDAResponseDate:    field(cells, cols.response),
		})
	}
	return out
}

func columnsFor(header []string) ndiColumns {
	c := ndiColumns{-1, -1, -1, -1, -1, -1}
	set := func(p *int, i int) {
		if *p < 0 {
			*p = i
		}
	}
	for i, h := range header {
		k := headerKey(h)
		switch {
		case strings.Contains(k, "report"):
			set(&c.report, i)
		case strings.Contains(k, "response"):
			set(&c.response, i)
		case strings.Contains(k, "submi") || strings.Contains(k, "filed") || strings.Contains(k, "received"):
			set(&c.submitted, i)
		case strings.Contains(k, "ndi") || strings.Contains(k, "notification"):
			set(&c.number, i)
		case strings.Contains(k, "ingredient") || strings.Contains(k, "substance"):
			set(&c.name, i)
		case strings.Contains(k, "firm") || strings.Contains(k, "company") || strings.Contains(k, "notifier"):
			set(&c.firm, i)
		}
	}
	return c
}

// notificationNumber strips any "NDI"/"#" prefix: "NDI #24" becomes "24".
func notificationNumber(s string) string {
	return strings.TrimLeftFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
}

func findAll(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == a {
			out = append(out, n)
			if a == atom.Table {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func cellTexts(tr *html.Node) []string {
	var out []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.DataAtom == atom.Td || c.DataAtom == atom.Th) {
			out = append(out, textContent(c))
		}
	}
	return out
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return collapseSpace(b.String())
}
