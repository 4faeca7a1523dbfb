package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/pfrederiksen/nfl-season-stats/internal/table"
)

const (
	UserAgent = "nfl-stats/1.0 (github.com/pfrederiksen/nfl-season-stats)"
	Timeout   = 30 * time.Second
)

// ErrTableNotFound is returned by Select when a requested table id is absent
var ErrTableNotFound = errors.New("table not found")

// Fetcher returns all tables found at a URL
type Fetcher interface {
	FetchTables(ctx context.Context, url string) ([]*table.Table, error)
}

// Scraper fetches pages over HTTP
type Scraper struct {
	client    *http.Client
	userAgent string
}

// New creates a Scraper. Zero values select UserAgent and Timeout.
func New(userAgent string, timeout time.Duration) *Scraper {
	if userAgent == "" {
		userAgent = UserAgent
	}
	if timeout <= 0 {
		timeout = Timeout
	}
	return &Scraper{
		client: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
	}
}

// FetchTables fetches url and parses every table on the page
func (s *Scraper) FetchTables(ctx context.Context, url string) ([]*table.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return ParseTables(resp.Body)
}

// ParseTables extracts the tables of an HTML document, visible ones first
func ParseTables(r io.Reader) ([]*table.Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	tables := parseDocument(doc)

	for _, comment := range commentedTables(doc) {
		sub, err := goquery.NewDocumentFromReader(strings.NewReader(comment))
		if err != nil {
			return nil, fmt.Errorf("parsing commented HTML: %w", err)
		}
		tables = append(tables, parseDocument(sub)...)
	}

	return tables, nil
}

// Select returns the tables with the given ids, in that order. With no ids every
// table is returned.
func Select(tables []*table.Table, ids ...string) ([]*table.Table, error) {
	if len(ids) == 0 {
		return tables, nil
	}

	out := make([]*table.Table, 0, len(ids))
	for _, id := range ids {
		found := false
		for _, t := range tables {
			if t.ID() == id {
				out = append(out, t)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrTableNotFound, id)
		}
	}
	return out, nil
}

func parseDocument(doc *goquery.Document) []*table.Table {
	var tables []*table.Table
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		tables = append(tables, parseTable(sel))
	})
	return tables
}

// commentedTables returns the text of HTML comments that contain a table
func commentedTables(doc *goquery.Document) []string {
	var out []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.CommentNode && strings.Contains(n.Data, "<table") {
			out = append(out, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return out
}

func parseTable(sel *goquery.Selection) *table.Table {
	id, _ := sel.Attr("id")

	var header []string
	var body *goquery.Selection

	heads := sel.Find("thead tr").Not(".over_header")
	if heads.Length() > 0 {
		header = cellTexts(heads.Last())
		body = sel.Find("tbody tr, tfoot tr")
	} else {
		// No thead: the first row holds the column names
		rows := sel.Find("tr")
		if rows.Length() == 0 {
			return table.New(nil, nil).WithID(id)
		}
		header = cellTexts(rows.First())
		body = rows.Slice(1, rows.Length())
	}

	var rows [][]table.Cell
	body.Each(func(_ int, tr *goquery.Selection) {
		if tr.HasClass("thead") || tr.HasClass("over_header") {
			return
		}
		texts := cellTexts(tr)
		if len(texts) == 0 {
			return
		}
		row := make([]table.Cell, len(texts))
		for i, t := range texts {
			row[i] = table.Text(t)
		}
		rows = append(rows, row)
	})

	return table.New(header, rows).WithID(id)
}

// cellTexts returns the text of each th/td cell of a row, repeated across colspan
func cellTexts(tr *goquery.Selection) []string {
	var out []string
	tr.Children().Filter("th, td").Each(func(_ int, cell *goquery.Selection) {
		text := strings.Join(strings.Fields(cell.Text()), " ")
		span := 1
		if v, ok := cell.Attr("colspan"); ok {
			if n, err := strconv.Atoi(v); err == nil && n > 1 {
				span = n
			}
		}
		for i := 0; i < span; i++ {
			out = append(out, text)
		}
	})
	return out
}
