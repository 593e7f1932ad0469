// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package webclient fetches scholar profile pages over plain HTTP and
// parses the publication table without a browser. It pages through the
// profile with the cstart/pagesize query parameters, which works for
// public profiles as long as the host does not demand JavaScript; the
// browser client is the fallback for that case.
//
// See docs/ARCHITECTURE.md § Page Clients.
package webclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/pdiddy/scholar-cv/internal/extract"
	"github.com/pdiddy/scholar-cv/internal/httputil"
	"github.com/pdiddy/scholar-cv/pkg/types"
)

// BaseURL is the profile host. Declared as a var so tests can
// substitute an httptest server.
var BaseURL = "https://scholar.google.com"

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// requestRate limits profile fetches to one every two seconds;
	// the host bans faster clients quickly.
	requestRate = 0.5
)

// Client pages through a scholar profile over HTTP.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	cfg        types.ScrapeConfig
	cookie     string
	cstart     int
	done       bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCookie sets a Cookie header sent with every request, used to
// reuse a consent/session cookie from a real browser session.
func WithCookie(cookie string) Option {
	return func(c *Client) { c.cookie = cookie }
}

// New creates a page client for the profile named by cfg.UserID.
func New(cfg types.ScrapeConfig, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestRate), 1),
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchNextBatch requests the next profile page and returns its rows.
// An empty slice signals an exhausted profile.
func (c *Client) FetchNextBatch(ctx context.Context) ([]extract.RawEntry, error) {
	if c.done {
		return nil, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := url.Values{
		"user":     {c.cfg.UserID},
		"hl":       {"en"},
		"view_op":  {"list_works"},
		"sortby":   {"pubdate"},
		"cstart":   {fmt.Sprintf("%d", c.cstart)},
		"pagesize": {fmt.Sprintf("%d", pageSize)},
	}
	reqURL := BaseURL + "/citations?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return nil, fmt.Errorf("profile page request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing profile page: %w", err)
	}

	entries := ParseRows(doc, BaseURL)
	c.cstart += pageSize
	if len(entries) < pageSize {
		// A short page is the last one; skip the extra round trip.
		c.done = true
	}
	return entries, nil
}

// FetchDetail loads one entry's detail page. The profile row truncates
// long author lists with an ellipsis and carries no per-year data; the
// detail page has both.
func (c *Client) FetchDetail(ctx context.Context, id string) (extract.Detail, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return extract.Detail{}, err
	}

	params := url.Values{
		"view_op":           {"view_citation"},
		"hl":                {"en"},
		"user":              {c.cfg.UserID},
		"citation_for_view": {id},
	}
	reqURL := BaseURL + "/citations?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return extract.Detail{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, 0)
	if err != nil {
		return extract.Detail{}, fmt.Errorf("detail page request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return extract.Detail{}, fmt.Errorf("detail page returned HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return extract.Detail{}, fmt.Errorf("parsing detail page: %w", err)
	}
	return ParseDetail(doc), nil
}

// ParseDetail reads the labeled field rows (gsc_oci_field/value) and
// the citation histogram bars of a detail document. Each bar links to
// a one-year citation search, so its year comes from the as_ylo query
// parameter rather than from bar position.
func ParseDetail(doc *goquery.Document) extract.Detail {
	var d extract.Detail

	doc.Find("#gsc_oci_table div.gs_scl").Each(func(_ int, s *goquery.Selection) {
		field := strings.TrimSpace(s.Find("div.gsc_oci_field").Text())
		if !strings.EqualFold(field, "authors") {
			return
		}
		for _, a := range strings.Split(s.Find("div.gsc_oci_value").Text(), ",") {
			if a = strings.TrimSpace(a); a != "" {
				d.Authors = append(d.Authors, a)
			}
		}
	})

	doc.Find("a.gsc_oci_g_a").Each(func(_ int, bar *goquery.Selection) {
		href, _ := bar.Attr("href")
		u, err := url.Parse(href)
		if err != nil {
			return
		}
		year, err := strconv.Atoi(u.Query().Get("as_ylo"))
		if err != nil {
			return
		}
		count, err := strconv.Atoi(strings.TrimSpace(bar.Find("span.gsc_oci_g_al").Text()))
		if err != nil {
			return
		}
		if d.CitationsByYear == nil {
			d.CitationsByYear = make(map[int]int)
		}
		d.CitationsByYear[year] = count
	})

	return d
}

// ParseRows extracts the publication rows (tr.gsc_a_tr) from a profile
// document. Shared with the browser client, which parses the same
// markup out of the rendered DOM.
func ParseRows(doc *goquery.Document, baseURL string) []extract.RawEntry {
	var entries []extract.RawEntry
	doc.Find("tr.gsc_a_tr").Each(func(_ int, row *goquery.Selection) {
		titleLink := row.Find("a.gsc_a_at").First()
		title := strings.TrimSpace(titleLink.Text())

		gray := row.Find("div.gs_gray")
		authors := strings.TrimSpace(gray.Eq(0).Text())
		venue := strings.TrimSpace(gray.Eq(1).Text())

		year := strings.TrimSpace(row.Find("td.gsc_a_y").Text())
		if year != "" && venue != "" {
			venue = venue + ", " + year
		} else if year != "" {
			venue = year
		}

		citations := strings.TrimSpace(row.Find("a.gsc_a_ac").Text())

		var lines []string
		for _, l := range []string{title, authors, venue} {
			if l != "" {
				lines = append(lines, l)
			}
		}
		if citations != "" {
			lines = append(lines, "Cited by "+citations)
		}

		href, _ := titleLink.Attr("href")
		entries = append(entries, extract.RawEntry{
			ID:   entryID(href),
			Text: strings.Join(lines, "\n"),
			URL:  absoluteURL(baseURL, href),
		})
	})
	return entries
}

// entryID pulls the citation_for_view token out of a row's detail link.
// The token has the form "USERID:ENTRY"; the whole value is kept as the
// opaque id.
func entryID(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Query().Get("citation_for_view")
}

func absoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return base + href
}
