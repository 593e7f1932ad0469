// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package browser drives a headless Chrome over the scholar profile
// page and feeds the rendered publication rows to the scrape stage. It
// exists for profiles the plain HTTP client cannot read: the rendered
// page paginates by a "Show more" button instead of query parameters,
// so batches here correspond to button clicks.
//
// See docs/ARCHITECTURE.md § Page Clients.
package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/pdiddy/scholar-cv/internal/extract"
	"github.com/pdiddy/scholar-cv/internal/webclient"
	"github.com/pdiddy/scholar-cv/pkg/types"
)

// showMoreSelector is the profile page's pagination button.
const showMoreSelector = "#gsc_bpf_more"

// Client implements scrape.PageClient on top of a rod-controlled
// Chrome. The first batch is the initially rendered table; each later
// batch is the rows appended by one "Show more" click.
type Client struct {
	cfg  types.ScrapeConfig
	bcfg types.BrowserConfig

	lnch    *launcher.Launcher
	browser *rod.Browser
	page    *rod.Page

	served int
	done   bool
}

// New creates a browser page client. Chrome is launched lazily on the
// first fetch so that configuration errors surface before any process
// is started.
func New(cfg types.ScrapeConfig, bcfg types.BrowserConfig) *Client {
	if bcfg.NavTimeout <= 0 {
		bcfg.NavTimeout = 30 * time.Second
	}
	if bcfg.ShowMoreDelay <= 0 {
		bcfg.ShowMoreDelay = 2 * time.Second
	}
	return &Client{cfg: cfg, bcfg: bcfg}
}

// ProfileURL returns the rendered profile page URL for a user id.
func ProfileURL(userID string) string {
	params := url.Values{
		"user":    {userID},
		"hl":      {"en"},
		"view_op": {"list_works"},
		"sortby":  {"pubdate"},
	}
	return webclient.BaseURL + "/citations?" + params.Encode()
}

// FetchNextBatch returns the next set of rendered rows. An empty slice
// means the "Show more" button is exhausted.
func (c *Client) FetchNextBatch(ctx context.Context) ([]extract.RawEntry, error) {
	if c.done {
		return nil, nil
	}

	if c.page == nil {
		if err := c.open(ctx); err != nil {
			return nil, err
		}
		rows, err := c.rows(ctx)
		if err != nil {
			return nil, err
		}
		c.served = len(rows)
		return rows, nil
	}

	clicked, err := c.clickShowMore(ctx)
	if err != nil {
		return nil, err
	}
	if !clicked {
		c.done = true
		return nil, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.bcfg.ShowMoreDelay):
	}

	rows, err := c.rows(ctx)
	if err != nil {
		return nil, err
	}
	batch := batchAfterClick(rows, c.served)
	if len(rows) > c.served {
		c.served = len(rows)
	}
	return batch, nil
}

// batchAfterClick selects the entries to report after a "Show more"
// click. When the click rendered nothing new (a slow render, or the
// page lying about having more) the full row set is returned: the
// caller's seen-set counts it as a stalled batch instead of reading it
// as the end of the profile.
func batchAfterClick(rows []extract.RawEntry, served int) []extract.RawEntry {
	if len(rows) <= served {
		return rows
	}
	return rows[served:]
}

// open launches Chrome, applies stealth, and navigates to the profile.
func (c *Client) open(ctx context.Context) error {
	l := launcher.New().Headless(c.bcfg.Headless)
	// Anti-detection flag, same as a manually driven session.
	l = l.Set("disable-blink-features", "AutomationControlled")

	wsURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("browser: launch: %w", err)
	}
	c.lnch = l

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser: connect: %w", err)
	}
	c.browser = b

	page, err := stealth.Page(b)
	if err != nil {
		return fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, c.bcfg.NavTimeout)
	defer cancel()

	target := ProfileURL(c.cfg.UserID)
	if err := page.Context(navCtx).Navigate(target); err != nil {
		page.Close()
		return fmt.Errorf("browser: navigate %s: %w", target, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		page.Close()
		return fmt.Errorf("browser: wait load %s: %w", target, err)
	}

	c.page = page
	return nil
}

// rows serialises the rendered DOM and parses the publication table.
func (c *Client) rows(ctx context.Context) ([]extract.RawEntry, error) {
	html, err := c.page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("browser: read DOM: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("browser: parse DOM: %w", err)
	}
	return webclient.ParseRows(doc, webclient.BaseURL), nil
}

// clickShowMore clicks the pagination button. It returns false when the
// button is missing or disabled, which marks the end of the profile.
func (c *Client) clickShowMore(ctx context.Context) (bool, error) {
	page := c.page.Context(ctx)

	has, el, err := page.Has(showMoreSelector)
	if err != nil {
		return false, fmt.Errorf("browser: find show-more button: %w", err)
	}
	if !has {
		return false, nil
	}

	if disabled, _ := el.Attribute("disabled"); disabled != nil {
		return false, nil
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, fmt.Errorf("browser: click show-more: %w", err)
	}
	return true, nil
}

// Close shuts down the tab, the browser, and the launched Chrome.
func (c *Client) Close() error {
	if c.page != nil {
		c.page.Close()
	}
	var err error
	if c.browser != nil {
		err = c.browser.Close()
	}
	if c.lnch != nil {
		c.lnch.Cleanup()
	}
	return err
}
