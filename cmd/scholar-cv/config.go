package main

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/scholar-cv/internal/browser"
	"github.com/pdiddy/scholar-cv/internal/scrape"
	"github.com/pdiddy/scholar-cv/internal/secrets"
	"github.com/pdiddy/scholar-cv/internal/webclient"
	"github.com/pdiddy/scholar-cv/pkg/types"
)

const (
	engineHTTP    = "http"
	engineBrowser = "browser"
)

func init() {
	viper.SetDefault("scrape.timeout", 30*time.Second)
	viper.SetDefault("scrape.user_agent", "scholar-cv/0.1")
	viper.SetDefault("scrape.page_size", 20)
	viper.SetDefault("scrape.fetch_retries", 3)
	viper.SetDefault("scrape.stall_limit", 3)
	viper.SetDefault("scrape.batch_delay", time.Second)
	viper.SetDefault("scrape.engine", engineHTTP)
	viper.SetDefault("scrape.details", true)
	viper.SetDefault("browser.headless", true)
	viper.SetDefault("browser.nav_timeout", 30*time.Second)
	viper.SetDefault("browser.show_more_delay", 2*time.Second)
	viper.SetDefault("report.format", string(types.OutputMarkdown))
	viper.SetDefault("store.archive_dir", "archive")
}

// scrapeConfigFromCmd merges config-file values with flag overrides.
func scrapeConfigFromCmd(cmd *cobra.Command) types.ScrapeConfig {
	cfg := types.ScrapeConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("scrape.timeout"),
			UserAgent: viper.GetString("scrape.user_agent"),
		},
		UserID:       viper.GetString("scrape.user_id"),
		MaxRecords:   viper.GetInt("scrape.max_records"),
		PageSize:     viper.GetInt("scrape.page_size"),
		FetchRetries: viper.GetInt("scrape.fetch_retries"),
		StallLimit:   viper.GetInt("scrape.stall_limit"),
		BatchDelay:   viper.GetDuration("scrape.batch_delay"),
		Engine:       viper.GetString("scrape.engine"),
		Details:      viper.GetBool("scrape.details"),
	}

	flags := cmd.Flags()
	if flags.Changed("user") {
		cfg.UserID, _ = flags.GetString("user")
	}
	if flags.Changed("max-records") {
		cfg.MaxRecords, _ = flags.GetInt("max-records")
	}
	if flags.Changed("engine") {
		cfg.Engine, _ = flags.GetString("engine")
	}
	if flags.Changed("details") {
		cfg.Details, _ = flags.GetBool("details")
	}
	return cfg
}

// variantSetFromCmd merges the configured profile identity with flag
// overrides.
func variantSetFromCmd(cmd *cobra.Command) types.VariantSet {
	vs := types.VariantSet{
		CanonicalName: viper.GetString("profile.canonical_name"),
		Pseudonyms:    viper.GetStringSlice("profile.pseudonyms"),
	}

	flags := cmd.Flags()
	if flags.Changed("name") {
		vs.CanonicalName, _ = flags.GetString("name")
	}
	if flags.Changed("pseudonym") {
		vs.Pseudonyms, _ = flags.GetStringArray("pseudonym")
	}
	return vs
}

func browserConfigFromViper() types.BrowserConfig {
	return types.BrowserConfig{
		Headless:      viper.GetBool("browser.headless"),
		NavTimeout:    viper.GetDuration("browser.nav_timeout"),
		ShowMoreDelay: viper.GetDuration("browser.show_more_delay"),
	}
}

func reportConfigFromCmd(cmd *cobra.Command) types.ReportConfig {
	cfg := types.ReportConfig{
		Format:          types.OutputFormat(viper.GetString("report.format")),
		TrackedJournals: viper.GetStringSlice("report.tracked_journals"),
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		format, _ := flags.GetString("format")
		cfg.Format = types.OutputFormat(format)
	}
	if flags.Changed("journal") {
		cfg.TrackedJournals, _ = flags.GetStringArray("journal")
	}
	return cfg
}

func storeConfigFromViper() types.StoreConfig {
	return types.StoreConfig{ArchiveDir: viper.GetString("store.archive_dir")}
}

// newPageClient builds the page client selected by cfg.Engine. The
// returned closer is non-nil for clients that hold OS resources.
func newPageClient(cfg types.ScrapeConfig) (scrape.PageClient, func() error, error) {
	switch cfg.Engine {
	case engineBrowser:
		c := browser.New(cfg, browserConfigFromViper())
		return c, c.Close, nil
	case engineHTTP, "":
		var opts []webclient.Option
		if cookie := loadedSecrets[secrets.KeyScholarCookie]; cookie != "" {
			opts = append(opts, webclient.WithCookie(cookie))
		}
		if proxyURL := loadedSecrets[secrets.KeyProxyURL]; proxyURL != "" {
			u, err := url.Parse(proxyURL)
			if err != nil {
				return nil, nil, fmt.Errorf("config: bad proxy-url secret: %w", err)
			}
			opts = append(opts, webclient.WithHTTPClient(&http.Client{
				Timeout:   cfg.Timeout,
				Transport: &http.Transport{Proxy: http.ProxyURL(u)},
			}))
		}
		return webclient.New(cfg, opts...), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown engine %q (want %s or %s)", cfg.Engine, engineHTTP, engineBrowser)
	}
}
