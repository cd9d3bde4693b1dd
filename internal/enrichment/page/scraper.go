// Package page reads OpenGraph metadata from web pages.
package page

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"github.com/baing/baing/internal/config"
	"github.com/baing/baing/internal/media"
)

const maxBodyBytes = 2 << 20

var (
	ErrInvalidURL  = errors.New("invalid page URL")
	ErrFetchFailed = errors.New("page fetch failed")
	ErrNoMetadata  = errors.New("page has no usable metadata")
)

// Scraper fetches pages and extracts their OpenGraph tags.
type Scraper struct {
	httpClient     *http.Client
	userAgent      string
	youtubeBaseURL string
	logger         zerolog.Logger
}

func NewScraper(cfg config.ScraperConfig, logger zerolog.Logger) *Scraper {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := cfg.YouTubeBaseURL
	if base == "" {
		base = "https://www.youtube.com"
	}
	return &Scraper{
		httpClient:     &http.Client{Timeout: timeout},
		userAgent:      cfg.UserAgent,
		youtubeBaseURL: strings.TrimRight(base, "/"),
		logger:         logger.With().Str("component", "page-scraper").Logger(),
	}
}

// ChannelURL returns the page of a YouTube channel.
func (s *Scraper) ChannelURL(channelID string) string {
	return s.youtubeBaseURL + "/channel/" + url.PathEscape(channelID)
}

// Fetch downloads rawURL and returns its metadata.
func (s *Scraper) Fetch(ctx context.Context, rawURL string) (*media.PageDetails, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u.Host, err)
	}

	details := Extract(doc, resp.Request.URL)
	if details.Title == "" && details.Description == "" && details.ImageURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoMetadata, u.String())
	}

	s.logger.Debug().Str("url", u.String()).Str("title", details.Title).Msg("Scraped page metadata")
	return details, nil
}

// Extract reads OpenGraph tags from doc, falling back to the title element
// and the description meta tag. Relative image URLs resolve against base.
func Extract(doc *goquery.Document, base *url.URL) *media.PageDetails {
	d := &media.PageDetails{
		URL:         metaContent(doc, "og:url"),
		Title:       metaContent(doc, "og:title"),
		Description: metaContent(doc, "og:description"),
		ImageURL:    metaContent(doc, "og:image"),
		SiteName:    metaContent(doc, "og:site_name"),
	}

	if d.Title == "" {
		d.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if d.Description == "" {
		d.Description = metaContent(doc, "description")
	}
	if base != nil {
		if d.URL == "" {
			d.URL = base.String()
		}
		if d.ImageURL != "" {
			if ref, err := url.Parse(d.ImageURL); err == nil {
				d.ImageURL = base.ResolveReference(ref).String()
			}
		}
	}
	return d
}

func metaContent(doc *goquery.Document, key string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)).First()
	val, _ := sel.Attr("content")
	return strings.TrimSpace(val)
}
