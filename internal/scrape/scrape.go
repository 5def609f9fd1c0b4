// Package scrape fetches source content through content-type specific
// adapters. A failing adapter yields an empty string for its URL only; the
// batch never aborts because one source misbehaves.
package scrape

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Adapter extracts plain text from one URL.
type Adapter interface {
	Scrape(ctx context.Context, link string) (string, error)
}

// Source is the scraped content of one URL.
type Source struct {
	URL string
	Raw string
}

// Scraper dispatches URLs to adapters and runs them concurrently.
type Scraper struct {
	web     Adapter
	article Adapter
	arxiv   Adapter
	pdf     Adapter
	log     *zap.Logger
}

func NewScraper(userAgent string, log *zap.Logger) *Scraper {
	client := &http.Client{Timeout: 30 * time.Second}
	return &Scraper{
		web:     newWebAdapter(client, userAgent),
		article: newArticleAdapter(client, userAgent),
		arxiv:   newArxivAdapter(client),
		pdf:     newPDFAdapter(client, userAgent),
		log:     log,
	}
}

// Run scrapes every URL concurrently. The returned slice is index-aligned
// with urls; failed URLs hold an empty Raw.
func (s *Scraper) Run(ctx context.Context, urls []string) []Source {
	out := make([]Source, len(urls))
	g, ctx := errgroup.WithContext(ctx)
	for i, link := range urls {
		g.Go(func() error {
			out[i] = Source{URL: link}
			// Parser panics on malformed input count as a failed source,
			// not a failed batch.
			defer func() {
				if cause := recover(); cause != nil {
					s.log.Warn("scrape panicked", zap.String("url", link), zap.Any("cause", cause))
				}
			}()
			text, err := s.adapterFor(link).Scrape(ctx, link)
			if err != nil {
				s.log.Warn("scrape failed", zap.String("url", link), zap.Error(err))
				return nil
			}
			out[i].Raw = text
			return nil
		})
	}
	g.Wait()
	return out
}

// adapterFor picks the adapter by URL class: PDFs by extension, arXiv by
// host, article-style pages by path hint, generic HTML otherwise.
func (s *Scraper) adapterFor(link string) Adapter {
	u, err := url.Parse(link)
	if err != nil {
		return s.web
	}
	switch {
	case strings.HasSuffix(strings.ToLower(u.Path), ".pdf"):
		return s.pdf
	case strings.Contains(u.Host, "arxiv.org"):
		return s.arxiv
	case strings.Contains(u.Path, "/news/") || strings.Contains(u.Path, "/article"):
		return s.article
	default:
		return s.web
	}
}
