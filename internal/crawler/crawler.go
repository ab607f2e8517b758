package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	apperrors "ansanalytics/internal/errors"
	"ansanalytics/internal/infrastructure"
)

// ErrListingUnavailable is returned when a listing page does not answer 200
var ErrListingUnavailable = errors.New("listing page unavailable")

// Config controls the traversal
type Config struct {
	BaseURL       string
	SectionSuffix string
	YearSuffix    string
	FileSuffix    string
	DownloadsDir  string
	Concurrency   int
	Timeout       time.Duration
}

// Result lists the files that were saved and the URLs that failed
type Result struct {
	Downloaded []string `json:"downloaded"`
	Failed     []string `json:"failed"`
}

// Crawler walks the listing and downloads archives
type Crawler struct {
	cfg     Config
	client  *http.Client
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// New creates a Crawler
func New(cfg Config, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Crawler {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = infrastructure.NoopPipelineMetrics()
	}
	return &Crawler{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.With(slog.String("component", "crawler")),
		metrics: metrics,
	}
}

// Run walks section and year pages and downloads every matching archive
func (c *Crawler) Run(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(c.cfg.DownloadsDir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create downloads directory", err)
	}

	files, err := c.collectFiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		c.logger.WarnContext(ctx, "no archives found in listing",
			slog.String("base_url", c.cfg.BaseURL),
			slog.String("section", c.cfg.SectionSuffix),
			slog.String("year", c.cfg.YearSuffix))
		return &Result{Downloaded: []string{}, Failed: []string{}}, nil
	}

	result := &Result{Downloaded: []string{}, Failed: []string{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for _, fileURL := range files {
		g.Go(func() error {
			dest, err := c.Download(gctx, fileURL)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				c.logger.ErrorContext(gctx, "archive download failed",
					slog.String("url", fileURL),
					slog.String("error", err.Error()))
				c.metrics.Add(gctx, c.metrics.DownloadFailures, 1)
				result.Failed = append(result.Failed, fileURL)
				return nil
			}
			c.metrics.Add(gctx, c.metrics.ArchivesDownloaded, 1)
			result.Downloaded = append(result.Downloaded, dest)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	sort.Strings(result.Downloaded)
	sort.Strings(result.Failed)

	c.logger.InfoContext(ctx, "crawl finished",
		slog.Int("downloaded", len(result.Downloaded)),
		slog.Int("failed", len(result.Failed)))
	return result, nil
}

// collectFiles follows section and year links and returns the archive URLs
// in discovery order, without duplicates.
func (c *Crawler) collectFiles(ctx context.Context) ([]string, error) {
	sections, err := c.linksWithSuffix(ctx, c.cfg.BaseURL, c.cfg.SectionSuffix)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var files []string
	for _, section := range sections {
		years, err := c.linksWithSuffix(ctx, section, c.cfg.YearSuffix)
		if err != nil {
			return nil, err
		}
		for _, year := range years {
			links, err := c.linksWithSuffix(ctx, year, c.cfg.FileSuffix)
			if err != nil {
				return nil, err
			}
			for _, link := range links {
				if !seen[link] {
					seen[link] = true
					files = append(files, link)
				}
			}
		}
	}
	return files, nil
}

func (c *Crawler) linksWithSuffix(ctx context.Context, pageURL, suffix string) ([]string, error) {
	links, err := c.ListLinks(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	matched := make([]string, 0)
	for _, link := range links {
		if strings.HasSuffix(link.Href, suffix) {
			matched = append(matched, link.URL)
		}
	}

	c.logger.DebugContext(ctx, "listing parsed",
		slog.String("url", pageURL),
		slog.String("suffix", suffix),
		slog.Int("links", len(links)),
		slog.Int("matched", len(matched)))
	return matched, nil
}

// ListLinks fetches a listing page and returns its anchors
func (c *Crawler) ListLinks(ctx context.Context, pageURL string) ([]Link, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid listing URL", err)
	}

	resp, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, apperrors.NewNetworkError("listing request failed", err).WithContext("url", pageURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("listing returned status %d", resp.StatusCode),
			ErrListingUnavailable,
		).WithContext("url", pageURL)
	}

	links, err := ExtractLinks(base, resp.Body)
	if err != nil {
		return nil, apperrors.NewParsingError("listing parse failed", err).WithContext("url", pageURL)
	}
	return links, nil
}

// Download saves one archive into the downloads directory and returns its
// path. The body is streamed to a temporary file that is renamed on success.
func (c *Crawler) Download(ctx context.Context, fileURL string) (string, error) {
	name, err := FileName(fileURL)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(c.cfg.DownloadsDir, name)

	c.logger.InfoContext(ctx, "downloading archive", slog.String("url", fileURL), slog.String("dest", dest))

	resp, err := c.get(ctx, fileURL)
	if err != nil {
		return "", apperrors.NewNetworkError("download request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewNetworkError(fmt.Sprintf("download returned status %d", resp.StatusCode), nil)
	}

	tmp, err := os.CreateTemp(c.cfg.DownloadsDir, "."+name+".*.part")
	if err != nil {
		return "", apperrors.NewStorageError("failed to create temporary file", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", apperrors.NewNetworkError("download interrupted", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", apperrors.NewStorageError("failed to close temporary file", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", apperrors.NewStorageError("failed to move archive into place", err)
	}

	return dest, nil
}

func (c *Crawler) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "ans-analytics-crawler")
	return c.client.Do(req)
}

// FileName returns the last path segment of fileURL
func FileName(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", apperrors.NewParsingError("invalid archive URL", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", apperrors.NewAppValidationError(fmt.Sprintf("archive URL %q has no file name", fileURL))
	}
	return name, nil
}

// Link is an anchor found on a listing page
type Link struct {
	// Href is the attribute value as written
	Href string
	// URL is Href resolved against the page URL
	URL string
}

// ExtractLinks returns every <a href> in the document, resolved against base
func ExtractLinks(base *url.URL, r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var links []Link
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || attr.Val == "" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				links = append(links, Link{Href: strings.TrimSpace(attr.Val), URL: base.ResolveReference(ref).String()})
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return links, nil
}
