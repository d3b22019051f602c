package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"vtable"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// HTTPConfig tunes an HTTPSource.
type HTTPConfig struct {
	URL         string
	ItemsKey    string  // envelope key holding the records, "users" by default
	Limit       int     // total records wanted; 0 means all the API reports
	PageSize    int     // records per request
	Concurrency int     // parallel page requests after the first
	RateLimit   float64 // requests per second; 0 disables pacing
}

// HTTPSource pages through a limit/skip JSON API such as
// https://dummyjson.com/users. The first page is fetched alone to learn the
// total; the rest are fetched concurrently and reassembled in order.
type HTTPSource struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	log     *zap.Logger
}

// NewHTTPSource applies defaults to cfg. client may be nil.
func NewHTTPSource(cfg HTTPConfig, client *http.Client, logger *zap.Logger) *HTTPSource {
	if cfg.ItemsKey == "" {
		cfg.ItemsKey = "users"
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &HTTPSource{cfg: cfg, client: client, limiter: limiter, log: logger.Named("http")}
}

func (s *HTTPSource) Name() string { return s.cfg.URL }

type page struct {
	rows  []vtable.Row
	total int
}

// Load fetches up to Limit records.
func (s *HTTPSource) Load(ctx context.Context) ([]vtable.Row, error) {
	first, err := s.fetchPage(ctx, 0, s.pageLen(0, s.cfg.Limit))
	if err != nil {
		return nil, err
	}

	total := first.total
	if s.cfg.Limit > 0 && total > s.cfg.Limit {
		total = s.cfg.Limit
	}
	fetched := len(first.rows)
	if fetched == 0 || fetched >= total {
		return first.rows[:min(fetched, total)], nil
	}

	var skips []int
	for skip := fetched; skip < total; skip += s.cfg.PageSize {
		skips = append(skips, skip)
	}
	pages := make([][]vtable.Row, len(skips))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, skip := range skips {
		g.Go(func() error {
			p, err := s.fetchPage(gctx, skip, s.pageLen(skip, total))
			if err != nil {
				return err
			}
			pages[i] = p.rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := make([]vtable.Row, 0, total)
	rows = append(rows, first.rows...)
	for _, p := range pages {
		rows = append(rows, p...)
	}
	return rows, nil
}

func (s *HTTPSource) pageLen(skip, total int) int {
	if total <= 0 {
		return s.cfg.PageSize
	}
	return min(s.cfg.PageSize, total-skip)
}

func (s *HTTPSource) fetchPage(ctx context.Context, skip, limit int) (page, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return page{}, err
	}

	u, err := url.Parse(s.cfg.URL)
	if err != nil {
		return page{}, fmt.Errorf("bad source url: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(skip))
	u.RawQuery = q.Encode()

	reqID := uuid.NewString()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return page{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)

	resp, err := s.client.Do(req)
	if err != nil {
		return page{}, fmt.Errorf("fetch page skip=%d: %w", skip, err)
	}
	defer resp.Body.Close()

	s.log.Debug("page", zap.String("request_id", reqID), zap.Int("skip", skip),
		zap.Int("limit", limit), zap.Int("status", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return page{}, fmt.Errorf("fetch page skip=%d: unexpected status %s: %s", skip, resp.Status, body)
	}

	var doc any
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return page{}, fmt.Errorf("decode page skip=%d: %w", skip, err)
	}
	return s.decodePage(doc)
}

// decodePage accepts either an envelope {ItemsKey: [...], "total": N} or a
// bare array. Without a total the page is taken to be the whole collection.
func (s *HTTPSource) decodePage(doc any) (page, error) {
	var items []any
	var total int
	switch d := doc.(type) {
	case []any:
		items = d
		total = len(d)
	case map[string]any:
		arr, ok := d[s.cfg.ItemsKey].([]any)
		if !ok {
			return page{}, fmt.Errorf("response has no %q array", s.cfg.ItemsKey)
		}
		items = arr
		total = len(arr)
		if t, ok := d["total"].(float64); ok && int(t) > total {
			total = int(t)
		}
	default:
		return page{}, fmt.Errorf("unexpected response of type %T", doc)
	}
	rows, err := toRows(items)
	if err != nil {
		return page{}, err
	}
	return page{rows: rows, total: total}, nil
}
