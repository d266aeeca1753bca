package vaxta

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BeliaevAndrey/vibeBot/internal/dictionary"

	"go.uber.org/zap"
)

const (
	apiURL        = "https://platform.vaxtarekrut.ru/api"
	placesPath    = "/t_places"
	offeringsPath = "/t_job_offerings"
	userAgent     = "BeliaevAndrey/vibeBot"
	// Max value for pageSize accepted by the platform.
	defaultPageSize = 120
)

var ErrNoAPIKey = errors.New("vacancy api key is not configured")

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
	PageSize   int
}

func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		token:  strings.TrimSpace(token),
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger:    logger,
		UserAgent: userAgent,
		PageSize:  defaultPageSize,
	}
}

// Places returns all regions known to the platform.
func (c *Client) Places(ctx context.Context) ([]dictionary.Place, error) {
	var places []dictionary.Place

	resp, err := c.list(ctx, placesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list places: %w", err)
	}

	if err := decode(resp.Data, &places); err != nil {
		return nil, fmt.Errorf("decode places: %w", err)
	}

	c.logger.Debug("got places", zap.Int("count", len(places)), zap.Int("total", resp.Meta.TotalCount))

	return places, nil
}

// Offerings lists job offerings matching filter. A nil filter lists everything.
func (c *Client) Offerings(ctx context.Context, filter *Filter) (*Offerings, error) {
	if filter == nil {
		return c.offerings(ctx, "")
	}

	compact, err := filter.Compact()
	if err != nil {
		return nil, err
	}
	return c.offerings(ctx, compact)
}

// OfferingsByQuery lists job offerings with a filter already in the platform's
// query format. Empty raw lists everything.
func (c *Client) OfferingsByQuery(ctx context.Context, raw string) (*Offerings, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return c.offerings(ctx, "")
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(raw)); err != nil {
		return nil, fmt.Errorf("invalid filter json: %w", err)
	}
	return c.offerings(ctx, buf.String())
}

func (c *Client) offerings(ctx context.Context, filter string) (*Offerings, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}

	resp, err := c.list(ctx, offeringsPath, q)
	if err != nil {
		return nil, fmt.Errorf("list offerings: %w", err)
	}

	var items []*RawOffering
	if err := decode(resp.Data, &items); err != nil {
		return nil, fmt.Errorf("decode offerings: %w", err)
	}

	total := resp.Meta.TotalCount
	if total < len(items) {
		total = len(items)
	}

	c.logger.Debug("got offerings", zap.Int("count", len(items)), zap.Int("total", total))

	return &Offerings{Items: items, Total: total}, nil
}

func (c *Client) list(ctx context.Context, path string, q url.Values) (*listResponse, error) {
	if c.token == "" {
		return nil, ErrNoAPIKey
	}

	if q == nil {
		q = url.Values{}
	}

	pageSize := c.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	q.Set("pageSize", strconv.Itoa(pageSize))

	var response listResponse
	endpoint := strings.TrimRight(c.APIURL, "/") + path
	if err := c.getJSON(ctx, endpoint, q, &response); err != nil {
		return nil, err
	}

	return &response, nil
}
