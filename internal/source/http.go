package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ahead-health/dq-cli/internal/model"
)

// HTTPOptions configures the API source.
type HTTPOptions struct {
	Token      string
	Timeout    time.Duration
	MaxRetries int
	RatePerSec float64
}

// HTTPSource pulls raw observations from a warehouse web API, page by page.
// Requests are rate limited; national instances throttle aggressively during
// reporting deadline weeks.
type HTTPSource struct {
	baseURL string
	opts    HTTPOptions
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTP creates an HTTPSource against the given API base URL.
func NewHTTP(baseURL string, opts HTTPOptions) *HTTPSource {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RatePerSec == 0 {
		opts.RatePerSec = 5
	}
	return &HTTPSource{
		baseURL: baseURL,
		opts:    opts,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(rate.Limit(opts.RatePerSec), 1),
	}
}

// observationPage is one page of the API response.
type observationPage struct {
	Observations []apiObservation `json:"observations"`
	NextPage     *int             `json:"next_page"`
}

type apiObservation struct {
	UnitID        string    `json:"unit_id"`
	UnitName      string    `json:"unit_name"`
	IndicatorID   string    `json:"indicator_id"`
	IndicatorName string    `json:"indicator_name"`
	Period        string    `json:"period"`
	Value         *float64  `json:"value"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

// Fetch pages through the observations endpoint for the scope.
func (s *HTTPSource) Fetch(ctx context.Context, scope model.Scope) ([]model.RawRecord, error) {
	var records []model.RawRecord

	page := 1
	for {
		body, err := s.get(ctx, s.pageURL(scope, page))
		if err != nil {
			return nil, err
		}

		var resp observationPage
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, eris.Wrap(err, "source: decode observations page")
		}

		for _, o := range resp.Observations {
			rec := model.RawRecord{
				UnitID:        o.UnitID,
				UnitName:      o.UnitName,
				IndicatorID:   o.IndicatorID,
				IndicatorName: o.IndicatorName,
				Value:         o.Value,
				SubmittedAt:   o.SubmittedAt,
			}
			if p, perr := model.ParsePeriod(o.Period); perr == nil {
				rec.Period = p
			}
			if !rec.Period.IsZero() && !inRange(rec.Period, scope) {
				continue
			}
			records = append(records, rec)
		}

		if resp.NextPage == nil {
			break
		}
		page = *resp.NextPage
	}

	zap.L().Info("fetched raw observations",
		zap.String("driver", "http"),
		zap.String("base_url", s.baseURL),
		zap.Int("records", len(records)),
	)
	return records, nil
}

func (s *HTTPSource) pageURL(scope model.Scope, page int) string {
	q := url.Values{}
	q.Set("country", scope.CountryCode)
	q.Set("unit_level", strconv.Itoa(scope.UnitLevel))
	if scope.DateMin != nil {
		q.Set("date_min", scope.DateMin.String())
	}
	if scope.DateMax != nil {
		q.Set("date_max", scope.DateMax.String())
	}
	q.Set("page", strconv.Itoa(page))
	return fmt.Sprintf("%s/observations?%s", s.baseURL, q.Encode())
}

// get performs one rate-limited request with retry on 429 and 5xx.
func (s *HTTPSource) get(ctx context.Context, u string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "source: rate limit wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, eris.Wrap(err, "source: build request")
		}
		if s.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+s.opts.Token)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			lastErr = eris.Wrap(err, "source: request observations")
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return nil, eris.Wrap(readErr, "source: read response")
			}
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = eris.Errorf("source: observations returned %d", resp.StatusCode)
			zap.L().Warn("retrying observations request",
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
		default:
			return nil, eris.Errorf("source: observations returned %d", resp.StatusCode)
		}
	}
	return nil, lastErr
}
