// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataaccess wraps every call to the analytics backend. It owns the
// per-call timeout and the fallback substitution policy: a call never returns
// a Go error or panics; it resolves to an Outcome that is live (ok),
// substituted from the fallback catalog (fallback), or unavailable (error).
package dataaccess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pdiddy/agroscope/internal/httputil"
	"github.com/pdiddy/agroscope/pkg/types"
)

// Resource is a logical backend resource name. Paths are configured separately.
type Resource string

const (
	ResourceUnits            Resource = types.ResourceUnits
	ResourceSimilarity       Resource = types.ResourceSimilarity
	ResourceDetail           Resource = types.ResourceDetail
	ResourceStatistics       Resource = types.ResourceStatistics
	ResourceCrops            Resource = types.ResourceCrops
	ResourceCropProducers    Resource = types.ResourceCropProducers
	ResourceLowestProducers  Resource = types.ResourceLowestProducers
	ResourceAnnualProduction Resource = types.ResourceAnnualProduction
	ResourceDrought          Resource = types.ResourceDrought
	ResourceTopProducers     Resource = types.ResourceTopProducers
)

// Params are request parameters. ParamID fills the "{id}" route segment.
type Params map[string]string

// ParamID is the parameter holding a unit id or row key.
const ParamID = "id"

// maxBodyBytes guards against runaway responses.
const maxBodyBytes = 8 << 20

var (
	ErrTimeout   = errors.New("request timed out")
	ErrStatus    = errors.New("unexpected HTTP status")
	ErrMalformed = errors.New("malformed response body")
	ErrNoRoute   = errors.New("no route for resource")
	ErrMissingID = errors.New("missing request id")
)

// Substitutes supplies fallback payloads. *fallback.Catalog satisfies it.
type Substitutes interface {
	Lookup(resource string, params map[string]string) (json.RawMessage, bool)
}

// Client fetches analytics data with timeout and fallback policy.
type Client struct {
	cfg         types.ClientConfig
	http        *http.Client
	substitutes Substitutes
	observer    Observer
	now         func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithObserver installs the diagnostic observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New builds a client. Zero config fields take development defaults. A nil
// substitutes value disables fallback: failures become KindError.
func New(cfg types.ClientConfig, substitutes Substitutes, opts ...Option) *Client {
	c := &Client{
		cfg:         cfg.WithDefaults(),
		http:        &http.Client{},
		substitutes: substitutes,
		now:         time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Client) Config() types.ClientConfig { return c.cfg }

// Fetch performs a GET for resource and returns the raw JSON body.
func (c *Client) Fetch(ctx context.Context, resource Resource, params Params) Outcome[json.RawMessage] {
	return fetch(ctx, c, resource, params, func(body json.RawMessage) (json.RawMessage, error) {
		return body, nil
	})
}

// Resources returns every routed resource, sorted by name.
func (c *Client) Resources() []Resource {
	var out []Resource
	for _, name := range c.cfg.Routes.Names() {
		out = append(out, Resource(name))
	}
	return out
}

// NeedsID reports whether the route for resource has an "{id}" segment.
func (c *Client) NeedsID(resource Resource) bool {
	return strings.Contains(c.cfg.Routes[string(resource)], "{id}")
}

// FetchUnits loads the addressable unit catalog.
func (c *Client) FetchUnits(ctx context.Context) Outcome[[]types.AddressableUnit] {
	return fetch(ctx, c, ResourceUnits, nil, listDecoder(types.ValidateUnits))
}

// FetchSimilarity loads the similarity result for unitID.
func (c *Client) FetchSimilarity(ctx context.Context, unitID string) Outcome[types.SimilarityResult] {
	return fetch(ctx, c, ResourceSimilarity, Params{ParamID: unitID}, func(body json.RawMessage) (types.SimilarityResult, error) {
		var r types.SimilarityResult
		if err := decodeObject(body, &r, "municipios_mas_similares", "perfil_municipio"); err != nil {
			return types.SimilarityResult{}, err
		}
		r.QueriedUnitID = unitID
		return r, r.Validate()
	})
}

// FetchDetail loads the comparison detail for the ranked match rowKey.
func (c *Client) FetchDetail(ctx context.Context, rowKey string) Outcome[types.ComparisonDetail] {
	return fetch(ctx, c, ResourceDetail, Params{ParamID: rowKey}, func(body json.RawMessage) (types.ComparisonDetail, error) {
		var d types.ComparisonDetail
		if err := decodeObject(body, &d, "estado_base", "estado_similar"); err != nil {
			return types.ComparisonDetail{}, err
		}
		return d, d.Validate()
	})
}

// FetchStatistics loads the national headline figures.
func (c *Client) FetchStatistics(ctx context.Context) Outcome[types.Statistics] {
	return fetch(ctx, c, ResourceStatistics, nil, func(body json.RawMessage) (types.Statistics, error) {
		var st types.Statistics
		if err := decodeObject(body, &st, "total_produccion", "cultivos_analizados", "anios"); err != nil {
			return types.Statistics{}, err
		}
		return st, st.Validate()
	})
}

// FetchCrops loads the crop catalog.
func (c *Client) FetchCrops(ctx context.Context) Outcome[[]types.Crop] {
	return fetch(ctx, c, ResourceCrops, nil, listDecoder(types.ValidateCrops))
}

// FetchCropProducers loads the municipalities producing cropID.
func (c *Client) FetchCropProducers(ctx context.Context, cropID string) Outcome[[]types.CropProducer] {
	return fetch(ctx, c, ResourceCropProducers, Params{ParamID: cropID}, listDecoder(types.ValidateProducers))
}

// FetchLowestProducers loads the municipalities with the lowest output of cropID.
func (c *Client) FetchLowestProducers(ctx context.Context, cropID string) Outcome[[]types.CropProducer] {
	return fetch(ctx, c, ResourceLowestProducers, Params{ParamID: cropID}, listDecoder(types.ValidateProducers))
}

// FetchAnnualProduction loads the yearly production series for unitID.
func (c *Client) FetchAnnualProduction(ctx context.Context, unitID string) Outcome[[]types.AnnualProduction] {
	return fetch(ctx, c, ResourceAnnualProduction, Params{ParamID: unitID}, listDecoder(types.ValidateAnnualProduction))
}

// FetchDrought loads the drought history for unitID.
func (c *Client) FetchDrought(ctx context.Context, unitID string) Outcome[[]types.DroughtLevel] {
	return fetch(ctx, c, ResourceDrought, Params{ParamID: unitID}, listDecoder(types.ValidateDrought))
}

// FetchTopProducers loads the national top-producers ranking.
func (c *Client) FetchTopProducers(ctx context.Context) Outcome[[]types.TopProducer] {
	return fetch(ctx, c, ResourceTopProducers, nil, listDecoder(types.ValidateTopProducers))
}

// listDecoder decodes a JSON array and validates it. A null body is
// rejected; an empty array is valid.
func listDecoder[T any](validate func([]T) error) func(json.RawMessage) ([]T, error) {
	return func(body json.RawMessage) ([]T, error) {
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, err
		}
		if items == nil {
			return nil, fmt.Errorf("%w: expected a list, got null", types.ErrInvalidPayload)
		}
		return items, validate(items)
	}
}

// decodeObject decodes body into v after checking that it is a JSON object
// carrying every required key with a non-null value.
func decodeObject(body json.RawMessage, v any, required ...string) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("%w: expected an object, got null", types.ErrInvalidPayload)
	}
	for _, k := range required {
		if raw, ok := fields[k]; !ok || string(raw) == "null" {
			return fmt.Errorf("%w: missing %s", types.ErrInvalidPayload, k)
		}
	}
	return json.Unmarshal(body, v)
}

// fetch is the single policy path: live call, decode and validate, then
// substitute on any failure, then emit one diagnostic. A resource with no
// configured route counts as a failed call; a missing id is a caller error
// and never falls back.
func fetch[T any](ctx context.Context, c *Client, resource Resource, params Params, decode func(json.RawMessage) (T, error)) (out Outcome[T]) {
	start := c.now()
	d := Diagnostic{
		RequestID: ulid.Make().String(),
		Resource:  resource,
		Params:    params,
		At:        start,
	}
	defer func() {
		if r := recover(); r != nil {
			out = Failed[T](fmt.Sprintf("%s: internal failure: %v", resource, r))
		}
		d.Kind = out.Kind
		d.Cause = out.Reason
		d.Elapsed = c.now().Sub(start)
		safeObserve(c.observer, d)
	}()

	body, status, err := c.get(ctx, resource, params)
	d.Status = status
	if errors.Is(err, ErrMissingID) {
		return Failed[T](err.Error())
	}
	if err == nil {
		v, decodeErr := decode(body)
		if decodeErr == nil {
			return OK(v)
		}
		err = fmt.Errorf("%w: %v", ErrMalformed, decodeErr)
	}
	cause := fmt.Sprintf("%s: %v", resource, err)

	raw, ok := c.lookup(resource, params)
	if !ok {
		return Failed[T](cause + " (no fallback available)")
	}
	v, decodeErr := decode(raw)
	if decodeErr != nil {
		return Failed[T](fmt.Sprintf("%s; fallback for %s is invalid: %v", cause, resource, decodeErr))
	}
	return Fallback(v, cause)
}

func (c *Client) lookup(resource Resource, params Params) (json.RawMessage, bool) {
	if c.substitutes == nil {
		return nil, false
	}
	return c.substitutes.Lookup(string(resource), params)
}

// get performs the HTTP call under the configured timeout and returns the
// body only when the status is 2xx and the body is well-formed JSON.
func (c *Client) get(ctx context.Context, resource Resource, params Params) (json.RawMessage, int, error) {
	path, err := c.resolve(resource, params)
	if err != nil {
		return nil, 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, 0, c.classify(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, resp.StatusCode, fmt.Errorf("%w: HTTP %d", ErrStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, c.classify(ctx, fmt.Errorf("reading body: %w", err))
	}
	if !json.Valid(body) {
		return nil, resp.StatusCode, fmt.Errorf("%w: not JSON", ErrMalformed)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrTimeout, c.cfg.Timeout)
	}
	return err
}

// resolve expands the route template for resource.
func (c *Client) resolve(resource Resource, params Params) (string, error) {
	tmpl, ok := c.cfg.Routes[string(resource)]
	if !ok || tmpl == "" {
		return "", fmt.Errorf("%w: %q", ErrNoRoute, resource)
	}
	if !strings.Contains(tmpl, "{id}") {
		return tmpl, nil
	}
	id := params[ParamID]
	if id == "" {
		return "", fmt.Errorf("%w: %s requires an id", ErrMissingID, resource)
	}
	return strings.ReplaceAll(tmpl, "{id}", url.PathEscape(id)), nil
}
