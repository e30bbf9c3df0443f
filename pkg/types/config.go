// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"sort"
	"strings"
	"time"
)

// Development defaults. The CLI overrides them from flags, env, or config file.
const (
	DefaultBaseURL    = "http://localhost:5000/api"
	DefaultTimeout    = 4 * time.Second
	DefaultUserAgent  = "agroscope/0.1"
	DefaultMaxRetries = 2
	DefaultHistoryDir = ".agroscope"
	DefaultLogLevel   = "info"
)

// Logical resource names. They key RouteConfig and the fallback catalog.
const (
	ResourceUnits            = "units"
	ResourceSimilarity       = "similar-result"
	ResourceDetail           = "comparison-detail"
	ResourceStatistics       = "statistics"
	ResourceCrops            = "crops"
	ResourceCropProducers    = "crop-producers"
	ResourceLowestProducers  = "crop-lowest-producers"
	ResourceAnnualProduction = "annual-production"
	ResourceDrought          = "drought-history"
	ResourceTopProducers     = "top-producers"
)

// RouteConfig maps logical resource names to path templates under the base
// URL. The literal "{id}" is replaced with the escaped request id. A
// resource without a route is served from fallback data only.
type RouteConfig map[string]string

// DefaultRoutes returns the paths served by the reference backend.
func DefaultRoutes() RouteConfig {
	return RouteConfig{
		ResourceUnits:            "/municipios",
		ResourceSimilarity:       "/similar-municipios/{id}",
		ResourceDetail:           "/detalles-comparacion/{id}",
		ResourceStatistics:       "/estadisticas",
		ResourceCrops:            "/cultivos",
		ResourceCropProducers:    "/cultivos/{id}/municipios",
		ResourceLowestProducers:  "/cultivos/{id}/menor_produccion",
		ResourceAnnualProduction: "/municipio/{id}/produccion_anual",
		ResourceDrought:          "/municipio/{id}/sequia",
		ResourceTopProducers:     "/top10_productores",
	}
}

// Names returns the routed resource names, sorted.
func (r RouteConfig) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClientConfig holds the data-access client settings.
type ClientConfig struct {
	// BaseURL is the single address all resources are served under.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Timeout bounds each call, retries included.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries caps retries on HTTP 429. Negative disables retrying.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Token is an optional bearer token, loaded from the secrets directory.
	Token string `json:"-" yaml:"-"`

	Routes RouteConfig `json:"routes" yaml:"routes"`
}

// DefaultClientConfig returns the development configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		UserAgent:  DefaultUserAgent,
		MaxRetries: DefaultMaxRetries,
		Routes:     DefaultRoutes(),
	}
}

// WithDefaults fills zero-valued fields from DefaultClientConfig. Routes are
// merged: configured paths replace defaults, extra resources are kept, and
// the result never aliases c.Routes.
func (c ClientConfig) WithDefaults() ClientConfig {
	def := DefaultClientConfig()
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = def.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	routes := make(RouteConfig, len(def.Routes)+len(c.Routes))
	for name, path := range def.Routes {
		routes[name] = path
	}
	for name, path := range c.Routes {
		if path != "" {
			routes[name] = path
		}
	}
	c.Routes = routes
	return c
}

// FallbackConfig selects the substitute dataset file. Empty uses the embedded catalog.
type FallbackConfig struct {
	File string `json:"file" yaml:"file"`
}

// HistoryConfig controls the local SQLite history store.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Dir     string `json:"dir" yaml:"dir"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `json:"level" yaml:"level"`
}

// AppConfig groups every section read by the CLI.
type AppConfig struct {
	API      ClientConfig   `json:"api" yaml:"api"`
	Fallback FallbackConfig `json:"fallback" yaml:"fallback"`
	History  HistoryConfig  `json:"history" yaml:"history"`
	Log      LogConfig      `json:"log" yaml:"log"`
}
