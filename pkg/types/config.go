// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make network
// requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with every request. It
	// embeds the contact address (e.g. "paper-finder/0.1
	// (mailto:user@example.com)") per the polite-usage policies of the
	// upstream APIs.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the aggregation pipeline.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the overall result cap for a query (default 100).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// ContactEmail identifies the caller to the upstream APIs. It is
	// sent as the OpenAlex mailto parameter and as the email parameter
	// on every PubMed E-utilities request.
	ContactEmail string `json:"contact_email" yaml:"contact_email"`

	// NCBIAPIKey is an optional E-utilities API key for higher rate
	// limits.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty"`
}

// CacheConfig holds settings for the query-result cache.
type CacheConfig struct {
	// Dir is the directory holding the cache database.
	Dir string `json:"dir" yaml:"dir"`

	// TTL is how long a cached result set stays valid (default 24h).
	TTL time.Duration `json:"ttl" yaml:"ttl"`

	// Disabled turns the cache off entirely.
	Disabled bool `json:"disabled" yaml:"disabled"`
}
