package ratelimit

import (
	"strings"
)

// unlimitedPaths are never rate limited.
var unlimitedPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Path matching supports prefix matching (e.g., "/proposals/" matches "/proposals/{id}/text"),
// optionally narrowed by a suffix (e.g., "/evaluations").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if unlimitedPaths[path] && method == "GET" {
		return &EndpointConfig{Path: path, Method: method}
	}

	// Try exact match first
	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	// Prefix matches with a suffix are more specific, so they go first
	for _, withSuffix := range []bool{true, false} {
		for i := range configs {
			config := &configs[i]
			if config.Method != method || !strings.HasSuffix(config.Path, "/") {
				continue
			}
			if (config.Suffix != "") != withSuffix {
				continue
			}
			if strings.HasPrefix(path, config.Path) && strings.HasSuffix(path, config.Suffix) {
				return config
			}
		}
	}

	// No match found
	return nil
}
