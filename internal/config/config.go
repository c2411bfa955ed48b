package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Supported HTTP methods for a run.
var supportedMethods = map[string]struct{}{
	"GET":    {},
	"POST":   {},
	"PUT":    {},
	"PATCH":  {},
	"DELETE": {},
}

// Defaults applied to a RunSpec when fields are left unset.
const (
	DefaultMethod         = "GET"
	DefaultTotalRequests  = 100
	DefaultMaxWorkers     = 10
	DefaultTimeoutSeconds = 30.0
)

// RunSpec describes one load-generation run. It is immutable once a run
// starts; each run receives its own copy.
type RunSpec struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	TotalRequests  int               `json:"total_requests" yaml:"total_requests"`
	MaxWorkers     int               `json:"max_workers" yaml:"max_workers"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	Body           interface{}       `json:"body" yaml:"body"`
	Tokens         []string          `json:"tokens" yaml:"tokens"`
	AuthScheme     string            `json:"auth_scheme" yaml:"auth_scheme"`
	Timeout        float64           `json:"timeout" yaml:"timeout"`
	IncludeResults bool              `json:"include_results" yaml:"include_results"`
}

// ApplyDefaults fills unset fields with their documented defaults. Zero
// values count as unset, matching the permissive API contract where omitted
// or empty fields fall back to defaults.
func (s *RunSpec) ApplyDefaults() {
	s.Method = strings.ToUpper(strings.TrimSpace(s.Method))
	if s.Method == "" {
		s.Method = DefaultMethod
	}
	s.URL = strings.TrimSpace(s.URL)
	if s.TotalRequests == 0 {
		s.TotalRequests = DefaultTotalRequests
	}
	if s.MaxWorkers == 0 {
		s.MaxWorkers = DefaultMaxWorkers
	}
	if s.Timeout == 0 {
		s.Timeout = DefaultTimeoutSeconds
	}
	if s.Headers == nil {
		s.Headers = map[string]string{}
	}
}

// TimeoutDuration converts the per-request timeout from seconds.
func (s RunSpec) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout * float64(time.Second))
}

// ValidationError aggregates all spec problems found during validation so a
// caller sees every issue at once.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

// Issues returns a copy of the individual validation problems.
func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks the spec before any request is dispatched. A failed
// validation rejects the whole run synchronously.
func (s RunSpec) Validate() error {
	var issues []string

	if strings.TrimSpace(s.URL) == "" {
		issues = append(issues, "url is required")
	} else if !validTargetURL(s.URL) {
		issues = append(issues, fmt.Sprintf("url %q must be an absolute http or https URL", s.URL))
	}

	if _, ok := supportedMethods[strings.ToUpper(s.Method)]; !ok {
		issues = append(issues, fmt.Sprintf("unsupported method %q", s.Method))
	}

	if s.TotalRequests < 1 {
		issues = append(issues, fmt.Sprintf("total_requests must be >= 1, got %d", s.TotalRequests))
	}
	if s.MaxWorkers < 1 {
		issues = append(issues, fmt.Sprintf("max_workers must be >= 1, got %d", s.MaxWorkers))
	}
	if s.Timeout <= 0 {
		issues = append(issues, fmt.Sprintf("timeout must be positive, got %g", s.Timeout))
	}

	if len(s.Tokens) > 0 {
		scheme := strings.ToLower(strings.TrimSpace(s.AuthScheme))
		if scheme != "bearer" && scheme != "basic" {
			issues = append(issues, fmt.Sprintf("auth_scheme %q is not supported (expected bearer or basic)", s.AuthScheme))
		}
	}

	for key := range s.Headers {
		if strings.TrimSpace(key) == "" || strings.ContainsAny(key, "\r\n") {
			issues = append(issues, fmt.Sprintf("invalid header key %q", key))
		}
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validTargetURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// ServerConfig holds process-level settings for the API server.
type ServerConfig struct {
	Host         string
	Port         int
	Debug        bool
	RunRateLimit float64 // max run starts per second accepted by the API (0 = unlimited)
}

// Addr returns the listen address in host:port form.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
