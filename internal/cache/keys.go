package cache

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// Namespace is the key prefix shared by every cached upstream response.
const Namespace = "cryptolens"

// TTLClass names a freshness policy. Callers pick the class; the store never infers it.
type TTLClass string

const (
	TTLReferenceList TTLClass = "reference-list"
	TTLChart         TTLClass = "chart"
	TTLGeneral       TTLClass = "general"
	TTLSentiment     TTLClass = "sentiment"
)

// TTLSet resolves TTL classes into durations.
type TTLSet struct {
	ReferenceList time.Duration
	Chart         time.Duration
	General       time.Duration
	Sentiment     time.Duration
}

// DefaultTTLSet returns the built-in freshness windows.
func DefaultTTLSet() TTLSet {
	return TTLSet{
		ReferenceList: 12 * time.Hour,
		Chart:         2 * time.Minute,
		General:       time.Minute,
		Sentiment:     10 * time.Minute,
	}
}

// Seconds carries configured TTLs in seconds. Zero selects the default,
// a negative value disables caching for that class.
type Seconds struct {
	ReferenceList int
	Chart         int
	General       int
	Sentiment     int
}

// NewTTLSet converts configured TTLs into durations.
func NewTTLSet(cfg Seconds) TTLSet {
	def := DefaultTTLSet()
	return TTLSet{
		ReferenceList: durationOrDefault(cfg.ReferenceList, def.ReferenceList),
		Chart:         durationOrDefault(cfg.Chart, def.Chart),
		General:       durationOrDefault(cfg.General, def.General),
		Sentiment:     durationOrDefault(cfg.Sentiment, def.Sentiment),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
// Unknown classes resolve to zero, which is never fresh.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLReferenceList:
		return t.ReferenceList
	case TTLChart:
		return t.Chart
	case TTLGeneral:
		return t.General
	case TTLSentiment:
		return t.Sentiment
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// RequestKey identifies an upstream GET by upstream name, path and query.
// Parameter order is irrelevant: keys are sorted, and so are repeated values.
func RequestKey(upstream, path string, params url.Values) string {
	base := formatKey(upstream, strings.Trim(strings.TrimSpace(path), "/"))
	query := CanonicalQuery(params)
	if query == "" {
		return base
	}
	return base + "?" + query
}

// CanonicalQuery encodes params deterministically.
func CanonicalQuery(params url.Values) string {
	if len(params) == 0 {
		return ""
	}
	clone := make(url.Values, len(params))
	for k, vs := range params {
		sorted := append([]string(nil), vs...)
		sort.Strings(sorted)
		clone[k] = sorted
	}
	return clone.Encode()
}
