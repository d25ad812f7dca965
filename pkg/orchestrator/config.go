package orchestrator

import "flowmanager/pkg/match"

// FlowsDictMaxSize is the default capacity of the in-flight record
// (spec §3, §6: FLOWS_DICT_MAX_SIZE = 10000).
const FlowsDictMaxSize = 10000

// Config holds the orchestrator's tunables (spec §6), composed into the
// server's root configuration.
type Config struct {
	// FlowsDictMaxSize bounds the in-flight FIFO record.
	FlowsDictMaxSize int `mapstructure:"flows_dict_max_size"`

	// EnableConsistencyCheck gates the consistency passes triggered by
	// flow_stats.received (spec §9's adopted open-question resolution:
	// event-driven, not periodic).
	EnableConsistencyCheck bool `mapstructure:"enable_consistency_check"`

	// CookieIgnoreRange and TableIDIgnoreRange are raw ignore-range
	// elements ("42" or "10-20") later parsed with match.ParseRanges.
	// A malformed list is ignored in its entirety with a logged
	// warning (spec §6).
	CookieIgnoreRange  []string `mapstructure:"consistency_cookie_ignored_range"`
	TableIDIgnoreRange []string `mapstructure:"consistency_table_id_ignored_range"`
}

// DefaultConfig returns the orchestrator's default configuration.
func DefaultConfig() Config {
	return Config{
		FlowsDictMaxSize:       FlowsDictMaxSize,
		EnableConsistencyCheck: false,
	}
}

// parsedIgnoreRanges resolves the configuration's raw ignore-range
// elements, returning empty sets (rather than failing construction) for
// a malformed list, per spec §6.
func (c Config) parsedIgnoreRanges(warn func(kind string, err error)) (cookie, table []match.Range) {
	cookie, err := match.ParseRanges(c.CookieIgnoreRange)
	if err != nil {
		warn("cookie", err)
		cookie = nil
	}
	table, err = match.ParseRanges(c.TableIDIgnoreRange)
	if err != nil {
		warn("table_id", err)
		table = nil
	}
	return cookie, table
}
