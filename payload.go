package goCheckin

import (
	"regexp"
	"strconv"
	"strings"
)

// payloadMatcher extracts the ticket identifier from a decoded check-in URL.
type payloadMatcher struct {
	re *regexp.Regexp
}

func newPayloadMatcher(cfg ScanConfig) (*payloadMatcher, error) {
	pattern := cfg.Pattern
	if pattern == "" {
		hosts := make([]string, 0, len(cfg.Hosts))
		for _, h := range cfg.Hosts {
			hosts = append(hosts, regexp.QuoteMeta(strings.ToLower(h)))
		}
		pattern = `^https://(?i:` + strings.Join(hosts, "|") + `)` +
			regexp.QuoteMeta(cfg.PathPrefix) + `([0-9]+)$`
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &payloadMatcher{re: re}, nil
}

// Match returns the positive ticket identifier carried by raw, or ok=false when raw is
// not a recognizable check-in code.
func (m *payloadMatcher) Match(raw string) (uint64, bool) {
	sub := m.re.FindStringSubmatch(strings.TrimSpace(raw))
	if len(sub) != 2 {
		return 0, false
	}
	id, err := strconv.ParseUint(sub[1], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
