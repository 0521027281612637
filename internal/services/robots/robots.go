package robots

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
)

// maxRobotsSize caps robots.txt bodies at 512KB
const maxRobotsSize = 512 * 1024

// Policy fetches and caches robots.txt per host. An unreachable, missing
// or unparseable robots.txt allows everything: the crawl is scoped by the
// scope filter either way.
type Policy struct {
	mu     sync.Mutex
	hosts  map[string]*hostRules
	client *http.Client
	agent  string
	logger arbor.ILogger
}

type hostRules struct {
	allow      []string
	disallow   []string
	crawlDelay time.Duration
}

// New creates a robots policy for the given user agent token
func New(userAgent string, timeout time.Duration, logger arbor.ILogger) interfaces.RobotsPolicy {
	return &Policy{
		hosts:  make(map[string]*hostRules),
		client: &http.Client{Timeout: timeout},
		agent:  agentToken(userAgent),
		logger: logger,
	}
}

// Allowed implements interfaces.RobotsPolicy
func (p *Policy) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	rules := p.rulesFor(ctx, u)
	if rules == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	// Longest match wins; allow beats disallow on equal length
	allowLen := longestPrefix(rules.allow, path)
	disallowLen := longestPrefix(rules.disallow, path)
	return allowLen >= disallowLen
}

// CrawlDelay implements interfaces.RobotsPolicy
func (p *Policy) CrawlDelay(ctx context.Context, rawURL string) time.Duration {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0
	}
	rules := p.rulesFor(ctx, u)
	if rules == nil {
		return 0
	}
	return rules.crawlDelay
}

// rulesFor returns the cached rules for a host, fetching once
func (p *Policy) rulesFor(ctx context.Context, u *url.URL) *hostRules {
	key := u.Scheme + "://" + u.Host

	p.mu.Lock()
	defer p.mu.Unlock()

	if rules, ok := p.hosts[key]; ok {
		return rules
	}

	rules := p.fetch(ctx, key+"/robots.txt")
	p.hosts[key] = rules
	return rules
}

// fetch retrieves and parses robots.txt; nil means "allow everything"
func (p *Policy) fetch(ctx context.Context, robotsURL string) *hostRules {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug().Str("url", robotsURL).Err(err).Msg("robots.txt unreachable, allowing all")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Debug().Str("url", robotsURL).Int("status", resp.StatusCode).Msg("No robots.txt, allowing all")
		return nil
	}

	rules := parse(io.LimitReader(resp.Body, maxRobotsSize), p.agent)
	p.logger.Debug().
		Str("url", robotsURL).
		Int("disallow", len(rules.disallow)).
		Dur("crawl_delay", rules.crawlDelay).
		Msg("robots.txt loaded")
	return rules
}

// parse extracts the directive group that applies to agent, falling back
// to the wildcard group
func parse(r io.Reader, agent string) *hostRules {
	wildcard := &hostRules{}
	specific := &hostRules{}
	matchedSpecific := false

	var current *hostRules
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			token := strings.ToLower(value)
			switch {
			case token == "*":
				current = wildcard
			case agent != "" && strings.Contains(strings.ToLower(agent), token):
				current = specific
				matchedSpecific = true
			default:
				current = nil
			}
		case "allow":
			if current != nil && value != "" {
				current.allow = append(current.allow, value)
			}
		case "disallow":
			if current != nil && value != "" {
				current.disallow = append(current.disallow, value)
			}
		case "crawl-delay":
			if current != nil {
				if secs, err := strconv.ParseFloat(value, 64); err == nil && secs > 0 {
					current.crawlDelay = time.Duration(secs * float64(time.Second))
				}
			}
		}
	}

	if matchedSpecific {
		return specific
	}
	return wildcard
}

// longestPrefix returns the length of the longest rule prefixing path,
// -1 when none match
func longestPrefix(rules []string, path string) int {
	best := -1
	for _, rule := range rules {
		if strings.HasPrefix(path, rule) && len(rule) > best {
			best = len(rule)
		}
	}
	return best
}

// agentToken reduces a full user-agent string to its product token
func agentToken(userAgent string) string {
	if i := strings.IndexByte(userAgent, '/'); i > 0 {
		return userAgent[:i]
	}
	return userAgent
}
