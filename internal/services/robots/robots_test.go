package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ternarybob/colligo/internal/common"
)

func serveRobots(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newPolicy() *Policy {
	return New("colligo/1.0", 2*time.Second, common.GetLogger()).(*Policy)
}

func TestAllowedLongestMatchWins(t *testing.T) {
	server := serveRobots(t, strings.Join([]string{
		"User-agent: *",
		"Disallow: /private/",
		"Allow: /private/public/",
	}, "\n"))

	p := newPolicy()
	ctx := context.Background()

	assert.True(t, p.Allowed(ctx, server.URL+"/anything"))
	assert.False(t, p.Allowed(ctx, server.URL+"/private/data"))
	assert.True(t, p.Allowed(ctx, server.URL+"/private/public/page"),
		"the longer allow rule overrides the disallow")
}

func TestAllowBeatsDisallowOnTie(t *testing.T) {
	server := serveRobots(t, strings.Join([]string{
		"User-agent: *",
		"Disallow: /docs/",
		"Allow: /docs/",
	}, "\n"))

	assert.True(t, newPolicy().Allowed(context.Background(), server.URL+"/docs/page"))
}

func TestSpecificAgentGroupPreferred(t *testing.T) {
	server := serveRobots(t, strings.Join([]string{
		"User-agent: *",
		"Disallow: /",
		"",
		"User-agent: colligo",
		"Disallow: /admin/",
	}, "\n"))

	p := newPolicy()
	ctx := context.Background()

	assert.True(t, p.Allowed(ctx, server.URL+"/docs"), "the specific group replaces the wildcard")
	assert.False(t, p.Allowed(ctx, server.URL+"/admin/panel"))
}

func TestCrawlDelayParsed(t *testing.T) {
	server := serveRobots(t, strings.Join([]string{
		"User-agent: *",
		"Crawl-delay: 1.5",
		"Disallow: /x/",
	}, "\n"))

	delay := newPolicy().CrawlDelay(context.Background(), server.URL+"/page")
	assert.Equal(t, 1500*time.Millisecond, delay)
}

func TestMissingRobotsAllowsAll(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	p := newPolicy()
	assert.True(t, p.Allowed(context.Background(), server.URL+"/private/data"))
	assert.Zero(t, p.CrawlDelay(context.Background(), server.URL+"/page"))
}

func TestUnreachableHostAllowsAll(t *testing.T) {
	p := newPolicy()
	assert.True(t, p.Allowed(context.Background(), "http://127.0.0.1:1/page"))
}

func TestRobotsFetchedOncePerHost(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
	}))
	t.Cleanup(server.Close)

	p := newPolicy()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		p.Allowed(ctx, server.URL+"/page")
		p.CrawlDelay(ctx, server.URL+"/page")
	}

	assert.Equal(t, int64(1), hits.Load())
}

func TestCommentsAndBlanksIgnored(t *testing.T) {
	server := serveRobots(t, strings.Join([]string{
		"# site policy",
		"",
		"User-agent: * # everyone",
		"Disallow: /tmp/ # scratch space",
	}, "\n"))

	p := newPolicy()
	assert.False(t, p.Allowed(context.Background(), server.URL+"/tmp/file"))
	assert.True(t, p.Allowed(context.Background(), server.URL+"/docs"))
}
