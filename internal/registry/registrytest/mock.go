// Package registrytest provides an in-process npm registry and node
// release index for tests.
package registrytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PolarWolf314/pkgdoctor/internal/registry"
)

// Options configures a Registry.
type Options struct {
	// Token, when set, must arrive as "Authorization: Bearer <Token>" on
	// every registry route. Mismatches answer 401.
	Token string
}

type route struct {
	status int
	body   any
	drop   bool
}

// Registry serves canned responses. Requests to paths with no registered
// route answer 404 and fail the test at cleanup.
type Registry struct {
	t      testing.TB
	server *httptest.Server
	token  string

	mu         sync.Mutex
	routes     map[string]route
	hits       map[string]int
	unexpected []string
}

// New starts a Registry that is shut down when the test finishes.
func New(t testing.TB, opts Options) *Registry {
	t.Helper()
	m := &Registry{
		t:      t,
		token:  opts.Token,
		routes: make(map[string]route),
		hits:   make(map[string]int),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(func() {
		m.server.Close()
		m.mu.Lock()
		defer m.mu.Unlock()
		for _, u := range m.unexpected {
			t.Errorf("registrytest: unexpected request %s", u)
		}
	})
	return m
}

// URL is the registry base URL with a trailing slash.
func (m *Registry) URL() string {
	return m.server.URL + "/"
}

// NodeDistURL is the base of the mocked node release index.
func (m *Registry) NodeDistURL() string {
	return m.server.URL + "/dist/"
}

// Ping registers GET /-/ping?write=true answering status.
func (m *Registry) Ping(status int) {
	m.set("/-/ping?write=true", route{status: status, body: map[string]any{}})
}

// PingDrop registers a ping that closes the connection without answering.
func (m *Registry) PingDrop() {
	m.set("/-/ping?write=true", route{drop: true})
}

// Package registers GET /<name> answering packument.
func (m *Registry) Package(p *registry.Packument) {
	m.set("/"+escapeName(p.Name), route{status: http.StatusOK, body: p})
}

// PackageStatus registers GET /<name> answering status with no packument.
func (m *Registry) PackageStatus(name string, status int) {
	m.set("/"+escapeName(name), route{status: status, body: map[string]any{}})
}

// NodeIndex registers GET /dist/index.json answering releases.
func (m *Registry) NodeIndex(releases []registry.Release) {
	m.set("/dist/index.json", route{status: http.StatusOK, body: releases})
}

// Hits returns how many times path (including any query) was requested.
func (m *Registry) Hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

// Requests returns the total number of requests served.
func (m *Registry) Requests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.hits {
		total += n
	}
	return total + len(m.unexpected)
}

// Manifest builds a packument for name whose latest dist-tag is the last
// of versions.
func Manifest(name string, versions ...string) *registry.Packument {
	p := &registry.Packument{
		Name:     name,
		DistTags: map[string]string{},
		Versions: map[string]registry.Manifest{},
		Time:     map[string]string{},
	}
	for _, v := range versions {
		p.Versions[v] = registry.Manifest{
			Name:    name,
			Version: v,
			Dist:    &registry.Dist{Tarball: fmt.Sprintf("https://registry.example.com/%s/-/%s-%s.tgz", name, name, v)},
		}
		p.Time[v] = "2024-01-01T00:00:00.000Z"
	}
	if len(versions) > 0 {
		p.DistTags["latest"] = versions[len(versions)-1]
	}
	return p
}

func (m *Registry) set(key string, r route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[key] = r
}

func (m *Registry) serve(w http.ResponseWriter, req *http.Request) {
	key := req.URL.EscapedPath()
	if req.URL.RawQuery != "" {
		key += "?" + req.URL.RawQuery
	}

	m.mu.Lock()
	r, ok := m.routes[key]
	if ok {
		m.hits[key]++
	} else {
		m.unexpected = append(m.unexpected, req.Method+" "+key)
	}
	m.mu.Unlock()

	if !ok {
		http.NotFound(w, req)
		return
	}
	if req.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if r.drop {
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				conn.Close()
				return
			}
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if m.token != "" && !strings.HasPrefix(key, "/dist/") && req.Header.Get("Authorization") != "Bearer "+m.token {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(r.status)
	_ = json.NewEncoder(w).Encode(r.body)
}

func escapeName(name string) string {
	return strings.Replace(name, "/", "%2F", 1)
}
