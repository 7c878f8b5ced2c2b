package api

import "testing"

func TestRouteToOperation(t *testing.T) {
	cases := []struct {
		path   string
		method string
		want   string
	}{
		{"/api/v1/memories/abc/trace", "GET", "trace"},
		{"/api/v1/memories/search", "GET", "search"},
		{"/api/v1/memories/abc/related", "GET", "search"},
		{"/api/v1/memories/abc/graph", "GET", "search"},
		{"/api/v1/analyze", "POST", "analysis"},
		{"/api/v1/consolidate", "POST", "analysis"},
		{"/api/v1/memories", "POST", "store_memory"},
		{"/api/v1/memories", "GET", ""},
		{"/api/v1/relationships", "POST", "relationships"},
		{"/api/v1/relationships/discover", "POST", "relationships"},
		{"/api/v1/health", "GET", ""},
	}

	for _, c := range cases {
		if got := routeToOperation(c.path, c.method); got != c.want {
			t.Errorf("routeToOperation(%q, %q) = %q, want %q", c.path, c.method, got, c.want)
		}
	}
}
