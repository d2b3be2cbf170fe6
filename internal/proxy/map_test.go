package proxy

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/redirector/internal/env"
	"github.com/conneroisu/redirector/internal/logging"
	"github.com/conneroisu/redirector/internal/route"
)

func TestBuildAPIExample(t *testing.T) {
	snap := env.FromMap(map[string]string{"API_URL": "https://example.com"})
	m := Build(context.Background(), []string{"/api/* {{API_URL}}/backend/*"}, snap, nil)

	require.Contains(t, m, "/api/")
	entry := m["/api/"]
	assert.Equal(t, "https://example.com", entry.Target)
	assert.True(t, entry.ChangeOrigin)
	assert.False(t, entry.Secure)
	assert.Equal(t, "/backend/", entry.RewritePath)
	require.NotNil(t, entry.Rewrite)
	assert.Equal(t, "/backend/foo", entry.Rewrite("/api/foo"))
	assert.Equal(t, "/other", entry.Rewrite("/other"))
}

func TestBuild(t *testing.T) {
	snap := env.FromMap(map[string]string{
		"API_URL":  "https://example.com",
		"AUTH_URL": "https://auth.example.com/",
	})

	tests := []struct {
		name        string
		lines       []string
		wantKeys    []string
		wantRewrite map[string]string
	}{
		{
			name:     "empty",
			lines:    nil,
			wantKeys: []string{},
		},
		{
			name:     "unresolved directive dropped",
			lines:    []string{"/api/* {{MISSING}}/*", "/auth/* {{AUTH_URL}}"},
			wantKeys: []string{"/auth/"},
		},
		{
			name:     "malformed directive dropped",
			lines:    []string{"/lonely", "/a /b"},
			wantKeys: []string{"/a"},
		},
		{
			name:     "reserved routes excluded",
			lines:    []string{"/* /index.html", "/ /home", "/a /b"},
			wantKeys: []string{"/a"},
		},
		{
			name:        "no rewrite when path is root",
			lines:       []string{"/auth/* {{AUTH_URL}}"},
			wantKeys:    []string{"/auth/"},
			wantRewrite: map[string]string{"/auth/": ""},
		},
		{
			name:        "no rewrite when path shares prefix",
			lines:       []string{"/api/* {{API_URL}}/api/v1/*"},
			wantKeys:    []string{"/api/"},
			wantRewrite: map[string]string{"/api/": ""},
		},
		{
			name:        "path relative rewrite",
			lines:       []string{"/old-page /new-page"},
			wantKeys:    []string{"/old-page"},
			wantRewrite: map[string]string{"/old-page": "/new-page"},
		},
		{
			name:        "splat remainder joined as a segment",
			lines:       []string{"/old/* /new"},
			wantKeys:    []string{"/old/"},
			wantRewrite: map[string]string{"/old/": "/new/"},
		},
		{
			name:        "trailing param stripped",
			lines:       []string{"/u/* {{API_URL}}/users/:id"},
			wantKeys:    []string{"/u/"},
			wantRewrite: map[string]string{"/u/": "/users/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Build(context.Background(), tt.lines, snap, nil)
			keys := m.Keys()
			assert.ElementsMatch(t, tt.wantKeys, keys)
			for key, rewrite := range tt.wantRewrite {
				assert.Equal(t, rewrite, m[key].RewritePath, key)
				assert.Equal(t, rewrite != "", m[key].Rewrite != nil, key)
			}
		})
	}
}

func TestBuildDuplicateLastWins(t *testing.T) {
	lines := []string{
		"/api/* https://first.example.com/*",
		"/api/* https://second.example.com/*",
	}
	m := Build(context.Background(), lines, env.Snapshot{}, nil)

	require.Len(t, m, 1)
	assert.Equal(t, "https://second.example.com", m["/api/"].Target)
}

func TestBuildLogsSteps(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.LevelInfo,
		Format: logging.FormatConsole,
		Color:  logging.ColorNever,
		Output: buf,
	})
	snap := env.FromMap(map[string]string{"API_URL": "https://example.com"})

	Build(context.Background(), []string{
		"/api/* {{API_URL}}/backend/*",
		"/skip/* {{MISSING}}",
		"/old /new",
	}, snap, logger)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "↪ rewrite /api/ → https://example.com/backend/", strings.TrimSpace(lines[0]))
	assert.Equal(t, "↪ rewrite /old → /new", strings.TrimSpace(lines[1]))
}

func TestMerge(t *testing.T) {
	existing := Map{
		"/keep": {Target: "https://keep.example.com"},
		"/api/": {Target: "https://old.example.com"},
	}
	incoming := Map{
		"/api/": {Target: "https://new.example.com"},
		"/new":  {Target: "https://added.example.com"},
	}

	merged := Merge(existing, incoming)

	assert.Len(t, merged, 3)
	assert.Equal(t, "https://new.example.com", merged["/api/"].Target)
	assert.Equal(t, "https://keep.example.com", merged["/keep"].Target)
	assert.Equal(t, "https://old.example.com", existing["/api/"].Target)
	assert.Len(t, existing, 2)
	assert.Len(t, incoming, 2)

	assert.Empty(t, Merge(nil, nil))
}

func TestKeysOrder(t *testing.T) {
	m := Map{"/a": {}, "/api/v1/": {}, "/api/": {}, "/b": {}}
	assert.Equal(t, []string{"/api/v1/", "/api/", "/a", "/b"}, m.Keys())
}

func TestNewEntry(t *testing.T) {
	e := NewEntry("/docs/", route.Target{Origin: "", Path: "/"})
	assert.Nil(t, e.Rewrite)
	assert.Equal(t, "", e.Target)
}

func TestBuildSubstitutesRoutePlaceholders(t *testing.T) {
	snap := env.FromMap(map[string]string{"PREFIX": "legacy", "API_URL": "https://example.com"})

	m := Build(context.Background(), []string{"/{{PREFIX}}/* {{API_URL}}/v1/*"}, snap, nil)
	require.Contains(t, m, "/legacy/")
	entry := m["/legacy/"]
	assert.Equal(t, "https://example.com", entry.Target)
	require.NotNil(t, entry.Rewrite)
	assert.Equal(t, "/v1/users", entry.Rewrite("/legacy/users"))
}

func TestNewEntryJoinsSplatRemainder(t *testing.T) {
	e := NewEntry("/old/", route.Target{Path: "/new"})
	require.NotNil(t, e.Rewrite)
	assert.Equal(t, "/new/", e.RewritePath)
	assert.Equal(t, "/new/foo", e.Rewrite("/old/foo"))

	plain := NewEntry("/old", route.Target{Path: "/new"})
	assert.Equal(t, "/new", plain.RewritePath)
	assert.Equal(t, "/new", plain.Rewrite("/old"))
}
