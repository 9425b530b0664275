package mcp

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/kbase/internal/cli"
	"github.com/hyperjump/kbase/internal/embedding"
	"github.com/hyperjump/kbase/internal/index"
	"github.com/hyperjump/kbase/internal/indexer"
	"github.com/hyperjump/kbase/internal/models"
	"github.com/hyperjump/kbase/internal/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	kbs     []string
	results []*models.SearchResult
	err     error
	queries []*models.RetrieveQuery
}

func (m *mockService) ListKnowledgeBases() ([]string, error) { return m.kbs, m.err }

func (m *mockService) Retrieve(_ context.Context, q *models.RetrieveQuery) (*models.RetrieveResponse, error) {
	m.queries = append(m.queries, q)
	if m.err != nil {
		return nil, m.err
	}
	return &models.RetrieveResponse{Results: m.results, Total: len(m.results)}, nil
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content should be text")
	return text.Text
}

func TestNewServer(t *testing.T) {
	t.Run("nil service returns error", func(t *testing.T) {
		server, err := NewServer(nil, "test")
		assert.ErrorIs(t, err, ErrMissingService)
		assert.Nil(t, server)
	})

	t.Run("valid service creates server", func(t *testing.T) {
		server, err := NewServer(&mockService{}, "test", WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, server.Handler())
	})
}

func TestServer_handleListKnowledgeBases(t *testing.T) {
	ctx := context.Background()

	t.Run("returns indented JSON array", func(t *testing.T) {
		server, err := NewServer(&mockService{kbs: []string{"company", "it_support"}}, "test")
		require.NoError(t, err)
		res, _, err := server.handleListKnowledgeBases(ctx, nil, ListInput{})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Equal(t, "[\n  \"company\",\n  \"it_support\"\n]", resultText(t, res))
	})

	t.Run("no knowledge bases is an empty array", func(t *testing.T) {
		server, err := NewServer(&mockService{}, "test")
		require.NoError(t, err)
		res, _, err := server.handleListKnowledgeBases(ctx, nil, ListInput{})
		require.NoError(t, err)
		assert.Equal(t, "[]", resultText(t, res))
	})

	t.Run("failure is reported as tool error", func(t *testing.T) {
		server, err := NewServer(&mockService{err: errors.New("permission denied")}, "test")
		require.NoError(t, err)
		res, _, err := server.handleListKnowledgeBases(ctx, nil, ListInput{})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Error listing knowledge bases: permission denied", resultText(t, res))
	})
}

func TestServer_handleRetrieveKnowledge(t *testing.T) {
	ctx := context.Background()

	t.Run("passes arguments through", func(t *testing.T) {
		svc := &mockService{}
		server, err := NewServer(svc, "test")
		require.NoError(t, err)
		threshold := 0.75
		res, _, err := server.handleRetrieveKnowledge(ctx, nil, RetrieveInput{
			Query:             "vpn setup",
			KnowledgeBaseName: "it_support",
			Threshold:         &threshold,
		})
		require.NoError(t, err)
		assert.False(t, res.IsError)
		require.Len(t, svc.queries, 1)
		assert.Equal(t, "vpn setup", svc.queries[0].Query)
		assert.Equal(t, "it_support", svc.queries[0].KnowledgeBase)
		assert.Equal(t, &threshold, svc.queries[0].Threshold)
		assert.Contains(t, resultText(t, res), cli.NoResults)
	})

	t.Run("formats results as markdown", func(t *testing.T) {
		svc := &mockService{results: []*models.SearchResult{{
			Chunk: &models.Chunk{
				Text:     "Restart the router.",
				Metadata: map[string]interface{}{models.MetaSource: "/kb/it/router.md"},
			},
			Score: 0.42,
			Rank:  1,
		}}}
		server, err := NewServer(svc, "test")
		require.NoError(t, err)
		res, _, err := server.handleRetrieveKnowledge(ctx, nil, RetrieveInput{Query: "router"})
		require.NoError(t, err)
		text := resultText(t, res)
		assert.True(t, strings.HasPrefix(text, "## Semantic Search Results"))
		assert.Contains(t, text, "**Score:** 0.42")
		assert.Contains(t, text, "Restart the router.")
		assert.Contains(t, text, "/kb/it/router.md")
		assert.True(t, strings.HasSuffix(text, cli.Disclaimer))
	})

	t.Run("failure is reported as tool error", func(t *testing.T) {
		server, err := NewServer(&mockService{err: errors.New("provider down")}, "test")
		require.NoError(t, err)
		res, _, err := server.handleRetrieveKnowledge(ctx, nil, RetrieveInput{Query: "x"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Equal(t, "Error retrieving knowledge: provider down", resultText(t, res))
	})
}

func TestServer_retrieveAgainstRealIndex(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "company"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "company", "holidays.md"),
		[]byte("# Holidays\n\nThe office is closed on national holidays."), 0644))

	mgr := index.NewManager(filepath.Join(root, ".faiss"), embedding.NewMockEmbedder(64))
	require.NoError(t, mgr.Initialize(ctx))
	defer mgr.Close()
	server, err := NewServer(search.NewService(indexer.NewIndexer(root, mgr), mgr), "test")
	require.NoError(t, err)

	res, _, err := server.handleListKnowledgeBases(ctx, nil, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, "[\n  \"company\"\n]", resultText(t, res))

	res, _, err = server.handleRetrieveKnowledge(ctx, nil, RetrieveInput{Query: "office closed holidays"})
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Contains(t, resultText(t, res), "The office is closed on national holidays.")

	res, _, err = server.handleRetrieveKnowledge(ctx, nil, RetrieveInput{Query: "x", KnowledgeBaseName: "../etc"})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.True(t, strings.HasPrefix(resultText(t, res), "Error retrieving knowledge: "))
}
