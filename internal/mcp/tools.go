package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hyperjump/kbase/internal/cli"
	"github.com/hyperjump/kbase/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Tool names.
const (
	ToolListKnowledgeBases = "list_knowledge_bases"
	ToolRetrieveKnowledge  = "retrieve_knowledge"
)

const retrieveDescription = "Retrieves similar chunks from the knowledge base based on a query. " +
	"Optionally, if a knowledge base is specified, only that one is searched; otherwise, all available knowledge bases are considered. " +
	"By default, at most 10 documents are returned with a score below a threshold of 2. " +
	"A different threshold can optionally be provided."

// ListInput is the (empty) input of list_knowledge_bases.
type ListInput struct{}

// RetrieveInput is the input of retrieve_knowledge.
type RetrieveInput struct {
	Query             string   `json:"query" jsonschema:"The query text to use for semantic search."`
	KnowledgeBaseName string   `json:"knowledge_base_name,omitempty" jsonschema:"Optional. Name of the knowledge base to query (e.g. company, it_support, onboarding). If omitted, the search is performed across all available knowledge bases."`
	Threshold         *float64 `json:"threshold,omitempty" jsonschema:"Optional. The maximum similarity score to return."`
	K                 int      `json:"k,omitempty" jsonschema:"Optional. Maximum number of results (default 10)."`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolListKnowledgeBases,
		Description: "Lists the available knowledge bases.",
	}, s.handleListKnowledgeBases)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        ToolRetrieveKnowledge,
		Description: retrieveDescription,
	}, s.handleRetrieveKnowledge)
}

func (s *Server) handleListKnowledgeBases(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListInput,
) (*mcp.CallToolResult, any, error) {
	names, err := s.service.ListKnowledgeBases()
	if err != nil {
		s.logger.Error("Error listing knowledge bases", zap.Error(err))
		return errorResult("Error listing knowledge bases: " + err.Error()), nil, nil
	}
	if names == nil {
		names = []string{}
	}
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return errorResult("Error listing knowledge bases: " + err.Error()), nil, nil
	}
	return textResult(string(data)), nil, nil
}

func (s *Server) handleRetrieveKnowledge(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	s.logger.Debug("handleRetrieveKnowledge started",
		zap.String("query", input.Query),
		zap.String("knowledge_base", input.KnowledgeBaseName))

	resp, err := s.service.Retrieve(ctx, &models.RetrieveQuery{
		Query:         input.Query,
		KnowledgeBase: input.KnowledgeBaseName,
		K:             input.K,
		Threshold:     input.Threshold,
	})
	if err != nil {
		s.logger.Error("Error retrieving knowledge", zap.Error(err))
		return errorResult("Error retrieving knowledge: " + err.Error()), nil, nil
	}

	s.logger.Debug("handleRetrieveKnowledge completed",
		zap.Int("results", resp.Total),
		zap.Duration("took", time.Since(start)))
	return textResult(cli.FormatMarkdown(resp.Results)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
