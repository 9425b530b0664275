package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hyperjump/kbase/internal/cli"
	"github.com/hyperjump/kbase/internal/models"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	knowledgeBase string
	k             int
	threshold     float64
	noUpdate      bool
	format        string
	serverURL     string
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	so := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Retrieve chunks similar to a query",
		Long: `Bring the index up to date, then return at most k chunks whose distance to
the query is within the threshold (lower is more similar).

With --server the query is sent to a running "kbase serve" instead of
opening the index directly.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := cli.ParseFormat(so.format)
			if err != nil {
				return err
			}
			query := &models.RetrieveQuery{
				Query:         strings.Join(args, " "),
				KnowledgeBase: so.knowledgeBase,
				K:             so.k,
			}
			if cmd.Flags().Changed("threshold") {
				t := so.threshold
				query.Threshold = &t
			}

			var resp *models.RetrieveResponse
			if so.serverURL != "" {
				resp, err = searchViaHTTP(cmd.Context(), so.serverURL, query, so.noUpdate)
			} else {
				resp, err = searchLocal(cmd.Context(), opts, query, so.noUpdate)
			}
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), resp, f)
		},
	}
	cmd.Flags().StringVar(&so.knowledgeBase, "kb", "", "update only this knowledge base before searching")
	cmd.Flags().IntVarP(&so.k, "k", "k", 0, "maximum number of results (default from config)")
	cmd.Flags().Float64VarP(&so.threshold, "threshold", "t", 0, "maximum distance (default from config)")
	cmd.Flags().BoolVar(&so.noUpdate, "no-update", false, "search the index as it is")
	cmd.Flags().StringVarP(&so.format, "output", "o", "text", "output format: text, json or markdown")
	cmd.Flags().StringVar(&so.serverURL, "server", "", "URL of a running kbase server (e.g. http://localhost:8080)")
	return cmd
}

func searchLocal(ctx context.Context, opts *rootOptions, query *models.RetrieveQuery, noUpdate bool) (*models.RetrieveResponse, error) {
	a, err := opts.setup(ctx)
	if err != nil {
		return nil, err
	}
	defer a.Close()
	if noUpdate {
		return a.service.Search(ctx, query)
	}
	return a.service.Retrieve(ctx, query)
}

func searchViaHTTP(ctx context.Context, serverURL string, query *models.RetrieveQuery, noUpdate bool) (*models.RetrieveResponse, error) {
	body, err := json.Marshal(struct {
		*models.RetrieveQuery
		NoUpdate bool `json:"no_update,omitempty"`
	}{query, noUpdate})
	if err != nil {
		return nil, err
	}
	url := strings.TrimRight(serverURL, "/") + "/api/v1/retrieve"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.RetrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}
