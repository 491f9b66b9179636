package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/promptdex/internal/app"
	"github.com/kailas-cloud/promptdex/internal/domain/search/filter"
	"github.com/kailas-cloud/promptdex/internal/domain/search/mode"
	"github.com/kailas-cloud/promptdex/internal/domain/search/request"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
	chiTransport "github.com/kailas-cloud/promptdex/internal/transport/chi"
	searchuc "github.com/kailas-cloud/promptdex/internal/usecase/search"
)

var (
	searchMode          string
	searchRequester     string
	searchLimit         int
	searchOffset        int
	searchIncludeShared bool
	searchTags          []string
	searchVisibility    string
	searchWorkspace     string
	searchAuthor        string
	searchMinUsage      int
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search templates as a given requester",
	Long: `Run a search against the store with the server's ranking and print
the response as JSON.

Examples:
  # Full-text search over your own templates
  promptdexctl search "code review" --requester u1

  # Hybrid search including shared templates tagged go or review
  promptdexctl search "review checklist" --requester u1 --mode hybrid \
    --include-shared --tag go --tag review`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVar(&searchMode, "mode", string(mode.FullText), "keyword, fulltext, semantic or hybrid")
	f.StringVar(&searchRequester, "requester", "", "user the search runs as")
	f.IntVar(&searchLimit, "limit", request.DefaultLimit, "page size")
	f.IntVar(&searchOffset, "offset", 0, "results to skip")
	f.BoolVar(&searchIncludeShared, "include-shared", false, "include shared and public templates")
	f.StringSliceVar(&searchTags, "tag", nil, "match any of these tags (repeatable)")
	f.StringVar(&searchVisibility, "visibility", "", "private, shared or public")
	f.StringVar(&searchWorkspace, "workspace", "", "workspace scope")
	f.StringVar(&searchAuthor, "author", "", "required author")
	f.IntVar(&searchMinUsage, "min-usage", -1, "minimum usage count, negative disables")
	_ = searchCmd.MarkFlagRequired("requester")
}

func buildSearchRequest(query string) (request.Request, error) {
	fp := filter.Params{
		Tags:        searchTags,
		Visibility:  template.Visibility(searchVisibility),
		WorkspaceID: searchWorkspace,
		AuthorID:    searchAuthor,
	}
	if searchMinUsage >= 0 {
		v := searchMinUsage
		fp.MinUsage = &v
	}
	filters, err := filter.New(fp)
	if err != nil {
		return request.Request{}, fmt.Errorf("parse filters: %w", err)
	}
	return request.New(query, mode.Parse(searchMode), filters,
		searchLimit, searchOffset, searchRequester, searchIncludeShared)
}

func runSearch(cmd *cobra.Command, args []string) error {
	req, err := buildSearchRequest(args[0])
	if err != nil {
		return err
	}

	e, err := open(cmd.Context())
	if err != nil {
		return err
	}
	defer e.close()

	embedder, _ := app.NewEmbedder(e.cfg.Embedding, e.cfg.Embedding.QueryInstruction, e.logger)
	svc := searchuc.New(e.backend.Index, e.backend.Templates, embedder, searchuc.Config{
		RRFK:          e.cfg.Search.RRFK,
		MinSimilarity: e.cfg.Search.MinSimilarity,
		HybridWindow:  e.cfg.Search.HybridWindow,
		SnippetWords:  e.cfg.Search.SnippetWords,
	}, e.logger)

	resp, err := svc.Search(cmd.Context(), &req)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(chiTransport.NewSearchResponse(&resp))
}
