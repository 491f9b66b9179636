package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/promptdex/internal/app"
	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
)

const defaultBatchSize = 100

var (
	loadFile      string
	loadBatchSize int
	loadNoEmbed   bool
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Bulk load templates from a JSON file",
	Long: `Load templates from a JSON array and upsert them into the store.

Records without an id get a generated UUID. Records without a vector
are embedded from title and body when an embedding model is configured.

Examples:
  # Load a file
  promptdexctl load --file templates.json

  # Load from stdin without embedding
  cat templates.json | promptdexctl load --file - --no-embed`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVarP(&loadFile, "file", "f", "", "JSON file with templates, - for stdin")
	loadCmd.Flags().IntVar(&loadBatchSize, "batch", defaultBatchSize, "templates per write")
	loadCmd.Flags().BoolVar(&loadNoEmbed, "no-embed", false, "skip embedding templates without a vector")
	_ = loadCmd.MarkFlagRequired("file")
}

// templateRecord is the on-disk shape of one template.
type templateRecord struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	Tags        []string   `json:"tags"`
	Visibility  string     `json:"visibility"`
	UsageCount  int        `json:"usage_count"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	OwnerID     string     `json:"owner_id"`
	AuthorID    string     `json:"author_id"`
	WorkspaceID string     `json:"workspace_id"`
	Vector      []float32  `json:"vector"`
}

func (r templateRecord) params(now time.Time) template.Params {
	p := template.Params{
		ID:          r.ID,
		Title:       r.Title,
		Body:        r.Body,
		Tags:        r.Tags,
		Visibility:  template.Visibility(r.Visibility),
		UsageCount:  r.UsageCount,
		OwnerID:     r.OwnerID,
		AuthorID:    r.AuthorID,
		WorkspaceID: r.WorkspaceID,
		Vector:      r.Vector,
		CreatedAt:   now,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if r.CreatedAt != nil {
		p.CreatedAt = *r.CreatedAt
	}
	if r.UpdatedAt != nil {
		p.UpdatedAt = *r.UpdatedAt
	}
	return p
}

// decodeTemplates parses a JSON array of templates and validates each record.
func decodeTemplates(rd io.Reader, now time.Time) ([]template.Template, error) {
	var records []templateRecord
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}

	out := make([]template.Template, 0, len(records))
	for i, rec := range records {
		t, err := template.New(rec.params(now))
		if err != nil {
			return nil, fmt.Errorf("template %d (%q): %w", i, rec.ID, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// embedMissing fills vectors for templates that have none.
func embedMissing(ctx context.Context, embedder domain.Embedder, ts []template.Template) (int, error) {
	embedded := 0
	for i := range ts {
		if len(ts[i].Vector()) > 0 {
			continue
		}
		res, err := embedder.Embed(ctx, ts[i].EmbeddingText())
		if err != nil {
			return embedded, fmt.Errorf("embed template %s: %w", ts[i].ID(), err)
		}
		ts[i] = ts[i].WithVector(res.Embedding)
		embedded++
	}
	return embedded, nil
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func runLoad(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	in, err := openInput(loadFile)
	if err != nil {
		return err
	}
	templates, err := decodeTemplates(in, time.Now())
	_ = in.Close()
	if err != nil {
		return err
	}

	e, err := open(ctx)
	if err != nil {
		return err
	}
	defer e.close()

	embedded := 0
	if !loadNoEmbed {
		embedder, _ := app.NewEmbedder(e.cfg.Embedding, e.cfg.Embedding.DocumentInstruction, e.logger)
		if embedder == nil {
			e.logger.Warn("No embedding model configured, templates without a vector are stored unembedded")
		} else {
			embedded, err = embedMissing(ctx, embedder, templates)
			if err != nil {
				return err
			}
		}
	}

	batch := loadBatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	for start := 0; start < len(templates); start += batch {
		end := min(start+batch, len(templates))
		if err := e.backend.Templates.UpsertMany(ctx, templates[start:end]); err != nil {
			return fmt.Errorf("upsert templates %d-%d: %w", start, end-1, err)
		}
		e.logger.Debug("Batch written", zap.Int("from", start), zap.Int("to", end-1))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "loaded %d templates (%d embedded)\n", len(templates), embedded)
	return nil
}
