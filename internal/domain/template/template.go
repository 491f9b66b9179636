package template

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Template limits.
const (
	MaxTitleLength = 512
	MaxBodySize    = 163840 // 160KB
	MaxTags        = 32
)

// Visibility controls who besides the owner may see a template.
type Visibility string

// Visibility values.
const (
	Private Visibility = "private"
	Shared  Visibility = "shared"
	Public  Visibility = "public"
)

// IsValid checks if the visibility is one of the supported values.
func (v Visibility) IsValid() bool {
	return v == Private || v == Shared || v == Public
}

// Template is the searchable projection of a prompt template (immutable value object).
type Template struct {
	id          string
	title       string
	body        string
	tags        []string
	visibility  Visibility
	usageCount  int
	createdAt   time.Time
	updatedAt   time.Time
	ownerID     string
	authorID    string
	workspaceID string
	vector      []float32
}

// Params groups the fields accepted by New.
type Params struct {
	ID          string
	Title       string
	Body        string
	Tags        []string
	Visibility  Visibility
	UsageCount  int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	OwnerID     string
	AuthorID    string
	WorkspaceID string
	Vector      []float32
}

// New validates and creates a Template.
// Visibility defaults to private, AuthorID to OwnerID, UpdatedAt to CreatedAt.
func New(p Params) (Template, error) {
	if p.ID == "" {
		return Template{}, fmt.Errorf("template ID is required")
	}
	if len(p.ID) > 256 || !idRegex.MatchString(p.ID) {
		return Template{}, fmt.Errorf("template ID must be 1-256 alphanumeric chars, underscores or hyphens")
	}
	if strings.TrimSpace(p.Title) == "" {
		return Template{}, fmt.Errorf("title is required")
	}
	if len(p.Title) > MaxTitleLength {
		return Template{}, fmt.Errorf("title too long (max %d chars)", MaxTitleLength)
	}
	if len(p.Body) > MaxBodySize {
		return Template{}, fmt.Errorf("body too large (max %d bytes)", MaxBodySize)
	}
	if p.OwnerID == "" {
		return Template{}, fmt.Errorf("owner ID is required")
	}
	if p.UsageCount < 0 {
		return Template{}, fmt.Errorf("usage count must be non-negative")
	}
	if p.Visibility == "" {
		p.Visibility = Private
	}
	if !p.Visibility.IsValid() {
		return Template{}, fmt.Errorf("invalid visibility: %q", p.Visibility)
	}
	tags := NormalizeTags(p.Tags)
	if len(tags) > MaxTags {
		return Template{}, fmt.Errorf("too many tags (max %d)", MaxTags)
	}
	if p.CreatedAt.IsZero() {
		return Template{}, fmt.Errorf("created_at is required")
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	if p.AuthorID == "" {
		p.AuthorID = p.OwnerID
	}

	return Template{
		id:          p.ID,
		title:       p.Title,
		body:        p.Body,
		tags:        tags,
		visibility:  p.Visibility,
		usageCount:  p.UsageCount,
		createdAt:   p.CreatedAt.UTC(),
		updatedAt:   p.UpdatedAt.UTC(),
		ownerID:     p.OwnerID,
		authorID:    p.AuthorID,
		workspaceID: p.WorkspaceID,
		vector:      slices.Clone(p.Vector),
	}, nil
}

// Reconstruct creates a Template without validation (storage hydration).
func Reconstruct(p Params) Template {
	return Template{
		id:          p.ID,
		title:       p.Title,
		body:        p.Body,
		tags:        p.Tags,
		visibility:  p.Visibility,
		usageCount:  p.UsageCount,
		createdAt:   p.CreatedAt,
		updatedAt:   p.UpdatedAt,
		ownerID:     p.OwnerID,
		authorID:    p.AuthorID,
		workspaceID: p.WorkspaceID,
		vector:      p.Vector,
	}
}

// ID returns the template identifier.
func (t *Template) ID() string { return t.id }

// Title returns the template title.
func (t *Template) Title() string { return t.title }

// Body returns the template body text.
func (t *Template) Body() string { return t.body }

// Tags returns the normalized tag set.
func (t *Template) Tags() []string { return t.tags }

// Visibility returns the sharing level.
func (t *Template) Visibility() Visibility { return t.visibility }

// UsageCount returns how many times the template has been used.
func (t *Template) UsageCount() int { return t.usageCount }

// CreatedAt returns the creation timestamp.
func (t *Template) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns the last modification timestamp.
func (t *Template) UpdatedAt() time.Time { return t.updatedAt }

// OwnerID returns the owning user.
func (t *Template) OwnerID() string { return t.ownerID }

// AuthorID returns the user credited as author.
func (t *Template) AuthorID() string { return t.authorID }

// WorkspaceID returns the workspace the template belongs to, empty if none.
func (t *Template) WorkspaceID() string { return t.workspaceID }

// Vector returns the embedding vector, nil if not embedded yet.
func (t *Template) Vector() []float32 { return t.vector }

// IsShared reports whether non-owners may see the template when shared content is requested.
func (t *Template) IsShared() bool {
	return t.visibility == Shared || t.visibility == Public
}

// EmbeddingText is the text a document embedding is computed from.
func (t *Template) EmbeddingText() string {
	if t.body == "" {
		return t.title
	}
	return t.title + "\n\n" + t.body
}

// WithVector returns a copy carrying the given embedding.
func (t Template) WithVector(v []float32) Template {
	t.vector = slices.Clone(v)
	return t
}

// NormalizeTags lower-cases and trims tags, dropping empties and duplicates while keeping order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
