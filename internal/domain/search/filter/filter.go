package filter

import (
	"fmt"
	"slices"
	"time"

	"github.com/kailas-cloud/promptdex/internal/domain"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
)

// MaxTags is the maximum number of tags in a match-any tag filter.
const MaxTags = 32

// Filters narrows a search. Every field is optional; an unset field places no constraint.
type Filters struct {
	tags        []string
	visibility  template.Visibility
	createdFrom *time.Time
	createdTo   *time.Time
	workspaceID string
	minUsage    *int
	authorID    string
}

// Params groups the fields accepted by New.
type Params struct {
	Tags        []string
	Visibility  template.Visibility
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	WorkspaceID string
	MinUsage    *int
	AuthorID    string
}

// New validates and creates Filters.
func New(p Params) (Filters, error) {
	tags := template.NormalizeTags(p.Tags)
	if len(tags) > MaxTags {
		return Filters{}, fmt.Errorf("%w: too many tags (max %d)", domain.ErrInvalidQuery, MaxTags)
	}
	if p.Visibility != "" && !p.Visibility.IsValid() {
		return Filters{}, fmt.Errorf("%w: invalid visibility %q", domain.ErrInvalidQuery, p.Visibility)
	}
	if p.CreatedFrom != nil && p.CreatedTo != nil && p.CreatedFrom.After(*p.CreatedTo) {
		return Filters{}, fmt.Errorf("%w: created_from is after created_to", domain.ErrInvalidQuery)
	}
	if p.MinUsage != nil && *p.MinUsage < 0 {
		return Filters{}, fmt.Errorf("%w: min_usage must be non-negative", domain.ErrInvalidQuery)
	}

	return Filters{
		tags:        tags,
		visibility:  p.Visibility,
		createdFrom: utcPtr(p.CreatedFrom),
		createdTo:   utcPtr(p.CreatedTo),
		workspaceID: p.WorkspaceID,
		minUsage:    intPtr(p.MinUsage),
		authorID:    p.AuthorID,
	}, nil
}

// Tags returns a copy of the match-any tag set.
func (f Filters) Tags() []string { return slices.Clone(f.tags) }

// Visibility returns the required visibility, empty if unconstrained.
func (f Filters) Visibility() template.Visibility { return f.visibility }

// CreatedFrom returns the inclusive lower creation bound.
func (f Filters) CreatedFrom() *time.Time { return f.createdFrom }

// CreatedTo returns the inclusive upper creation bound.
func (f Filters) CreatedTo() *time.Time { return f.createdTo }

// CreatedRangeMillis returns the creation bounds as inclusive Unix milliseconds,
// the precision stores index created_at with. A lower bound with a sub-millisecond
// remainder rounds up so the stored range agrees with Matches.
func (f Filters) CreatedRangeMillis() (lo, hi *int64) {
	if f.createdFrom != nil {
		ms := f.createdFrom.UnixMilli()
		if f.createdFrom.Nanosecond()%int(time.Millisecond) != 0 {
			ms++
		}
		lo = &ms
	}
	if f.createdTo != nil {
		ms := f.createdTo.UnixMilli()
		hi = &ms
	}
	return lo, hi
}

// WorkspaceID returns the workspace scope.
func (f Filters) WorkspaceID() string { return f.workspaceID }

// MinUsage returns the minimum usage count threshold.
func (f Filters) MinUsage() *int { return f.minUsage }

// AuthorID returns the required author.
func (f Filters) AuthorID() string { return f.authorID }

// IsEmpty reports whether no filter field is set.
func (f Filters) IsEmpty() bool {
	return len(f.tags) == 0 && f.visibility == "" && f.createdFrom == nil && f.createdTo == nil &&
		f.workspaceID == "" && f.minUsage == nil && f.authorID == ""
}

// Matches evaluates the filter constraints, excluding workspace scope, against a template.
func (f Filters) Matches(t *template.Template) bool {
	if len(f.tags) > 0 && !anyTag(f.tags, t.Tags()) {
		return false
	}
	if f.visibility != "" && t.Visibility() != f.visibility {
		return false
	}
	if f.createdFrom != nil && t.CreatedAt().Before(*f.createdFrom) {
		return false
	}
	if f.createdTo != nil && t.CreatedAt().After(*f.createdTo) {
		return false
	}
	if f.minUsage != nil && t.UsageCount() < *f.minUsage {
		return false
	}
	if f.authorID != "" && t.AuthorID() != f.authorID {
		return false
	}
	return true
}

func anyTag(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func intPtr(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
