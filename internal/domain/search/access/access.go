// Package access builds the visibility predicate applied by every retrieval path.
//
// A template is visible when the requester owns it, when shared content was requested and the
// template is shared or public, or when it belongs to the workspace named in the filters.
// The visibility clause is ANDed with the remaining filter constraints.
package access

import (
	"github.com/kailas-cloud/promptdex/internal/domain/search/filter"
	"github.com/kailas-cloud/promptdex/internal/domain/template"
)

// Predicate is an immutable access rule. The zero value denies everything.
type Predicate struct {
	requesterID   string
	includeShared bool
	filters       filter.Filters
}

// Build creates the predicate for one query.
func Build(requesterID string, includeShared bool, filters filter.Filters) Predicate {
	return Predicate{
		requesterID:   requesterID,
		includeShared: includeShared,
		filters:       filters,
	}
}

// RequesterID returns the identity the predicate was built for.
func (p Predicate) RequesterID() string { return p.requesterID }

// IncludeShared reports whether shared and public templates are visible.
func (p Predicate) IncludeShared() bool { return p.includeShared }

// Filters returns the filter constraints.
func (p Predicate) Filters() filter.Filters { return p.filters }

// WorkspaceID returns the workspace granting visibility, empty if none.
func (p Predicate) WorkspaceID() string { return p.filters.WorkspaceID() }

// Allows reports whether the template is visible under this predicate.
func (p Predicate) Allows(t *template.Template) bool {
	return p.visible(t) && p.filters.Matches(t)
}

func (p Predicate) visible(t *template.Template) bool {
	if p.requesterID != "" && t.OwnerID() == p.requesterID {
		return true
	}
	if p.includeShared && t.IsShared() {
		return true
	}
	ws := p.filters.WorkspaceID()
	return ws != "" && t.WorkspaceID() == ws
}
