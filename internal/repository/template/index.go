package template

import "github.com/kailas-cloud/promptdex/internal/db"

// Field weights of the ranked index: a title match outranks a body match,
// which outranks a tag match.
const (
	TitleWeight = 10
	BodyWeight  = 5
	TagWeight   = 1
)

// buildIndex defines the FT index over template hashes.
func buildIndex() *db.IndexDefinition {
	return db.NewIndex(IndexName).
		Prefix(KeyPrefix).
		TextWeighted(FieldTitle, TitleWeight).
		TextWeighted(FieldBody, BodyWeight).
		TextWeighted(FieldTagText, TagWeight).
		TagWithOpts(FieldTags, tagSeparator, false).
		Tag(FieldVisibility).
		Tag(FieldOwnerID).
		Tag(FieldAuthorID).
		Tag(FieldWorkspaceID).
		Numeric(FieldUsageCount).
		SortableNumeric(FieldCreatedAt).
		MustBuild()
}
