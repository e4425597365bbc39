package entry

import (
	"context"

	"pairdiary/internal/notion"
)

// Seed option sets for enumerated fields. Per-deployment; appended to, never
// rewritten, so previously tagged entries keep their values.
var (
	moodOptions    = []string{"happy", "love", "calm", "sad", "angry", "tired"}
	weatherOptions = []string{"sunny", "cloudy", "rainy", "snowy", "windy"}
)

func categoryOptions() []string {
	return []string{
		CategoryDiary.Tag(),
		CategoryMemory.Tag(),
		CategoryEvent.Tag(),
		CategoryLetter.Tag(),
	}
}

type requiredField struct {
	logical string
	typ     string
	options func() []string // enumerated fields only
}

// requiredFields is everything the app expects besides the intrinsic title
// property, which exists on every database and is never created or patched.
var requiredFields = []requiredField{
	{logical: fieldCategory, typ: "select", options: categoryOptions},
	{logical: fieldDate, typ: "date"},
	{logical: fieldPreview, typ: "rich_text"},
	{logical: fieldCover, typ: "files"},
	{logical: fieldMood, typ: "select", options: func() []string { return moodOptions }},
	{logical: fieldWeather, typ: "select", options: func() []string { return weatherOptions }},
	{logical: fieldAuthor, typ: "rich_text"},
	{logical: fieldAuthorID, typ: "rich_text"},
}

// SchemaStore is the slice of the upstream client the validator needs.
type SchemaStore interface {
	GetDatabase(ctx context.Context, token, databaseID string) (*notion.Database, error)
	UpdateDatabase(ctx context.Context, token, databaseID string, properties map[string]any) (*notion.Database, error)
}

// EnsureSchema reconciles the target database with the application's data
// model: absent fields are created under their canonical name, enumerated
// fields present under any alias get missing options appended. Existing
// options are never removed or reordered. A single patch call is issued only
// when something changed, so running this twice is a no-op the second time.
// Returns the names of fields created or extended.
func EnsureSchema(ctx context.Context, store SchemaStore, token, databaseID string) ([]string, error) {
	db, err := store.GetDatabase(ctx, token, databaseID)
	if err != nil {
		return nil, err
	}

	patch := map[string]any{}
	var changed []string

	for _, rf := range requiredFields {
		name, existing := findByAlias(db.Properties, rf.logical)
		if existing == nil {
			canonical := canonicalAlias(rf.logical)
			patch[canonical] = newFieldDefinition(rf)
			changed = append(changed, canonical)
			continue
		}
		if rf.options == nil || existing.Type != "select" {
			continue
		}
		missing := missingOptions(existing.Select, rf.options())
		if len(missing) == 0 {
			continue
		}
		// Existing options first, in their original order, then the
		// missing ones appended.
		merged := []notion.SelectOption{}
		if existing.Select != nil {
			merged = append(merged, existing.Select.Options...)
		}
		for _, opt := range missing {
			merged = append(merged, notion.SelectOption{Name: opt})
		}
		patch[name] = map[string]any{
			"select": map[string]any{"options": merged},
		}
		changed = append(changed, name)
	}

	if len(patch) == 0 {
		return []string{}, nil
	}
	if _, err := store.UpdateDatabase(ctx, token, databaseID, patch); err != nil {
		return nil, err
	}
	return changed, nil
}

func findByAlias(props map[string]notion.PropertySchema, logical string) (string, *notion.PropertySchema) {
	for _, alias := range fieldAliases[logical] {
		if p, ok := props[alias]; ok {
			return alias, &p
		}
	}
	return "", nil
}

func newFieldDefinition(rf requiredField) map[string]any {
	if rf.options != nil {
		opts := make([]notion.SelectOption, 0, len(rf.options()))
		for _, name := range rf.options() {
			opts = append(opts, notion.SelectOption{Name: name})
		}
		return map[string]any{rf.typ: map[string]any{"options": opts}}
	}
	return map[string]any{rf.typ: map[string]any{}}
}

func missingOptions(cfg *notion.SelectConfig, want []string) []string {
	have := map[string]struct{}{}
	if cfg != nil {
		for _, opt := range cfg.Options {
			have[opt.Name] = struct{}{}
		}
	}
	var missing []string
	for _, name := range want {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
