package entry

import "time"

// Category classifies an entry. The stored tag value is the localized name
// the shared database uses; the enum stays stable across deployments.
type Category string

const (
	CategoryDiary  Category = "Diary"
	CategoryMemory Category = "Memory"
	CategoryEvent  Category = "Event"
	CategoryLetter Category = "Letter"
)

// DefaultCategory is used whenever a category cannot be recognized.
const DefaultCategory = CategoryDiary

// categoryTags maps each category to the tag value persisted upstream.
var categoryTags = map[Category]string{
	CategoryDiary:  "일기",
	CategoryMemory: "추억",
	CategoryEvent:  "일정",
	CategoryLetter: "편지",
}

var tagCategories = func() map[string]Category {
	m := make(map[string]Category, len(categoryTags))
	for c, tag := range categoryTags {
		m[tag] = c
	}
	return m
}()

// Tag returns the persisted tag value for c, falling back to the default
// category's tag for anything outside the closed set.
func (c Category) Tag() string {
	if tag, ok := categoryTags[c]; ok {
		return tag
	}
	return categoryTags[DefaultCategory]
}

// ParseCategory accepts the enum name (any case) or a stored tag value.
func ParseCategory(s string) Category {
	switch s {
	case "Diary", "diary":
		return CategoryDiary
	case "Memory", "memory":
		return CategoryMemory
	case "Event", "event":
		return CategoryEvent
	case "Letter", "letter":
		return CategoryLetter
	}
	if c, ok := tagCategories[s]; ok {
		return c
	}
	return DefaultCategory
}

const (
	// previewLimit bounds the persisted preview text, in runes.
	previewLimit = 1000

	defaultTitle  = "Untitled"
	defaultAuthor = "Partner"

	dateLayout = "2006-01-02"
)

// Entry is the canonical unit of content as seen by callers.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    Category  `json:"category"`
	Date        string    `json:"date"`
	PreviewText string    `json:"previewText"`
	Images      []string  `json:"images"`
	Mood        string    `json:"mood,omitempty"`
	Weather     string    `json:"weather,omitempty"`
	Author      string    `json:"author"`
	AuthorID    string    `json:"authorId,omitempty"`
	URL         string    `json:"url,omitempty"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Draft is the input to Create. Images may be plain URLs or embedded
// data URIs; the latter are uploaded to blob storage first.
type Draft struct {
	Title    string
	Content  string
	Category Category
	Date     string
	Mood     string
	Weather  string
	Images   []string
	Author   string
	AuthorID string
}

// Patch carries the fields of a partial update. Nil means "leave untouched";
// a pointer to the empty string clears the field where the upstream store
// supports clearing. The date is never cleared: every entry keeps one.
type Patch struct {
	Title   *string
	Content *string
	Mood    *string
	Weather *string
	Date    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Mood == nil && p.Weather == nil && p.Date == nil
}
