package notion

import "time"

type QueryRequest struct {
	Filter      map[string]any `json:"filter,omitempty"`
	Sorts       []Sort         `json:"sorts,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
}

type Sort struct {
	Property  string `json:"property,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Direction string `json:"direction"`
}

type QueryResponse struct {
	Results    []Page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

// Page is a Notion page with its property bag left as raw decoded JSON;
// property shapes vary per database so the mapper digs values out itself.
type Page struct {
	ID          string         `json:"id"`
	URL         string         `json:"url"`
	Archived    bool           `json:"archived"`
	CreatedTime time.Time      `json:"created_time"`
	Properties  map[string]any `json:"properties"`
}

type Parent struct {
	DatabaseID string `json:"database_id"`
}

type CreatePageRequest struct {
	Parent     Parent         `json:"parent"`
	Properties map[string]any `json:"properties"`
	Cover      map[string]any `json:"cover,omitempty"`
}

type UpdatePageRequest struct {
	Properties map[string]any `json:"properties,omitempty"`
	Archived   *bool          `json:"archived,omitempty"`
}

type SelectOption struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type SelectConfig struct {
	Options []SelectOption `json:"options"`
}

// PropertySchema is one property definition from a database object. Only the
// pieces the schema validator needs are decoded.
type PropertySchema struct {
	ID     string        `json:"id,omitempty"`
	Name   string        `json:"name,omitempty"`
	Type   string        `json:"type"`
	Select *SelectConfig `json:"select,omitempty"`
}

type Database struct {
	ID         string                    `json:"id"`
	URL        string                    `json:"url"`
	Title      []map[string]any          `json:"title"`
	Icon       map[string]any            `json:"icon,omitempty"`
	Properties map[string]PropertySchema `json:"properties,omitempty"`
}

// PlainTitle flattens the database title rich-text array to a plain string.
func (d *Database) PlainTitle() string {
	out := ""
	for _, span := range d.Title {
		if s, ok := span["plain_text"].(string); ok {
			out += s
		}
	}
	return out
}

// IconEmoji returns the emoji icon if the database has one.
func (d *Database) IconEmoji() string {
	if d.Icon == nil {
		return ""
	}
	if e, ok := d.Icon["emoji"].(string); ok {
		return e
	}
	return ""
}
