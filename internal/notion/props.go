package notion

// Builders for page property values. Each returns the JSON shape the API
// expects for one property of the given type.

func TitleProp(text string) map[string]any {
	return map[string]any{
		"title": []any{
			map[string]any{"text": map[string]any{"content": text}},
		},
	}
}

func RichTextProp(text string) map[string]any {
	return map[string]any{
		"rich_text": []any{
			map[string]any{"text": map[string]any{"content": text}},
		},
	}
}

func SelectProp(name string) map[string]any {
	return map[string]any{
		"select": map[string]any{"name": name},
	}
}

func DateProp(start string) map[string]any {
	return map[string]any{
		"date": map[string]any{"start": start},
	}
}

// FilesProp builds a files property of externally hosted URLs.
func FilesProp(name string, urls []string) map[string]any {
	items := make([]any, 0, len(urls))
	for _, u := range urls {
		items = append(items, map[string]any{
			"name":     name,
			"type":     "external",
			"external": map[string]any{"url": u},
		})
	}
	return map[string]any{"files": items}
}

func ExternalCover(url string) map[string]any {
	return map[string]any{
		"type":     "external",
		"external": map[string]any{"url": url},
	}
}

// Extractors for property values decoded as raw JSON. Each tolerates a
// missing or differently-typed property and returns the zero value.

// PlainText joins the plain_text spans of a title or rich_text property.
func PlainText(prop any) string {
	m, ok := prop.(map[string]any)
	if !ok {
		return ""
	}
	spans, ok := m["title"].([]any)
	if !ok {
		spans, ok = m["rich_text"].([]any)
		if !ok {
			return ""
		}
	}
	out := ""
	for _, s := range spans {
		span, ok := s.(map[string]any)
		if !ok {
			continue
		}
		if t, ok := span["plain_text"].(string); ok {
			out += t
			continue
		}
		// Outgoing shape round-trip: text.content instead of plain_text.
		if text, ok := span["text"].(map[string]any); ok {
			if c, ok := text["content"].(string); ok {
				out += c
			}
		}
	}
	return out
}

func SelectName(prop any) string {
	m, ok := prop.(map[string]any)
	if !ok {
		return ""
	}
	sel, ok := m["select"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := sel["name"].(string)
	return name
}

func DateStart(prop any) string {
	m, ok := prop.(map[string]any)
	if !ok {
		return ""
	}
	d, ok := m["date"].(map[string]any)
	if !ok {
		return ""
	}
	start, _ := d["start"].(string)
	return start
}

// FileURLs resolves a files property to plain URL strings, handling both
// externally hosted files and Notion-internal uploads.
func FileURLs(prop any) []string {
	m, ok := prop.(map[string]any)
	if !ok {
		return nil
	}
	items, ok := m["files"].([]any)
	if !ok {
		return nil
	}
	var urls []string
	for _, it := range items {
		f, ok := it.(map[string]any)
		if !ok {
			continue
		}
		if ext, ok := f["external"].(map[string]any); ok {
			if u, ok := ext["url"].(string); ok && u != "" {
				urls = append(urls, u)
				continue
			}
		}
		if internal, ok := f["file"].(map[string]any); ok {
			if u, ok := internal["url"].(string); ok && u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls
}
