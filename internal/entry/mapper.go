package entry

import (
	"time"

	"pairdiary/internal/notion"
)

// propsFromDraft maps a draft onto the upstream property bag under canonical
// aliases. Optional attributes missing from the draft are omitted entirely so
// the write never clobbers unrelated fields.
func propsFromDraft(d Draft, now time.Time) map[string]any {
	title := d.Title
	if title == "" {
		title = defaultTitle
	}
	date := d.Date
	if date == "" {
		date = now.Format(dateLayout)
	}

	props := map[string]any{
		canonicalAlias(fieldTitle):    notion.TitleProp(title),
		canonicalAlias(fieldDate):     notion.DateProp(date),
		canonicalAlias(fieldCategory): notion.SelectProp(d.Category.Tag()),
	}
	if d.Content != "" {
		props[canonicalAlias(fieldPreview)] = notion.RichTextProp(truncateRunes(d.Content, previewLimit))
	}
	if len(d.Images) > 0 {
		props[canonicalAlias(fieldCover)] = notion.FilesProp(title, d.Images)
	}
	if d.Mood != "" {
		props[canonicalAlias(fieldMood)] = notion.SelectProp(d.Mood)
	}
	if d.Weather != "" {
		props[canonicalAlias(fieldWeather)] = notion.SelectProp(d.Weather)
	}
	if d.Author != "" {
		props[canonicalAlias(fieldAuthor)] = notion.RichTextProp(d.Author)
	}
	if d.AuthorID != "" {
		props[canonicalAlias(fieldAuthorID)] = notion.RichTextProp(d.AuthorID)
	}
	return props
}

// minimalProps keeps only the non-optional core of a draft. Last resort of
// the create fallback ladder: losing mood/weather/authorship beats losing
// the entry.
func minimalProps(d Draft, now time.Time) map[string]any {
	title := d.Title
	if title == "" {
		title = defaultTitle
	}
	date := d.Date
	if date == "" {
		date = now.Format(dateLayout)
	}
	return map[string]any{
		canonicalAlias(fieldTitle):    notion.TitleProp(title),
		canonicalAlias(fieldDate):     notion.DateProp(date),
		canonicalAlias(fieldCategory): notion.SelectProp(d.Category.Tag()),
	}
}

// retitled returns a copy of props with the title value moved to alias.
func retitled(props map[string]any, alias string) map[string]any {
	out := make(map[string]any, len(props))
	title := props[canonicalAlias(fieldTitle)]
	for k, v := range props {
		if k == canonicalAlias(fieldTitle) {
			continue
		}
		out[k] = v
	}
	out[alias] = title
	return out
}

// propsFromPatch maps only supplied fields; omitted fields never appear in
// the bag. Empty select values are written as explicit nulls, which is how
// the upstream store clears a select.
func propsFromPatch(p Patch) map[string]any {
	props := map[string]any{}
	if p.Title != nil {
		title := *p.Title
		if title == "" {
			title = defaultTitle
		}
		props[canonicalAlias(fieldTitle)] = notion.TitleProp(title)
	}
	if p.Content != nil {
		props[canonicalAlias(fieldPreview)] = notion.RichTextProp(truncateRunes(*p.Content, previewLimit))
	}
	if p.Mood != nil {
		props[canonicalAlias(fieldMood)] = selectOrClear(*p.Mood)
	}
	if p.Weather != nil {
		props[canonicalAlias(fieldWeather)] = selectOrClear(*p.Weather)
	}
	if p.Date != nil && *p.Date != "" {
		props[canonicalAlias(fieldDate)] = notion.DateProp(*p.Date)
	}
	return props
}

func selectOrClear(name string) map[string]any {
	if name == "" {
		return map[string]any{"select": nil}
	}
	return notion.SelectProp(name)
}

// entryFromPage maps an upstream page back to an Entry, probing each
// attribute's aliases in priority order. First non-empty match wins;
// unmatched attributes get documented defaults.
func entryFromPage(page *notion.Page) Entry {
	e := Entry{
		ID:        page.ID,
		URL:       page.URL,
		Archived:  page.Archived,
		CreatedAt: page.CreatedTime,
	}

	e.Title = probeText(page.Properties, fieldTitle)
	if e.Title == "" {
		e.Title = defaultTitle
	}

	e.Category = DefaultCategory
	if tag := probeSelect(page.Properties, fieldCategory); tag != "" {
		e.Category = ParseCategory(tag)
	}

	e.Date = probeDate(page.Properties, fieldDate)
	if e.Date == "" && !page.CreatedTime.IsZero() {
		e.Date = page.CreatedTime.Format(dateLayout)
	}

	e.PreviewText = probeText(page.Properties, fieldPreview)
	e.Images = probeFiles(page.Properties, fieldCover)
	e.Mood = probeSelect(page.Properties, fieldMood)
	e.Weather = probeSelect(page.Properties, fieldWeather)

	e.Author = probeText(page.Properties, fieldAuthor)
	if e.Author == "" {
		e.Author = defaultAuthor
	}
	e.AuthorID = probeText(page.Properties, fieldAuthorID)

	return e
}

// CoverURL resolves the designated cover image: the first element of the
// images collection, or empty when there is none.
func (e Entry) CoverURL() string {
	if len(e.Images) == 0 {
		return ""
	}
	return e.Images[0]
}

func probeText(props map[string]any, field string) string {
	for _, alias := range fieldAliases[field] {
		if v, ok := props[alias]; ok {
			if text := notion.PlainText(v); text != "" {
				return text
			}
		}
	}
	return ""
}

func probeSelect(props map[string]any, field string) string {
	for _, alias := range fieldAliases[field] {
		if v, ok := props[alias]; ok {
			if name := notion.SelectName(v); name != "" {
				return name
			}
		}
	}
	return ""
}

func probeDate(props map[string]any, field string) string {
	for _, alias := range fieldAliases[field] {
		if v, ok := props[alias]; ok {
			if start := notion.DateStart(v); start != "" {
				return start
			}
		}
	}
	return ""
}

func probeFiles(props map[string]any, field string) []string {
	for _, alias := range fieldAliases[field] {
		if v, ok := props[alias]; ok {
			if urls := notion.FileURLs(v); len(urls) > 0 {
				return urls
			}
		}
	}
	return nil
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
