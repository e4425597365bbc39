package entry

// Logical attribute names. The same alias table drives both mapper
// directions and the create fallback ladder, so schema drift tolerance is
// configured in exactly one place.
const (
	fieldTitle    = "title"
	fieldDate     = "date"
	fieldCategory = "category"
	fieldPreview  = "preview"
	fieldCover    = "cover"
	fieldMood     = "mood"
	fieldWeather  = "weather"
	fieldAuthor   = "author"
	fieldAuthorID = "authorId"
)

// fieldAliases maps a logical attribute to its possible physical property
// names, most preferred first. The first alias is canonical: writes always
// use it; reads probe the list in order. Later aliases cover databases
// created by older app generations and localized deployments.
var fieldAliases = map[string][]string{
	fieldTitle:    {"Name", "이름", "제목", "Title"},
	fieldDate:     {"Date", "날짜"},
	fieldCategory: {"Category", "분류", "태그"},
	fieldPreview:  {"Preview", "미리보기", "Content"},
	fieldCover:    {"Cover", "커버", "Image"},
	fieldMood:     {"Mood", "기분"},
	fieldWeather:  {"Weather", "날씨"},
	fieldAuthor:   {"Author", "작성자"},
	fieldAuthorID: {"AuthorID", "작성자ID"},
}

// canonicalAlias is the property name writes target.
func canonicalAlias(field string) string {
	return fieldAliases[field][0]
}

// titleFallbackAliases are the alternates tried, in order, when a create is
// rejected for the shape of the title property.
func titleFallbackAliases() []string {
	return fieldAliases[fieldTitle][1:]
}
