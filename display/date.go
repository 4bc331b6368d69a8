package display

import (
	"time"

	"golang.org/x/text/language"
)

type dateLayout struct {
	tag    language.Tag
	layout string
}

// Numeric short date layouts, the way browsers render a locale date string.
var dateLayouts = []dateLayout{
	{language.AmericanEnglish, "1/2/2006"},
	{language.BritishEnglish, "02/01/2006"},
	{language.German, "2.1.2006"},
	{language.French, "02/01/2006"},
	{language.Spanish, "2/1/2006"},
	{language.Italian, "2/1/2006"},
	{language.Dutch, "2-1-2006"},
	{language.Japanese, "2006/1/2"},
	{language.Chinese, "2006/1/2"},
	{language.Swedish, "2006-01-02"},
}

var dateMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(dateLayouts))
	for i, l := range dateLayouts {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// DateFormatter renders the calendar date of a daily forecast entry.
type DateFormatter struct {
	layout string
}

// NewDateFormatter picks the closest supported layout for a BCP 47 tag. An
// unparseable or unsupported tag gets the en-US layout.
func NewDateFormatter(locale string) DateFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		return DateFormatter{layout: dateLayouts[0].layout}
	}
	_, index, confidence := dateMatcher.Match(tag)
	if confidence == language.No {
		index = 0
	}
	return DateFormatter{layout: dateLayouts[index].layout}
}

// Format prints the date in UTC; day instants already carry the location's
// UTC offset.
func (f DateFormatter) Format(t time.Time) string {
	layout := f.layout
	if layout == "" {
		layout = dateLayouts[0].layout
	}
	return t.UTC().Format(layout)
}
