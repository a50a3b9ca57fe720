package domain

import (
	"time"

	"golang.org/x/text/language"
)

// Topic is static category metadata shown next to a question.
type Topic struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// DefaultIcon is shown for questions whose topic is not one of Topics.
const DefaultIcon = "🧠"

// Topics are the six question categories drawn from each round.
var Topics = []Topic{
	{ID: "historia", Name: "História", Icon: "📚"},
	{ID: "cinema", Name: "Cinema", Icon: "🎬"},
	{ID: "esportes", Name: "Esportes", Icon: "⚽"},
	{ID: "geografia", Name: "Geografia", Icon: "🌍"},
	{ID: "cultura-pop", Name: "Cultura Pop", Icon: "🎵"},
	{ID: "ciencia", Name: "Ciência", Icon: "🔬"},
}

// TopicIcon returns the icon for a topic name, or DefaultIcon.
func TopicIcon(name string) string {
	for _, t := range Topics {
		if t.Name == name {
			return t.Icon
		}
	}
	return DefaultIcon
}

// DefaultLocale matches the locale the leaderboard dates were first written in.
const DefaultLocale = "pt-BR"

var (
	dateTags = []language.Tag{
		language.BrazilianPortuguese,
		language.AmericanEnglish,
		language.BritishEnglish,
		language.German,
		language.Japanese,
	}
	dateLayouts = []string{
		"02/01/2006",
		"1/2/2006",
		"02/01/2006",
		"2.1.2006",
		"2006/1/2",
	}
	dateMatcher = language.NewMatcher(dateTags)
)

// DateLabel formats t as a short date for the given BCP 47 locale.
// Unknown or malformed locales fall back to DefaultLocale.
func DateLabel(t time.Time, locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.BrazilianPortuguese
	}
	_, idx, _ := dateMatcher.Match(tag)
	return t.Format(dateLayouts[idx])
}
