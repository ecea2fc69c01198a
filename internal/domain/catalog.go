package domain

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MusicStyle selects the genre of the generated song.
type MusicStyle string

const (
	MusicStyleUpbeatPop    MusicStyle = "upbeat_pop"
	MusicStyleAcousticFolk MusicStyle = "acoustic_folk"
	MusicStyleSmoothJazz   MusicStyle = "smooth_jazz"
	MusicStyleEDM          MusicStyle = "edm"
	MusicStyleRnBSoul      MusicStyle = "rnb_soul"
	MusicStyleClassicRock  MusicStyle = "classic_rock"
	MusicStyleHipHop       MusicStyle = "hip_hop"
	MusicStyleClassical    MusicStyle = "classical"
)

// StyleConfig describes a music style and the tag string sent to the song
// provider.
type StyleConfig struct {
	Name string
	Icon string
	Tags string
}

// FallbackStyleTags is used when a card carries an unrecognized style.
const FallbackStyleTags = "upbeat pop, birthday song, celebratory"

var musicStyles = map[MusicStyle]StyleConfig{
	MusicStyleUpbeatPop:    {Name: "Upbeat Pop", Icon: "🎉", Tags: "upbeat pop, catchy melody, happy vocals, birthday celebration, energetic, fun"},
	MusicStyleAcousticFolk: {Name: "Acoustic Folk", Icon: "🎸", Tags: "acoustic folk, warm vocals, guitar, heartfelt, birthday song, intimate"},
	MusicStyleSmoothJazz:   {Name: "Smooth Jazz", Icon: "🎷", Tags: "smooth jazz, saxophone, piano, sophisticated, birthday celebration, elegant"},
	MusicStyleEDM:          {Name: "EDM", Icon: "🎧", Tags: "edm, electronic dance, energetic drops, birthday anthem, party vibes"},
	MusicStyleRnBSoul:      {Name: "R&B Soul", Icon: "💜", Tags: "r&b soul, smooth vocals, emotional, birthday ballad, soulful"},
	MusicStyleClassicRock:  {Name: "Classic Rock", Icon: "🎤", Tags: "classic rock, electric guitar, powerful vocals, birthday rock anthem"},
	MusicStyleHipHop:       {Name: "Hip Hop", Icon: "🎤", Tags: "hip hop, rhythmic flow, birthday rap, celebration beat, uplifting"},
	MusicStyleClassical:    {Name: "Classical", Icon: "🎻", Tags: "classical, orchestral, elegant, birthday waltz, sophisticated melody"},
}

// Valid reports whether s is a known style.
func (s MusicStyle) Valid() bool {
	_, ok := musicStyles[s]
	return ok
}

// Config returns the catalog entry for s and whether it exists.
func (s MusicStyle) Config() (StyleConfig, bool) {
	c, ok := musicStyles[s]
	return c, ok
}

// StyleTags resolves the provider tag string for s, falling back to a generic
// upbeat set for unknown styles.
func StyleTags(s MusicStyle) string {
	if c, ok := musicStyles[s]; ok {
		return c.Tags
	}
	return FallbackStyleTags
}

// MusicStyles lists the known style identifiers.
func MusicStyles() []string {
	return []string{
		string(MusicStyleUpbeatPop), string(MusicStyleAcousticFolk), string(MusicStyleSmoothJazz),
		string(MusicStyleEDM), string(MusicStyleRnBSoul), string(MusicStyleClassicRock),
		string(MusicStyleHipHop), string(MusicStyleClassical),
	}
}

// ThemeID selects the visual card theme. Rendering happens client-side; the
// backend only validates and stores the identifier.
type ThemeID string

var themeIDs = []ThemeID{
	"classic", "modern", "playful", "elegant", "retro",
	"nature", "neon", "minimalist", "cosmic", "watercolor",
}

// Valid reports whether t is a known theme.
func (t ThemeID) Valid() bool {
	for _, v := range themeIDs {
		if v == t {
			return true
		}
	}
	return false
}

// ThemeIDs lists the known theme identifiers.
func ThemeIDs() []string {
	out := make([]string, len(themeIDs))
	for i, t := range themeIDs {
		out[i] = string(t)
	}
	return out
}

// Occasion is the event a card celebrates.
type Occasion string

const (
	OccasionBirthday        Occasion = "birthday"
	OccasionAnniversary     Occasion = "anniversary"
	OccasionGraduation      Occasion = "graduation"
	OccasionThankYou        Occasion = "thank_you"
	OccasionCongratulations Occasion = "congratulations"
	OccasionGetWell         Occasion = "get_well"
)

// DefaultOccasion applies when a card does not specify one.
const DefaultOccasion = OccasionBirthday

// OccasionConfig holds display metadata for an occasion.
type OccasionConfig struct {
	Name  string
	Emoji string
	// Greeting prefixes the song title, e.g. "Happy Birthday".
	Greeting string
}

var occasions = map[Occasion]OccasionConfig{
	OccasionBirthday:        {Name: "Birthday", Emoji: "🎂", Greeting: "Happy Birthday"},
	OccasionAnniversary:     {Name: "Anniversary", Emoji: "💕", Greeting: "Happy Anniversary"},
	OccasionGraduation:      {Name: "Graduation", Emoji: "🎓", Greeting: "Happy Graduation"},
	OccasionThankYou:        {Name: "Thank You", Emoji: "🙏", Greeting: "Thank You"},
	OccasionCongratulations: {Name: "Congratulations", Emoji: "🎉", Greeting: "Congratulations"},
	OccasionGetWell:         {Name: "Get Well", Emoji: "💐", Greeting: "Get Well Soon"},
}

// Valid reports whether o is a known occasion.
func (o Occasion) Valid() bool {
	_, ok := occasions[o]
	return ok
}

// Config returns the catalog entry for o, falling back to the birthday entry
// for empty or unknown values.
func (o Occasion) Config() OccasionConfig {
	if c, ok := occasions[o]; ok {
		return c
	}
	return occasions[DefaultOccasion]
}

// OrDefault returns o, or DefaultOccasion when o is empty or unknown.
func (o Occasion) OrDefault() Occasion {
	if o.Valid() {
		return o
	}
	return DefaultOccasion
}

// Occasions lists the known occasion identifiers.
func Occasions() []string {
	return []string{
		string(OccasionBirthday), string(OccasionAnniversary), string(OccasionGraduation),
		string(OccasionThankYou), string(OccasionCongratulations), string(OccasionGetWell),
	}
}

var titleCaser = cases.Title(language.English)

// SongTitle builds the provider-facing song title, e.g. "Happy Birthday Sam".
func SongTitle(o Occasion, recipientName string) string {
	name := strings.TrimSpace(recipientName)
	greeting := o.Config().Greeting
	if name == "" {
		return greeting
	}
	return greeting + " " + titleCaser.String(name)
}

// EmailSubject builds the notification subject line, e.g.
// "🎂 Alex sent you a birthday song!".
func EmailSubject(o Occasion, senderName string) string {
	c := o.Config()
	return fmt.Sprintf("%s %s sent you a %s song!", c.Emoji, strings.TrimSpace(senderName), strings.ToLower(c.Name))
}
