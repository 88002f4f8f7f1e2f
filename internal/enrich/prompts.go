package enrich

import "fmt"

// The haiku prompt is generic on purpose: the artifact pairs every album
// with a small seasonal verse rather than an album-specific one.
const haikuPrompt = "Write a haiku about listening to a beloved record on a quiet evening. " +
	"Use exactly three lines in 5-7-5 syllable form. Do not number the lines. " +
	"Respond with the haiku only, nothing else."

const fallbackDescription = "No description is available for this album right now."

const fallbackHaiku = "Silent turntable\n" +
	"the needle waits in the groove\n" +
	"music sleeps tonight"

func descriptionPrompt(title, artist string, maxWords int) string {
	return fmt.Sprintf(
		"Write a short description of the album %q by %s in at most %d words. "+
			"Use a single language throughout. Do not use dialogue or questions. "+
			"Respond with the description only, nothing else.",
		title, artist, maxWords,
	)
}
