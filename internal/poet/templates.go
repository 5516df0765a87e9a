package poet

import (
	"fmt"
	"strings"
)

var encouragingPhrases = []string{
	"So close! The spirits stir — two truths of three lie bare before the veil.",
	"The raven tilts its head; it almost knows your voice. One secret yet eludes you.",
	"The chamber door creaks ajar. One more truth and it swings wide.",
}

var discouragingPhrases = []string{
	"The shadows keep their counsel. Nothing of yours do they recognise.",
	"Quoth the raven: nevermore. The crypt stays sealed to strangers.",
	"The bell tolls hollow for you, wanderer. These secrets are not yours to hold.",
}

func (p *Poet) fallbackPoem(answers []string) string {
	first := answerOr(answers, 0, "mystery")
	second := answerOr(answers, 1, "shadow")
	third := answerOr(answers, 2, "whisper")

	templates := []string{
		heredoc(`
			In the crypt where %[1]s lies entombed,
			A spectre haunts the midnight gloom.
			Through veils of %[2]s, shadows creep,
			While %[3]s guards the secrets deep.

			The raven's call echoes through the hall,
			As spectral figures rise and fall.
			Three clues hidden in the ancient tome,
			Lead to the heart of this haunted home.

			Beware the whispers in the dark,
			For they reveal the eternal mark.
			%[1]s, %[2]s, and %[3]s combined,
			Unlock the mysteries of the mind.`),
		heredoc(`
			In the realm where %[1]s dwells in shadowed halls,
			The ancient bell of %[2]s tolls and calls.
			Through corridors of %[3]s and stone,
			The spirits make their presence known.

			The wind carries whispers of the past,
			Where %[1]s, %[2]s, and %[3]s are cast.
			In this gothic tale of woe,
			The answers only the chosen know.

			The raven perches on the bust of Pallas,
			While %[1]s crumbles into dust.
			%[2]s and %[3]s dance in the night,
			Revealing secrets in pale moonlight.`),
		heredoc(`
			The Tell-Tale Heart beats beneath the floor,
			Where %[1]s lies forevermore.
			Through %[2]s's veil, the truth does creep,
			While %[3]s guards the secrets deep.

			The clock strikes thirteen in the tower,
			As darkness falls with spectral power.
			Three riddles wrapped in gothic verse,
			Each one a blessing, each a curse.

			In the crypt where memories dwell,
			The ancient bell begins to swell.
			In this gothic tale of woe,
			The answers only the chosen know.`),
	}

	return fmt.Sprintf(p.pick(templates), first, second, third)
}

func (p *Poet) fallbackCryptic(answers []string) string {
	first := answerOr(answers, 0, "mystery")
	second := answerOr(answers, 1, "shadow")
	third := answerOr(answers, 2, "whisper")

	templates := []string{
		"Beware, mortal soul! The answers you seek lie hidden in the shadows of %[1]s and %[2]s... " +
			"The raven's call echoes through the crypt of %[3]s, but will you understand its message?",
		"The spirits whisper of %[1]s and %[2]s in the midnight hour... In the realm of %[3]s your " +
			"truth awaits, but tread carefully through the gothic maze of secrets.",
		"Three clues lie before you in the haunted chamber: %[1]s, %[2]s, and %[3]s... The ancient " +
			"bell tolls, and the spectres dance in the pale moonlight.",
		"The clock strikes thirteen in the tower of %[1]s, as %[2]s and %[3]s weave their gothic " +
			"tale... The spirits know your secrets, but will you know theirs?",
	}

	return fmt.Sprintf(p.pick(templates), first, second, third)
}

// heredoc strips the leading tab indentation the template literals carry.
func heredoc(text string) string {
	lines := strings.Split(strings.TrimPrefix(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimLeft(line, "\t")
	}
	return strings.Join(lines, "\n")
}
