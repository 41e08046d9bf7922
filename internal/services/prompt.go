package services

import (
	"fmt"
	"strings"
)

// artisticEnhancements is the fixed vocabulary of style descriptors a random
// subset of which gets appended to every provider prompt.
var artisticEnhancements = []string{
	"dreamlike",
	"surreal",
	"ethereal",
	"mystical",
	"cinematic lighting",
	"soft focus",
	"vibrant colors",
	"fantasy art style",
	"digital painting",
	"highly detailed",
	"atmospheric",
	"magical realism",
}

const enhancementCount = 4

const promptSuffix = "dream sequence, subconscious imagery, symbolic elements, beautiful composition, award-winning digital art"

// EnhanceDreamPrompt decorates the literal dream text with a random selection
// of artistic descriptors plus the constant composition suffix. The same
// input text yields different prompts across calls unless rng is fixed.
func EnhanceDreamPrompt(rng Rand, dreamDescription string) string {
	order := rng.Perm(len(artisticEnhancements))
	picked := make([]string, 0, enhancementCount)
	for _, i := range order[:enhancementCount] {
		picked = append(picked, artisticEnhancements[i])
	}
	return fmt.Sprintf("%s, %s, %s", dreamDescription, strings.Join(picked, ", "), promptSuffix)
}
