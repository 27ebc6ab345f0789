package workflow

import (
	"fmt"
	"strings"
)

// baselineNegatives is the fixed list of undesired qualities merged into
// every outbound instruction, matching the generation service's convention.
const baselineNegatives = "blurry, ugly, distorted, text, watermark, low quality, bad anatomy"

// BuildRequest assembles a generation request from the current session
// inputs. It is a pure function: identical inputs always yield an identical
// request. An all-whitespace prompt is a validation error.
func BuildRequest(prompt, negativePrompt string, aspect AspectRatio, source *SourceImage) (Request, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return Request{}, validationErr("prompt must not be empty")
	}

	mode := ModeCreate
	if source != nil {
		mode = ModeEdit
	}

	negativePrompt = strings.TrimSpace(negativePrompt)

	return Request{
		Mode:           mode,
		Prompt:         prompt,
		NegativePrompt: negativePrompt,
		AspectRatio:    aspect,
		Source:         source,
		Instruction:    composeInstruction(prompt, negativePrompt, aspect),
	}, nil
}

// composeInstruction concatenates the user prompt with the aspect-ratio
// boilerplate and the merged negative prompt, per the service convention.
func composeInstruction(prompt, negativePrompt string, aspect AspectRatio) string {
	negatives := baselineNegatives
	if negativePrompt != "" {
		negatives = negativePrompt + ", " + baselineNegatives
	}

	return fmt.Sprintf(
		"%s. Generate the image in a %s aspect ratio. Negative prompt: %s. "+
			"Ensure the resulting image is high quality and photorealistic.",
		prompt, aspect, negatives,
	)
}
