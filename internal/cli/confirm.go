package cli

import (
	"bufio"
	"errors"
	"strings"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"
)

// Confirm asks the user to approve a destructive action. With gui set it
// shows a native question dialog; otherwise (or when the dialog fails) it
// asks on the terminal and requires an explicit yes.
func Confirm(reader *bufio.Reader, question string, gui bool) bool {
	if gui {
		err := zenity.Question(question,
			zenity.Title("canvas-cli"),
			zenity.WarningIcon,
		)
		if err == nil {
			return true
		}
		if errors.Is(err, zenity.ErrCanceled) {
			return false
		}
		log.Warn().Err(err).Msg("Native dialog failed; falling back to terminal confirmation")
	}

	// An exhausted reader counts as declining.
	line, _ := PromptLine(reader, question+" [y/N]: ")
	answer := strings.ToLower(line)
	return answer == "y" || answer == "yes"
}

// PickImageFile opens a native file picker filtered to images. A canceled
// dialog returns an empty path and no error.
func PickImageFile() (string, error) {
	selected, err := zenity.SelectFile(
		zenity.Title("Select source image"),
		zenity.FileFilters{
			{
				Name:     "Images",
				Patterns: []string{"*.jpg", "*.jpeg", "*.png", "*.gif", "*.webp"},
			},
		},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return "", nil
		}
		log.Error().Err(err).Msg("File picker failed")
		return "", err
	}
	return selected, nil
}
