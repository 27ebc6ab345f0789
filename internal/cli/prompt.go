// Package cli holds the small interaction helpers for the terminal session:
// line prompts, destructive-action confirmation, and the native file picker.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
)

// PromptLine prints a prompt and reads one line, trimmed of whitespace.
// ok is false once the reader is exhausted (closed stdin, Ctrl-D) and no
// further input will ever arrive; a final line without a trailing newline
// is still returned with ok true.
func PromptLine(reader *bufio.Reader, prompt string) (line string, ok bool) {
	fmt.Print(prompt)

	input, err := reader.ReadString('\n')
	if err != nil {
		if input == "" {
			if err != io.EOF {
				log.Warn().Err(err).Msg("Failed to read input")
			}
			return "", false
		}
	}

	return strings.TrimSpace(input), true
}
