// Package dataurl composes and decomposes base64 data URLs of the form
// data:<mediaType>;base64,<payload>. Every generated image travels through
// this representation: the generation service's response is encoded into a
// data URL for display and history, and the extend workflow decomposes that
// same URL back into raw payload and media type.
package dataurl

import (
	"fmt"
	"strings"
)

const scheme = "data:"

// Encode builds a displayable data URL from a media type and a base64 payload.
func Encode(mediaType, encoded string) string {
	return scheme + mediaType + ";base64," + encoded
}

// Decompose splits a data URL into its media type and base64 payload.
// The delimiter between header and payload is the first comma; the media
// type is the text between "data:" and the first semicolon in the header.
// A missing comma, a missing data: prefix, or an empty media type is a
// format error.
func Decompose(ref string) (mediaType, encoded string, err error) {
	header, payload, found := strings.Cut(ref, ",")
	if !found {
		return "", "", fmt.Errorf("image reference has no payload delimiter")
	}

	if !strings.HasPrefix(header, scheme) {
		return "", "", fmt.Errorf("image reference is not a data URL")
	}

	mediaType, _, found = strings.Cut(strings.TrimPrefix(header, scheme), ";")
	if !found || mediaType == "" {
		return "", "", fmt.Errorf("image reference has no media type header")
	}

	return mediaType, payload, nil
}
