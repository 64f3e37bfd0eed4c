// Package media converts binary payloads to and from self-describing
// base64 data URLs (data:<mime>;base64,<payload>).
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNotDataURL is returned when a string does not follow the
	// data:<mime>;base64,<payload> form.
	ErrNotDataURL = errors.New("not a base64 data URL")

	// ErrNotImage is returned when a payload's MIME type is outside the
	// image/* family.
	ErrNotImage = errors.New("payload is not an image")
)

// knownAudioTypes are the container/codec combinations browsers commonly
// report for recorded audio. Types outside this set are still encoded and
// forwarded; the downstream model may accept them anyway.
var knownAudioTypes = map[string]bool{
	"audio/webm": true,
	"audio/ogg":  true,
	"audio/mp4":  true,
	"audio/mpeg": true,
	"audio/wav":  true,
}

// Encode wraps raw bytes in a data URL carrying the given MIME type.
func Encode(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Decode parses a data URL back into its MIME type and raw bytes.
func Decode(dataURL string) (string, []byte, error) {
	mimeType, payload, err := splitDataURL(dataURL)
	if err != nil {
		return "", nil, err
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: bad base64 payload: %v", ErrNotDataURL, err)
	}

	return mimeType, data, nil
}

// MIMEType returns the MIME type declared by a data URL without decoding the
// payload. The codecs suffix (e.g. "audio/webm;codecs=opus") is preserved.
func MIMEType(dataURL string) (string, error) {
	mimeType, _, err := splitDataURL(dataURL)
	return mimeType, err
}

// ValidateImage checks that a data URL is well formed and carries an image/*
// MIME type. This is caller-side validation, not an encoder failure.
func ValidateImage(dataURL string) error {
	mimeType, err := MIMEType(dataURL)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("%w: got %s", ErrNotImage, mimeType)
	}

	return nil
}

// CheckAudio logs a warning when a recorded audio payload declares a MIME
// type outside the known-good set. Validation is advisory only: unrecognized
// types are still forwarded, never rejected.
func CheckAudio(dataURL string, log *zap.Logger) {
	mimeType, err := MIMEType(dataURL)
	if err != nil {
		log.Warn("audio payload is not a well-formed data URL", zap.Error(err))
		return
	}

	base, _, _ := strings.Cut(mimeType, ";")
	if !knownAudioTypes[base] {
		log.Warn("unrecognized audio MIME type, forwarding anyway",
			zap.String("mime_type", mimeType),
		)
	}
}

func splitDataURL(dataURL string) (string, string, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", "", fmt.Errorf("%w: missing data: prefix", ErrNotDataURL)
	}

	mimeType, payload, ok := strings.Cut(rest, ";base64,")
	if !ok || mimeType == "" {
		return "", "", fmt.Errorf("%w: missing ;base64, separator", ErrNotDataURL)
	}

	return mimeType, payload, nil
}
