package smtp

import (
	"errors"
	"fmt"
	"io"
	"net/mail"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jhillyerd/enmime"
	"github.com/welldanyogia/voicemail-store/internal/validator"
)

// Deposit headers set by the voicemail application
const (
	HeaderCallerID        = "X-Caller-ID"
	HeaderDuration        = "X-Voicemail-Duration"
	HeaderOriginalMailbox = "X-Original-Mailbox"
)

// ErrNoRecording is returned when a deposit carries no audio part.
var ErrNoRecording = errors.New("deposit has no audio recording")

// ParsedVoicemail is a deposit reduced to what a Message stores.
type ParsedVoicemail struct {
	SenderEmail     string
	CallerID        *string
	Duration        string
	OriginalMailbox *int
	Date            time.Time
	Recording       ParsedRecording
}

// ParsedRecording is the audio part of a deposit
type ParsedRecording struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Size returns the recording length in bytes.
func (r ParsedRecording) Size() int64 {
	return int64(len(r.Content))
}

// audioExtensions maps content types without a file name to an extension.
var audioExtensions = map[string]string{
	"audio/wav":   ".wav",
	"audio/x-wav": ".wav",
	"audio/wave":  ".wav",
	"audio/gsm":   ".gsm",
	"audio/x-gsm": ".gsm",
	"audio/mpeg":  ".mp3",
	"audio/ogg":   ".ogg",
	"audio/opus":  ".opus",
	"audio/basic": ".ulaw",
	"audio/pcmu":  ".ulaw",
	"audio/pcma":  ".alaw",
	"audio/mp4":   ".m4a",
}

// ParseVoicemail parses a deposit. now supplies the date when the message has
// no usable Date header.
func ParseVoicemail(r io.Reader, now time.Time) (*ParsedVoicemail, error) {
	env, err := enmime.ReadEnvelope(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse deposit: %w", err)
	}

	rec, ok := firstAudioPart(env)
	if !ok {
		return nil, ErrNoRecording
	}

	name, senderEmail := parseFromHeader(env)
	parsed := &ParsedVoicemail{
		SenderEmail: senderEmail,
		Duration:    validator.SanitizeString(env.GetHeader(HeaderDuration), validator.MaxFieldLength),
		Date:        now,
		Recording:   rec,
	}

	callerID := validator.SanitizeString(env.GetHeader(HeaderCallerID), validator.MaxFieldLength)
	if callerID == "" {
		callerID = validator.SanitizeString(name, validator.MaxFieldLength)
	}
	if callerID != "" {
		parsed.CallerID = &callerID
	}

	if raw := strings.TrimSpace(env.GetHeader(HeaderOriginalMailbox)); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			parsed.OriginalMailbox = &n
		}
	}

	if raw := env.GetHeader("Date"); raw != "" {
		if d, err := mail.ParseDate(raw); err == nil {
			parsed.Date = d
		}
	}

	return parsed, nil
}

// firstAudioPart returns the first audio/* part, looking at attachments, then
// inlines, then any other part.
func firstAudioPart(env *enmime.Envelope) (ParsedRecording, bool) {
	groups := [][]*enmime.Part{env.Attachments, env.Inlines, env.OtherParts}
	for _, parts := range groups {
		for _, p := range parts {
			contentType := strings.ToLower(p.ContentType)
			if !strings.HasPrefix(contentType, "audio/") {
				continue
			}
			return ParsedRecording{
				Filename:    recordingFilename(p.FileName, contentType),
				ContentType: contentType,
				Content:     p.Content,
			}, true
		}
	}
	return ParsedRecording{}, false
}

func recordingFilename(filename, contentType string) string {
	filename = validator.SanitizeFilename(filename)
	if filename != "unnamed" && filepath.Ext(filename) != "" {
		return filename
	}
	if ext, ok := audioExtensions[contentType]; ok {
		return "recording" + ext
	}
	return filename
}

// parseFromHeader returns the display name and address of the first From
// address. A missing or unparsable header yields empty strings.
func parseFromHeader(env *enmime.Envelope) (name, email string) {
	addrs, err := env.AddressList("From")
	if err != nil || len(addrs) == 0 {
		return "", ""
	}
	return strings.TrimSpace(addrs[0].Name), addrs[0].Address
}
