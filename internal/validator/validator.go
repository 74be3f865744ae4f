// Package validator provides input validation and sanitization for the
// voicemail admin API and deposit gateway.
package validator

import (
	"errors"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidRecipient     = errors.New("invalid recipient format")
	ErrInvalidDomain        = errors.New("invalid domain format")
	ErrInvalidMailboxNumber = errors.New("invalid mailbox number format")
	ErrInvalidDTMF          = errors.New("dtmf must be a single digit 0-9")
	ErrInvalidConfigKey     = errors.New("invalid config key format")
	ErrInputTooLong         = errors.New("input exceeds maximum length")
	ErrEmptyInput           = errors.New("input cannot be empty")
)

// MaxFieldLength is the width of the string columns.
const MaxFieldLength = 255

var (
	// Domain regex: allows lowercase alphanumeric, hyphens, and dots
	// Must start and end with alphanumeric, labels max 63 chars
	domainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

	// Mailbox numbers are dialable: digits, optionally with * or #
	mailboxNumberRegex = regexp.MustCompile(`^[0-9*#]{1,80}$`)

	configKeyRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)
)

// ValidateDomain validates a context domain against DNS naming rules.
func ValidateDomain(domain string) error {
	domain = strings.TrimSpace(strings.ToLower(domain))

	if domain == "" {
		return ErrEmptyInput
	}

	// RFC 1035 specifies max domain length of 253 characters
	if len(domain) > 253 {
		return ErrInputTooLong
	}

	if !domainRegex.MatchString(domain) {
		return ErrInvalidDomain
	}

	return nil
}

// ValidateMailboxNumber validates a mailbox number.
func ValidateMailboxNumber(number string) error {
	number = strings.TrimSpace(number)

	if number == "" {
		return ErrEmptyInput
	}
	if !mailboxNumberRegex.MatchString(number) {
		return ErrInvalidMailboxNumber
	}
	return nil
}

// ParseDTMF parses a folder selection digit.
func ParseDTMF(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyInput
	}
	d, err := strconv.Atoi(s)
	if err != nil || len(s) != 1 {
		return 0, ErrInvalidDTMF
	}
	return d, ValidateDTMF(d)
}

// ValidateDTMF checks a folder selection digit.
func ValidateDTMF(d int) error {
	if d < 0 || d > 9 {
		return ErrInvalidDTMF
	}
	return nil
}

// ValidateConfigKey validates a context or mailbox configuration key.
func ValidateConfigKey(key string) error {
	if key == "" {
		return ErrEmptyInput
	}
	if utf8.RuneCountInString(key) > MaxFieldLength {
		return ErrInputTooLong
	}
	if !configKeyRegex.MatchString(key) {
		return ErrInvalidConfigKey
	}
	return nil
}

// ParseRecipient splits a deposit recipient of the form number@domain.
// The domain is returned lowercased.
func ParseRecipient(addr string) (number, domain string, err error) {
	parsed, err := mail.ParseAddress(strings.TrimSpace(addr))
	if err != nil {
		return "", "", ErrInvalidRecipient
	}

	at := strings.LastIndex(parsed.Address, "@")
	if at <= 0 {
		return "", "", ErrInvalidRecipient
	}
	number = parsed.Address[:at]
	domain = strings.ToLower(parsed.Address[at+1:])

	if err := ValidateMailboxNumber(number); err != nil {
		return "", "", err
	}
	if err := ValidateDomain(domain); err != nil {
		return "", "", err
	}
	return number, domain, nil
}

// SanitizeFilename removes dangerous characters from filename.
// Prevents path traversal and removes control characters.
func SanitizeFilename(filename string) string {
	// Remove path separators to prevent path traversal
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")

	filename = SanitizeString(filename, MaxFieldLength)

	if filename == "" {
		return "unnamed"
	}
	return filename
}

// SanitizeString removes control characters, trims whitespace and enforces
// maxLength when it is positive.
func SanitizeString(input string, maxLength int) string {
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	input = strings.TrimSpace(input)

	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}
