package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode/utf8"
)

const basicPrefix = "Basic "

var (
	ErrNotBasic             = errors.New("authorization header is not basic")
	ErrInvalidBase64        = errors.New("invalid base64 credentials")
	ErrMalformedCredentials = errors.New("credentials are not email:password")
)

// ExtractBase64 returns the encoded part of a Basic authorization header
func ExtractBase64(header string) (string, error) {
	encoded, ok := strings.CutPrefix(header, basicPrefix)
	if !ok {
		return "", ErrNotBasic
	}
	return encoded, nil
}

// DecodeBase64 decodes standard base64 into UTF-8 text
func DecodeBase64(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || !utf8.Valid(raw) {
		return "", ErrInvalidBase64
	}
	return string(raw), nil
}

// ExtractCredentials splits decoded credentials on the first colon, so the
// password itself may contain colons
func ExtractCredentials(decoded string) (email, password string, err error) {
	email, password, ok := strings.Cut(decoded, ":")
	if !ok {
		return "", "", ErrMalformedCredentials
	}
	return email, password, nil
}

// EncodeBasic builds an Authorization header value for email and password
func EncodeBasic(email, password string) string {
	return basicPrefix + base64.StdEncoding.EncodeToString([]byte(email+":"+password))
}
