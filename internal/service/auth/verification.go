package auth

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ybilyk/contactbook/internal/mail"
)

// newVerificationCode returns an unguessable single-use code.
func newVerificationCode() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// gravatarURL derives the default avatar for an email address.
func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?d=retro", hex.EncodeToString(sum[:]))
}

func verificationEmail(baseURL, to, code string) mail.Message {
	link := strings.TrimRight(baseURL, "/") + "/auth/verify/" + code
	return mail.Message{
		To:      to,
		Subject: "Verify your email",
		HTML:    fmt.Sprintf(`<p>Welcome to contactbook!</p><p><a href=%q>Click here to verify your email</a></p>`, link),
	}
}
