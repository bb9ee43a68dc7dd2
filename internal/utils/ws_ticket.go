package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// Browser WebSocket clients cannot send an Authorization header, so the feed
// handshake uses a short-lived HMAC ticket minted over the authenticated API.

func base64UrlEncode(input []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(input), "=")
}

func base64UrlDecode(input string) ([]byte, error) {
	padded := input
	if m := len(input) % 4; m != 0 {
		padded += strings.Repeat("=", 4-m)
	}
	return base64.URLEncoding.DecodeString(padded)
}

func CreateWSTicket(secret string, userID int64, role string, ttl time.Duration) string {
	expires := time.Now().Add(ttl).Unix()
	payload := strconv.FormatInt(userID, 10) + ":" + role + ":" + strconv.FormatInt(expires, 10)
	payloadB64 := base64UrlEncode([]byte(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payloadB64))
	sig := mac.Sum(nil)
	return payloadB64 + "." + base64UrlEncode(sig)
}

// VerifyWSTicket returns the user ID and role embedded in a valid, unexpired
// ticket.
func VerifyWSTicket(secret string, ticket string) (int64, string, bool) {
	parts := strings.Split(ticket, ".")
	if len(parts) != 2 {
		return 0, "", false
	}
	payloadB64 := parts[0]

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payloadB64))
	expected := mac.Sum(nil)

	actual, err := base64UrlDecode(parts[1])
	if err != nil || len(actual) != len(expected) || !hmac.Equal(actual, expected) {
		return 0, "", false
	}

	payloadRaw, err := base64UrlDecode(payloadB64)
	if err != nil {
		return 0, "", false
	}
	fields := strings.Split(string(payloadRaw), ":")
	if len(fields) != 3 {
		return 0, "", false
	}
	userID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, "", false
	}
	expires, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil || time.Now().Unix() > expires {
		return 0, "", false
	}
	return userID, fields[1], true
}
