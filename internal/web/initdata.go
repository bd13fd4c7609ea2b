package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// InitDataHeader carries the raw initData string of the Telegram mini-app.
const InitDataHeader = "X-Telegram-Init-Data"

// initDataClockSkew bounds how far auth_date may run ahead of the server clock.
const initDataClockSkew = time.Minute

var (
	ErrInitDataMissing   = errors.New("init data missing")
	ErrInitDataSignature = errors.New("init data signature mismatch")
	ErrInitDataExpired   = errors.New("init data expired")
	ErrInitDataFuture    = errors.New("init data issued in the future")
)

// WebAppUser is the identity Telegram passes to the mini-app.
type WebAppUser struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Username  string `json:"username"`
}

// ValidateInitData checks the hash of raw against the bot token and
// returns the embedded user. A zero maxAge disables the freshness check;
// an auth_date ahead of now is always rejected.
func ValidateInitData(raw, token string, maxAge time.Duration, now time.Time) (WebAppUser, error) {
	if strings.TrimSpace(raw) == "" {
		return WebAppUser{}, ErrInitDataMissing
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return WebAppUser{}, fmt.Errorf("parse init data: %w", err)
	}

	hash := values.Get("hash")
	if hash == "" {
		return WebAppUser{}, ErrInitDataSignature
	}
	expected := signInitData(values, token)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(hash))) {
		return WebAppUser{}, ErrInitDataSignature
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return WebAppUser{}, fmt.Errorf("parse auth_date: %w", err)
	}
	issued := time.Unix(authDate, 0)
	if issued.After(now.Add(initDataClockSkew)) {
		return WebAppUser{}, ErrInitDataFuture
	}
	if maxAge > 0 && now.Sub(issued) > maxAge {
		return WebAppUser{}, ErrInitDataExpired
	}

	var user WebAppUser
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil {
		return WebAppUser{}, fmt.Errorf("parse user: %w", err)
	}
	if user.ID == 0 {
		return WebAppUser{}, fmt.Errorf("parse user: id is missing")
	}
	return user, nil
}

// signInitData computes the hex HMAC of the data-check string: every
// field except hash, sorted by key, joined as key=value lines.
func signInitData(values url.Values, token string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+"="+values.Get(key))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}
