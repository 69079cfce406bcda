package invite

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long an invitation link stays valid after it is issued.
const DefaultTTL = 24 * time.Hour

// QueryParam is the query-string key carrying the encoded token in an invitation URL.
const QueryParam = "invitation"

// Token binds an assessment session to a specific candidate and role.
type Token struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	RoleID    string    `json:"role_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether now is strictly after the token's expiry.
func (t Token) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// DecodeError is returned for any serialized token that cannot be turned back into a Token.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid invitation token: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid invitation token: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var ErrMissingField = errors.New("name, phone and role are required")

// wire is the compact payload carried in the URL.
type wire struct {
	ID  string `json:"id"`
	N   string `json:"n"`
	P   string `json:"p"`
	R   string `json:"r"`
	Exp int64  `json:"exp"`
}

type Codec struct {
	now   func() time.Time
	newID func() string
}

func NewCodec() *Codec {
	return &Codec{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// NewCodecWithClock is used where issue time must be controlled.
func NewCodecWithClock(now func() time.Time) *Codec {
	c := NewCodec()
	if now != nil {
		c.now = now
	}
	return c
}

// Issue creates a fresh token and returns it together with its URL-safe encoding.
// The payload is only obfuscated, anyone holding the string can read it.
func (c *Codec) Issue(name, phone, roleID string, ttl time.Duration) (Token, string, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	roleID = strings.TrimSpace(roleID)
	if name == "" || phone == "" || roleID == "" {
		return Token{}, "", ErrMissingField
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	// expiry travels as unix millis, so keep the in-memory value at the same precision
	token := Token{
		ID:        c.newID(),
		Name:      name,
		Phone:     phone,
		RoleID:    roleID,
		ExpiresAt: time.UnixMilli(c.now().Add(ttl).UnixMilli()),
	}

	encoded, err := Encode(token)
	if err != nil {
		return Token{}, "", err
	}
	return token, encoded, nil
}

func Encode(t Token) (string, error) {
	payload, err := json.Marshal(wire{
		ID:  t.ID,
		N:   t.Name,
		P:   t.Phone,
		R:   t.RoleID,
		Exp: t.ExpiresAt.UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("encode invitation token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

// Decode reverses Encode. Standard and URL-safe alphabets are both accepted, with or
// without padding, since links pass through messaging apps that may rewrite them.
func (c *Codec) Decode(serialized string) (Token, error) {
	return Decode(serialized)
}

func Decode(serialized string) (Token, error) {
	serialized = strings.TrimSpace(serialized)
	if serialized == "" {
		return Token{}, &DecodeError{Reason: "empty token"}
	}

	raw, err := decodeBase64(serialized)
	if err != nil {
		return Token{}, &DecodeError{Reason: "bad encoding", Err: err}
	}

	var w wire
	if err := json.Unmarshal(raw, &w); err != nil {
		return Token{}, &DecodeError{Reason: "bad payload", Err: err}
	}

	var missing []string
	if strings.TrimSpace(w.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(w.N) == "" {
		missing = append(missing, "n")
	}
	if strings.TrimSpace(w.P) == "" {
		missing = append(missing, "p")
	}
	if strings.TrimSpace(w.R) == "" {
		missing = append(missing, "r")
	}
	if w.Exp <= 0 {
		missing = append(missing, "exp")
	}
	if len(missing) > 0 {
		return Token{}, &DecodeError{Reason: "missing fields " + strings.Join(missing, ",")}
	}

	return Token{
		ID:        w.ID,
		Name:      w.N,
		Phone:     w.P,
		RoleID:    w.R,
		ExpiresAt: time.UnixMilli(w.Exp),
	}, nil
}

func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if strings.ContainsAny(s, "+/") {
		return base64.RawStdEncoding.DecodeString(s)
	}
	return base64.RawURLEncoding.DecodeString(s)
}

// URL builds the invitation link a recruiter sends to the candidate.
func URL(baseURL, encoded string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "?")
	sep := "?"
	if strings.Contains(baseURL, "?") {
		sep = "&"
	}
	return baseURL + sep + QueryParam + "=" + url.QueryEscape(encoded)
}
