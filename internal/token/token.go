package token

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose tag embedded in every session credential.
const PurposeRestaurantSession = "restaurant_session"

var (
	// ErrTokenInvalid means the token could not be decoded or is structurally
	// incomplete.
	ErrTokenInvalid = errors.New("invalid session token")
	// ErrTokenExpired means the token decoded fine but its embedded expiry has
	// passed.
	ErrTokenExpired = errors.New("session token expired")
)

// Payload is the self-describing content of a session token.
type Payload struct {
	Phone   string `json:"phone"`
	OrderID string `json:"order_id,omitempty"`
	Type    string `json:"type"`
	Exp     int64  `json:"exp"`
}

// Codec issues and verifies bearer session tokens.
//
// Without a secret the token is base64-encoded JSON: decodable by anyone and
// not tamper-evident, which the magic-link flow relies on. Privileged callers
// pair it with the session store cross-check. With a secret configured the
// codec issues HS256 JWTs instead; Verify accepts both forms so unsigned
// tokens issued before the secret was set keep working.
type Codec struct {
	secret []byte
	strict bool
	now    func() time.Time
}

// New creates a codec. An empty secret selects the unsigned encoding.
func New(secret string) *Codec {
	c := &Codec{now: time.Now}
	if secret != "" {
		c.secret = []byte(secret)
	}
	return c
}

// NewStrict creates a signed-only codec: unsigned tokens are rejected even
// though they decode. For deployments whose unsigned links have all expired.
func NewStrict(secret string) *Codec {
	c := New(secret)
	c.strict = true
	return c
}

// Issue mints a token for the phone number, optionally scoped to one order.
// The returned expiry is the exact instant embedded in the token, so the
// session row can be stamped with the same value.
func (c *Codec) Issue(phone, orderID string, ttlHours int) (string, time.Time, error) {
	exp := c.now().Add(time.Duration(ttlHours) * time.Hour)

	if c.secret != nil {
		claims := jwt.MapClaims{
			"phone": phone,
			"type":  PurposeRestaurantSession,
			"exp":   exp.Unix(),
		}
		if orderID != "" {
			claims["order_id"] = orderID
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
		if err != nil {
			return "", time.Time{}, err
		}
		return tok, exp, nil
	}

	payload := Payload{
		Phone:   phone,
		OrderID: orderID,
		Type:    PurposeRestaurantSession,
		Exp:     exp.Unix(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", time.Time{}, err
	}
	return base64.StdEncoding.EncodeToString(raw), exp, nil
}

// Verify decodes a token and checks its embedded expiry. No database access.
func (c *Codec) Verify(tok string) (*Payload, error) {
	if tok == "" {
		return nil, ErrTokenInvalid
	}
	if strings.Count(tok, ".") == 2 {
		return c.verifySigned(tok)
	}
	return c.verifyUnsigned(tok)
}

func (c *Codec) verifyUnsigned(tok string) (*Payload, error) {
	if c.strict {
		return nil, ErrTokenInvalid
	}
	raw, err := base64.StdEncoding.DecodeString(tok)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrTokenInvalid
	}
	if payload.Phone == "" || payload.Exp == 0 {
		return nil, ErrTokenInvalid
	}
	if payload.Exp <= c.now().Unix() {
		return nil, ErrTokenExpired
	}
	return &payload, nil
}

func (c *Codec) verifySigned(tok string) (*Payload, error) {
	if c.secret == nil {
		return nil, ErrTokenInvalid
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	payload := &Payload{}
	if phone, ok := claims["phone"].(string); ok {
		payload.Phone = phone
	}
	if orderID, ok := claims["order_id"].(string); ok {
		payload.OrderID = orderID
	}
	if typ, ok := claims["type"].(string); ok {
		payload.Type = typ
	}
	if exp, ok := claims["exp"].(float64); ok {
		payload.Exp = int64(exp)
	}
	if payload.Phone == "" {
		return nil, ErrTokenInvalid
	}
	return payload, nil
}
