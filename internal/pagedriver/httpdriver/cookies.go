package httpdriver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// sessionCookie is the serialized form of one cookie inside the opaque
// session blob. The core never looks inside; only this driver does.
type sessionCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain,omitempty"`
	Path     string    `json:"path,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HTTPOnly bool      `json:"http_only,omitempty"`
}

func encodeCookies(cookies []*http.Cookie) ([]byte, error) {
	out := make([]sessionCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, sessionCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		})
	}

	blob, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session blob: %w", err)
	}

	return blob, nil
}

func decodeCookies(blob []byte) ([]*http.Cookie, error) {
	var stored []sessionCookie
	if err := json.Unmarshal(blob, &stored); err != nil {
		return nil, fmt.Errorf("failed to decode session blob: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}

	return cookies, nil
}
