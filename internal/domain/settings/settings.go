// Package settings models the single mutable store-configuration document.
package settings

import (
	"context"
	"encoding/json"
)

// Default values used when the store is read before anything was written.
const (
	DefaultStoreName = "CookieShop"
	DefaultCurrency  = "LKR (Rs)"
)

// Settings is the singleton store configuration. Unknown JSON keys are kept
// in Extra so free-form extension fields survive read-modify-write cycles.
type Settings struct {
	StoreName string
	Email     string
	Phone     string
	Currency  string
	Extra     map[string]json.RawMessage
}

// Defaults returns the document created on first read of an empty store.
func Defaults() Settings {
	return Settings{
		StoreName: DefaultStoreName,
		Currency:  DefaultCurrency,
	}
}

// Merge overlays a partial document onto s. Known fields replace only when
// non-empty; extension fields are merged key-by-key.
func (s *Settings) Merge(in Settings) {
	if in.StoreName != "" {
		s.StoreName = in.StoreName
	}
	if in.Email != "" {
		s.Email = in.Email
	}
	if in.Phone != "" {
		s.Phone = in.Phone
	}
	if in.Currency != "" {
		s.Currency = in.Currency
	}
	if len(in.Extra) > 0 {
		if s.Extra == nil {
			s.Extra = make(map[string]json.RawMessage, len(in.Extra))
		}
		for k, v := range in.Extra {
			s.Extra[k] = v
		}
	}
}

// known JSON keys, kept in sync with MarshalJSON.
const (
	keyStoreName = "storeName"
	keyEmail     = "email"
	keyPhone     = "phone"
	keyCurrency  = "currency"
)

// MarshalJSON flattens Extra into the top-level object next to the known
// fields.
func (s Settings) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, 4+len(s.Extra))
	for k, v := range s.Extra {
		doc[k] = v
	}
	for k, v := range map[string]string{
		keyStoreName: s.StoreName,
		keyEmail:     s.Email,
		keyPhone:     s.Phone,
		keyCurrency:  s.Currency,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		doc[k] = raw
	}
	return json.Marshal(doc)
}

// UnmarshalJSON picks out the known fields and folds everything else into
// Extra.
func (s *Settings) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	take := func(key string, dst *string) error {
		raw, ok := doc[key]
		if !ok {
			return nil
		}
		delete(doc, key)
		return json.Unmarshal(raw, dst)
	}

	if err := take(keyStoreName, &s.StoreName); err != nil {
		return err
	}
	if err := take(keyEmail, &s.Email); err != nil {
		return err
	}
	if err := take(keyPhone, &s.Phone); err != nil {
		return err
	}
	if err := take(keyCurrency, &s.Currency); err != nil {
		return err
	}

	if len(doc) > 0 {
		s.Extra = doc
	}
	return nil
}

// Repository defines persistence for the settings document.
//
// Get performs get-or-create-default: reading an empty store writes and
// returns Defaults(). Upsert replaces the stored document.
type Repository interface {
	Get(ctx context.Context) (*Settings, error)
	Upsert(ctx context.Context, s *Settings) error
}
