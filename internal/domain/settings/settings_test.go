package settings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	d := Defaults()

	assert.Equal(t, "CookieShop", d.StoreName)
	assert.Equal(t, "LKR (Rs)", d.Currency)
	assert.Empty(t, d.Email)
	assert.Empty(t, d.Phone)
	assert.Nil(t, d.Extra)
}

func TestMerge_NonEmptyWins(t *testing.T) {
	s := Defaults()
	s.Merge(Settings{
		StoreName: "Nimal's Cookies",
		Email:     "hello@nimals.lk",
	})

	assert.Equal(t, "Nimal's Cookies", s.StoreName)
	assert.Equal(t, "hello@nimals.lk", s.Email)
	// Fields absent from the partial keep their current values.
	assert.Equal(t, "LKR (Rs)", s.Currency)
}

func TestMerge_ExtraKeys(t *testing.T) {
	s := Settings{
		StoreName: "CookieShop",
		Extra: map[string]json.RawMessage{
			"theme":   json.RawMessage(`"dark"`),
			"tagline": json.RawMessage(`"fresh daily"`),
		},
	}
	s.Merge(Settings{
		Extra: map[string]json.RawMessage{
			"theme":            json.RawMessage(`"light"`),
			"deliveryRadiusKm": json.RawMessage(`15`),
		},
	})

	assert.JSONEq(t, `"light"`, string(s.Extra["theme"]))
	assert.JSONEq(t, `"fresh daily"`, string(s.Extra["tagline"]))
	assert.JSONEq(t, `15`, string(s.Extra["deliveryRadiusKm"]))
}

func TestJSON_RoundTrip(t *testing.T) {
	in := []byte(`{
		"storeName": "CookieShop",
		"email": "admin@cookieshop.lk",
		"phone": "+94 11 234 5678",
		"currency": "LKR (Rs)",
		"theme": "dark",
		"socials": {"instagram": "@cookieshop"}
	}`)

	var s Settings
	require.NoError(t, json.Unmarshal(in, &s))

	assert.Equal(t, "CookieShop", s.StoreName)
	assert.Equal(t, "admin@cookieshop.lk", s.Email)
	assert.Equal(t, "+94 11 234 5678", s.Phone)
	assert.Equal(t, "LKR (Rs)", s.Currency)
	require.Len(t, s.Extra, 2)
	assert.JSONEq(t, `"dark"`, string(s.Extra["theme"]))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, string(in), string(out))
}

func TestUnmarshal_NoExtraKeys(t *testing.T) {
	var s Settings
	require.NoError(t, json.Unmarshal([]byte(`{"storeName": "CookieShop"}`), &s))

	assert.Equal(t, "CookieShop", s.StoreName)
	assert.Nil(t, s.Extra)
}
