package homee

import (
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	// sha512("") is a well known digest
	assert.Equal(t,
		"cf83e1357eefb8bdf1542850d66d8007d620e4050b5715dc83f4a921d36ce9ce47d0d13c5d85f2b0ff8318d2877eec2f63b931bd47417a81a538327af927da3e",
		HashPassword(""))
	assert.Len(t, HashPassword("secret"), 128)
}

func TestBasicCredential_DecodesToUserAndDigest(t *testing.T) {
	pairs := []struct {
		username string
		password string
	}{
		{"user", "secret"},
		{"admin", ""},
		{"jürgen", "pässwörd"},
		{"first.last@example.com", "p@ss:word&more=1"},
		{"", "x"},
	}

	for _, p := range pairs {
		t.Run(p.username, func(t *testing.T) {
			header := BasicCredential(p.username, p.password)
			require.True(t, strings.HasPrefix(header, "Basic "))

			decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(header, "Basic "))
			require.NoError(t, err)

			sum := sha512.Sum512([]byte(p.password))
			assert.Equal(t, p.username+":"+hex.EncodeToString(sum[:]), string(decoded))
		})
	}
}

func TestParseTokenResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"token first", "access_token=ABC&other=1", "ABC", nil},
		{"token last", "user_id=1&device_id=3&access_token=XYZ", "XYZ", nil},
		{"trailing newline", "access_token=ABC\n", "ABC", nil},
		{"not url decoded", "access_token=a%2Bb", "a%2Bb", nil},
		{"value with equals", "access_token=abc==", "abc==", nil},
		{"first token wins", "access_token=one&access_token=two", "one", nil},
		{"empty body", "", "", ErrMalformedTokenResponse},
		{"no equals", "access_token", "", ErrMalformedTokenResponse},
		{"dangling pair", "access_token=ABC&", "", ErrMalformedTokenResponse},
		{"empty key", "=ABC", "", ErrMalformedTokenResponse},
		{"missing token", "user_id=1", "", ErrMissingAccessToken},
		{"empty token", "access_token=&user_id=1", "", ErrMissingAccessToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTokenResponse(tt.body)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommands_LowerCase(t *testing.T) {
	assert.Equal(t, "get:nodes", GetCommand(LowerCaseVerbs, KeyNodes))
	assert.Equal(t, "put:homeegrams/123?play=1", PlayHomeegramCommand(LowerCaseVerbs, 123, true))
	assert.Equal(t, "put:homeegrams/123?play=0", PlayHomeegramCommand(LowerCaseVerbs, 123, false))
	assert.Equal(t, "put:homeegrams/7?enable=1", EnableHomeegramCommand(LowerCaseVerbs, 7, true))
	assert.Equal(t, "put:homeegrams/7?enable=0", EnableHomeegramCommand(LowerCaseVerbs, 7, false))
	assert.Equal(t, "put:nodes/1", PutCommand(LowerCaseVerbs, "nodes/1", ""))
}

func TestCommands_UpperCase(t *testing.T) {
	assert.Equal(t, "GET:homeegrams", GetCommand(UpperCaseVerbs, KeyHomeegrams))
	assert.Equal(t, "PUT:homeegrams/5?play=1", PlayHomeegramCommand(UpperCaseVerbs, 5, true))
	assert.Equal(t, "PUT:homeegrams/5?enable=0", EnableHomeegramCommand(UpperCaseVerbs, 5, false))
}

func TestBootstrapCommands_Order(t *testing.T) {
	assert.Equal(t, []string{"get:nodes", "get:groups", "get:homeegrams", "get:user"}, BootstrapCommands(LowerCaseVerbs))
	assert.Equal(t, []string{"GET:nodes", "GET:groups", "GET:homeegrams", "GET:user"}, BootstrapCommands(UpperCaseVerbs))
}

func TestVerbCase_String(t *testing.T) {
	assert.Equal(t, "lower", LowerCaseVerbs.String())
	assert.Equal(t, "upper", UpperCaseVerbs.String())
	assert.Equal(t, "VerbCase(9)", VerbCase(9).String())
}

func TestStatusError(t *testing.T) {
	err := &StatusError{StatusCode: 401}
	assert.Equal(t, "failed to get token: status 401", err.Error())
}
