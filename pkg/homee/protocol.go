package homee

import (
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Constants of the homee hub API
const (
	DefaultPort = 7681

	TokenPath      = "/access_token"
	ConnectionPath = "/connection"

	// Subprotocol is negotiated during the WebSocket handshake.
	Subprotocol = "v2"

	// TokenRequestBody identifies this client to the hub. The hub requires
	// the fields but does not validate the values.
	TokenRequestBody = "device_name=DevApp&device_hardware_id=PythonClient&device_os=5&device_type=4&device_app=0"
)

// Top-level keys of incoming frames
const (
	KeyNodes      = "nodes"
	KeyAttributes = "attributes"
	KeyGroups     = "groups"
	KeyHomeegrams = "homeegrams"
	KeyUser       = "user"
)

var (
	ErrNoToken                = errors.New("token is not available, call GetToken first")
	ErrNotConnected           = errors.New("websocket is not connected")
	ErrAlreadyConnected       = errors.New("websocket is already connected")
	ErrMalformedTokenResponse = errors.New("malformed token response")
	ErrMissingAccessToken     = errors.New("token response has no access_token")
)

// StatusError is returned when the hub rejects a token request.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to get token: status %d", e.StatusCode)
}

// VerbCase selects how command verbs are written on the wire.
type VerbCase int

const (
	// LowerCaseVerbs writes "get:nodes".
	LowerCaseVerbs VerbCase = iota
	// UpperCaseVerbs writes "GET:nodes".
	UpperCaseVerbs
)

func (v VerbCase) String() string {
	switch v {
	case LowerCaseVerbs:
		return "lower"
	case UpperCaseVerbs:
		return "upper"
	}
	return fmt.Sprintf("VerbCase(%d)", int(v))
}

func (v VerbCase) verb(verb string) string {
	if v == UpperCaseVerbs {
		return strings.ToUpper(verb)
	}
	return strings.ToLower(verb)
}

// GetCommand formats a read command for a resource, e.g. "get:nodes".
func GetCommand(v VerbCase, resource string) string {
	return v.verb("get") + ":" + resource
}

// PutCommand formats a write command, e.g. "put:homeegrams/3?play=1".
func PutCommand(v VerbCase, resource string, query string) string {
	cmd := v.verb("put") + ":" + resource
	if query != "" {
		cmd += "?" + query
	}
	return cmd
}

// PlayHomeegramCommand formats the command that starts or stops a homeegram.
func PlayHomeegramCommand(v VerbCase, id int, play bool) string {
	return PutCommand(v, fmt.Sprintf("%s/%d", KeyHomeegrams, id), "play="+flag(play))
}

// EnableHomeegramCommand formats the command that enables or disables a homeegram.
func EnableHomeegramCommand(v VerbCase, id int, enable bool) string {
	return PutCommand(v, fmt.Sprintf("%s/%d", KeyHomeegrams, id), "enable="+flag(enable))
}

// BootstrapCommands returns the reads sent right after connecting, in order.
func BootstrapCommands(v VerbCase) []string {
	return []string{
		GetCommand(v, KeyNodes),
		GetCommand(v, KeyGroups),
		GetCommand(v, KeyHomeegrams),
		GetCommand(v, KeyUser),
	}
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// HashPassword returns the hex encoded SHA-512 digest of the password.
func HashPassword(password string) string {
	sum := sha512.Sum512([]byte(password))
	return hex.EncodeToString(sum[:])
}

// BasicCredential returns the value of the Authorization header for a
// token request, including the "Basic " prefix.
func BasicCredential(username, password string) string {
	combined := username + ":" + HashPassword(password)
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(combined))
}

// ParseTokenResponse extracts the access token from a token response body.
// The body is a list of key=value pairs joined by '&'. Values are taken
// verbatim, without URL decoding.
func ParseTokenResponse(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", fmt.Errorf("%w: empty body", ErrMalformedTokenResponse)
	}

	var token string
	found := false
	for _, pair := range strings.Split(body, "&") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return "", fmt.Errorf("%w: invalid pair %q", ErrMalformedTokenResponse, pair)
		}
		if key == "access_token" && !found {
			token = value
			found = true
		}
	}

	if token == "" {
		return "", ErrMissingAccessToken
	}
	return token, nil
}
