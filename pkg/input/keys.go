// Package input turns terminal key and mouse events into per-frame edge
// events: which keys were pressed or released this frame, and how far the
// pointer moved. It keeps no held-key state for its callers.
package input

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	uv "github.com/charmbracelet/ultraviolet"
)

// ErrUnresolvedKey is returned when a key name has no key id.
var ErrUnresolvedKey = errors.New("input: unresolved key name")

// KeyID identifies a physical key. It is the terminal key code, lower-cased
// for letters so that shifted and unshifted presses share an id.
type KeyID rune

// Named keys beyond single printable characters.
var namedKeys = map[string]KeyID{
	"up":        KeyID(uv.KeyUp),
	"down":      KeyID(uv.KeyDown),
	"left":      KeyID(uv.KeyLeft),
	"right":     KeyID(uv.KeyRight),
	"space":     KeyID(uv.KeySpace),
	"enter":     KeyID(uv.KeyEnter),
	"tab":       KeyID(uv.KeyTab),
	"backspace": KeyID(uv.KeyBackspace),
	"esc":       KeyID(uv.KeyEscape),
	"escape":    KeyID(uv.KeyEscape),
}

// ResolveKeyID maps a key name such as "w", "up" or "space" to its id.
// Names are case-insensitive. Anything else fails with ErrUnresolvedKey.
func ResolveKeyID(name string) (KeyID, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if id, ok := namedKeys[n]; ok {
		return id, nil
	}
	if utf8.RuneCountInString(n) == 1 {
		r, _ := utf8.DecodeRuneInString(n)
		if unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return KeyID(r), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnresolvedKey, name)
}

// KeyName returns the canonical name of id, the inverse of ResolveKeyID.
func KeyName(id KeyID) string {
	switch id {
	case KeyID(uv.KeyEscape):
		return "esc"
	}
	for name, named := range namedKeys {
		if named == id {
			return name
		}
	}
	return string(rune(id))
}

// keyIDFor returns the id for a decoded terminal key.
func keyIDFor(k uv.Key) KeyID {
	code := k.Code
	if code < unicode.MaxASCII && unicode.IsUpper(code) {
		code = unicode.ToLower(code)
	}
	return KeyID(code)
}
