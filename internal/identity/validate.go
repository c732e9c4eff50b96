package identity

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/roach88/thisme/internal/store"
)

const (
	minUsernameLen  = 5
	maxUsernameLen  = 21
	maxPeriods      = 2
	minPasswordLen  = 4
	opValidateInput = "validate"
)

// ValidateUsername checks the username rules:
//   - 5 to 21 characters
//   - ASCII letters, digits, '.' and '_' only
//   - no leading or trailing separator
//   - no adjacent separators ("..", "__", "._", "_.")
//   - at most two periods
//
// Returns a KindValidation error describing the first rule broken.
func ValidateUsername(username string) error {
	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return store.Errorf(store.KindValidation, opValidateInput,
			"username must be %d-%d characters long", minUsernameLen, maxUsernameLen)
	}

	for i := 0; i < len(username); i++ {
		if !isUsernameByte(username[i]) {
			return store.Errorf(store.KindValidation, opValidateInput,
				"username must only contain letters, numbers, '.' or '_'")
		}
	}

	if isSeparator(username[0]) {
		return store.Errorf(store.KindValidation, opValidateInput, "username cannot start with '.' or '_'")
	}
	if isSeparator(username[len(username)-1]) {
		return store.Errorf(store.KindValidation, opValidateInput, "username cannot end with '.' or '_'")
	}
	for i := 1; i < len(username); i++ {
		if isSeparator(username[i]) && isSeparator(username[i-1]) {
			return store.Errorf(store.KindValidation, opValidateInput, "username cannot contain consecutive '.' or '_'")
		}
	}
	if strings.Count(username, ".") > maxPeriods {
		return store.Errorf(store.KindValidation, opValidateInput,
			"username cannot have more than %d periods", maxPeriods)
	}
	return nil
}

// ValidatePassword requires at least four characters.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return &store.Error{
			Kind: store.KindValidation,
			Op:   opValidateInput,
			Err:  fmt.Errorf("password must be at least %d characters long", minPasswordLen),
		}
	}
	return nil
}

func isUsernameByte(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || isSeparator(c)
}

func isSeparator(c byte) bool {
	return c == '.' || c == '_'
}
