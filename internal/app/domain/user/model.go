package user

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalid marks a user that breaks a business rule (blank name, bad email).
	ErrInvalid = errors.New("invalid user")
	// ErrMalformed marks a request body that is not a user document.
	ErrMalformed = errors.New("malformed user document")
)

// User is the only resource exposed by the service. ID is nil until the store
// assigns one.
type User struct {
	ID    *int64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// WithID returns a persisted snapshot of a user.
func WithID(id int64, name, email string) User {
	return User{ID: &id, Name: name, Email: email}
}

// Validate applies the rules shared by the create and update paths.
func Validate(u User) error {
	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	email := strings.TrimSpace(u.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("%w: email must contain @", ErrInvalid)
	}
	return nil
}

// Decode reads a user from a JSON object. Member names match exactly. name and
// email must be strings; id, when present, must be null or a 32-bit integer and
// is then discarded. Other members are ignored.
func Decode(body []byte) (User, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(body, &members); err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if members == nil {
		return User{}, fmt.Errorf("%w: expected an object", ErrMalformed)
	}

	if raw, ok := members["id"]; ok {
		var id *int32
		if err := json.Unmarshal(raw, &id); err != nil {
			return User{}, fmt.Errorf("%w: id: %v", ErrMalformed, err)
		}
	}

	name, err := stringMember(members, "name")
	if err != nil {
		return User{}, err
	}
	email, err := stringMember(members, "email")
	if err != nil {
		return User{}, err
	}
	return User{Name: name, Email: email}, nil
}

func stringMember(members map[string]json.RawMessage, key string) (string, error) {
	raw, ok := members[key]
	if !ok {
		return "", fmt.Errorf("%w: %s is required", ErrMalformed, key)
	}
	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrMalformed, key, err)
	}
	if value == nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrMalformed, key)
	}
	return *value, nil
}
