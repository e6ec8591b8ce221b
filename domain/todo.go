package domain

import "strings"

// Todo is a single task record served by the API.
type Todo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Done bool   `json:"done"`
}

// ValidateName extracts the todo name from a decoded request payload.
// A nil payload means the request carried no JSON object.
func ValidateName(payload map[string]any) (string, error) {
	raw, ok := payload["name"]
	if payload == nil || !ok {
		return "", newValidationError(MissingField)
	}
	name, ok := raw.(string)
	if !ok {
		return "", newValidationError(WrongType)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", newValidationError(EmptyValue)
	}
	return name, nil
}
