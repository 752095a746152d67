package config

// SensitiveString holds a secret value that must never appear in logs or
// serialized output. The underlying value is only reachable via Value().
type SensitiveString string

const redacted = "[REDACTED]"

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s SensitiveString) GoString() string {
	return s.String()
}

func (s SensitiveString) MarshalJSON() ([]byte, error) {
	if s == "" {
		return []byte(`""`), nil
	}
	return []byte(`"` + redacted + `"`), nil
}

// Value returns the raw secret.
func (s SensitiveString) Value() string {
	return string(s)
}
