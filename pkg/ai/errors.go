package ai

// ConfigError reports missing or invalid model configuration. Callers map it
// to a client error rather than a provider failure.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return e.Reason
}

func missingConfig(field, reason string) *ConfigError {
	return &ConfigError{Field: field, Reason: reason}
}
