package providers

import "fmt"

// ConfigurationError is returned when a provider cannot be configured,
// e.g. a blank caller-supplied API key.
type ConfigurationError struct {
	ProviderID string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("provider %q misconfigured: %s", e.ProviderID, e.Reason)
}

// UnknownProviderError is returned for provider ids outside the known set.
type UnknownProviderError struct {
	ProviderID string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.ProviderID)
}
