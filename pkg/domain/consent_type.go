package domain

import dErrors "nestsync/pkg/domain-errors"

// ConsentType is a domain value that identifies a category of optional data
// use requiring explicit user permission.
// Invariant: the value must be one of the supported consent types.
//
// Usage: construct via ParseConsentType at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type ConsentType string

// Supported consent types. Required types are accepted at signup and never
// pass through the just-in-time gate.
const (
	ConsentTypeAnalytics   ConsentType = "analytics"
	ConsentTypeMarketing   ConsentType = "marketing"
	ConsentTypeDataSharing ConsentType = "data_sharing"
	ConsentTypeChildData   ConsentType = "child_data"

	ConsentTypePrivacyPolicy  ConsentType = "privacy_policy"
	ConsentTypeTermsOfService ConsentType = "terms_of_service"
)

// validConsentTypes is the single source of truth for valid consent types.
var validConsentTypes = map[ConsentType]bool{
	ConsentTypeAnalytics:      true,
	ConsentTypeMarketing:      true,
	ConsentTypeDataSharing:    true,
	ConsentTypeChildData:      true,
	ConsentTypePrivacyPolicy:  true,
	ConsentTypeTermsOfService: true,
}

// requiredConsentTypes are a precondition of having an account at all; the
// broker short-circuits them to granted without cache or network.
var requiredConsentTypes = map[ConsentType]bool{
	ConsentTypePrivacyPolicy:  true,
	ConsentTypeTermsOfService: true,
}

// ParseConsentType constructs a ConsentType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported; no
// other errors are expected.
func ParseConsentType(s string) (ConsentType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "consent type cannot be empty")
	}
	t := ConsentType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid consent type")
	}
	return t, nil
}

// IsValid checks if the consent type is one of the supported enum values.
func (t ConsentType) IsValid() bool {
	return validConsentTypes[t]
}

// IsRequired reports whether the type is a required consent, granted as part
// of signup rather than just-in-time.
func (t ConsentType) IsRequired() bool {
	return requiredConsentTypes[t]
}

// String returns the string representation of the consent type.
func (t ConsentType) String() string {
	return string(t)
}
