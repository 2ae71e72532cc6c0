package features

import (
	"lifelog/backend/pkg/config"
)

// Signup gates self-service account registration.
const Signup = "SIGNUP"

// IsEnabled reports whether a feature toggle is on. Names are matched as they appear
// after the FEATURE_ prefix. An undefined toggle is considered disabled.
func IsEnabled(featureName string) bool {
	enabled, exists := config.Cfg.FeatureToggles[featureName]
	return exists && enabled
}

// IsEnabledByDefault is like IsEnabled but treats an undefined toggle as enabled,
// for features that ship on and can be switched off.
func IsEnabledByDefault(featureName string) bool {
	enabled, exists := GetFeatureToggleState(featureName)
	if !exists {
		return true
	}
	return enabled
}

// GetFeatureToggleState returns the toggle value and whether it was defined at all.
func GetFeatureToggleState(featureName string) (enabled bool, exists bool) {
	if config.Cfg.FeatureToggles == nil {
		return false, false
	}
	enabled, exists = config.Cfg.FeatureToggles[featureName]
	return enabled, exists
}
