// Package sms delivers OTP codes as text messages.
package sms

import "time"

const (
	ProviderTwilio = "twilio"
	ProviderLog    = "log"

	// DefaultTwilioBaseURL is the Twilio REST API root.
	DefaultTwilioBaseURL = "https://api.twilio.com"
)

// Config holds configuration for the SMS transport.
type Config struct {
	Provider      string        // "twilio" or "log"
	AccountSID    string        // Twilio account SID, also the basic auth user
	AuthToken     string        // Twilio auth token
	From          string        // sending number in E.164
	BaseURL       string        // API root, overridden in tests
	CountryPrefix string        // prepended to numbers without a leading "+"
	Timeout       time.Duration // HTTP request timeout
	MaxPerSecond  int           // outbound message rate, 0 disables pacing
}
