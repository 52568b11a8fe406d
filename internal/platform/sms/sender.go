package sms

import (
	"errors"
	"fmt"

	"auth_backend/internal/feature/auth/usecase"
	infrahttp "auth_backend/internal/platform/http"
)

// NewSender creates the Sender selected by cfg.Provider.
// devMode makes the log provider print message bodies.
func NewSender(cfg Config, devMode bool) (usecase.Sender, error) {
	switch cfg.Provider {
	case ProviderTwilio:
		if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
			return nil, errors.New("twilio requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM")
		}
		return NewTwilioSender(cfg, infrahttp.NewHTTPClient(cfg.Timeout)), nil
	case "", ProviderLog:
		return NewLogSender(devMode), nil
	default:
		return nil, fmt.Errorf("unsupported SMS_PROVIDER %q", cfg.Provider)
	}
}
