package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"auth_backend/internal/feature/auth/usecase"
	"auth_backend/internal/platform/sms/dto"
	"auth_backend/internal/shared/ratelimiter"
)

// TwilioSender はTwilio Messages APIでSMSを送信するSender実装です。
type TwilioSender struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

// TwilioSenderがSenderを実装していることをコンパイル時に検証します。
var _ usecase.Sender = (*TwilioSender)(nil)

// NewTwilioSender は指定された設定とHTTPクライアントでTwilioSenderの新しいインスタンスを生成します。
func NewTwilioSender(cfg Config, client *http.Client) *TwilioSender {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTwilioBaseURL
	}
	return &TwilioSender{
		cfg:     cfg,
		client:  client,
		limiter: ratelimiter.NewRateLimiter(cfg.MaxPerSecond, time.Second),
	}
}

// Send はbodyをtoへ送信します。
func (t *TwilioSender) Send(ctx context.Context, to, body string) error {
	// アカウントの送信レートを超えないよう待機
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("To", E164(t.cfg.CountryPrefix, to))
	form.Set("From", t.cfg.From)
	form.Set("Body", body)

	u := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(t.cfg.BaseURL, "/"), url.PathEscape(t.cfg.AccountSID))

	// リクエストオブジェクトを作成
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)

	// リクエストを実行
	res, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		var apiErr dto.TwilioError
		if err := json.NewDecoder(res.Body).Decode(&apiErr); err == nil && apiErr.Message != "" {
			return fmt.Errorf("twilio http %d: %d %s", res.StatusCode, apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("twilio http %d", res.StatusCode)
	}

	var msg dto.TwilioMessage
	if err := json.NewDecoder(res.Body).Decode(&msg); err != nil {
		return fmt.Errorf("decode twilio response: %w", err)
	}
	slog.Info("sms queued", "sid", msg.SID, "status", msg.Status)
	return nil
}

// E164 prefixes phone with the country prefix unless it already carries one.
func E164(prefix, phone string) string {
	if strings.HasPrefix(phone, "+") || prefix == "" {
		return phone
	}
	return prefix + phone
}
