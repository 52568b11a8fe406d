package sms

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTwilioSender_DefaultBaseURL(t *testing.T) {
	t.Parallel()

	s := NewTwilioSender(Config{AccountSID: "AC1"}, &http.Client{})

	assert.Equal(t, DefaultTwilioBaseURL, s.cfg.BaseURL)
}

func TestTwilioSender_Send_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "token", pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "+919999999999", r.PostForm.Get("To"))
		assert.Equal(t, "+15550001111", r.PostForm.Get("From"))
		assert.Equal(t, "Your Verification Code is 1234", r.PostForm.Get("Body"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer server.Close()

	s := NewTwilioSender(Config{
		AccountSID:    "AC123",
		AuthToken:     "token",
		From:          "+15550001111",
		BaseURL:       server.URL,
		CountryPrefix: "+91",
	}, server.Client())

	err := s.Send(context.Background(), "9999999999", "Your Verification Code is 1234")

	assert.NoError(t, err)
}

func TestTwilioSender_Send_APIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number.","status":400}`))
	}))
	defer server.Close()

	s := NewTwilioSender(Config{AccountSID: "AC123", BaseURL: server.URL}, server.Client())

	err := s.Send(context.Background(), "+1", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
}

func TestTwilioSender_Send_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := NewTwilioSender(Config{AccountSID: "AC123", BaseURL: server.URL}, server.Client())

	err := s.Send(context.Background(), "+19999999999", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestTwilioSender_Send_ContextCanceled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
	}))
	defer server.Close()

	s := NewTwilioSender(Config{AccountSID: "AC123", BaseURL: server.URL}, server.Client())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Send(ctx, "+19999999999", "hi"))
}

type stubLimiter struct {
	calls int
	err   error
}

func (s *stubLimiter) Wait(context.Context) error {
	s.calls++
	return s.err
}

func TestTwilioSender_Send_RateLimited(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM1","status":"queued"}`))
	}))
	defer server.Close()

	s := NewTwilioSender(Config{AccountSID: "AC123", BaseURL: server.URL}, server.Client())
	lim := &stubLimiter{}
	s.limiter = lim

	require.NoError(t, s.Send(context.Background(), "+19999999999", "hi"))
	assert.Equal(t, 1, lim.calls)
	assert.Equal(t, int32(1), hits.Load())

	lim.err = context.DeadlineExceeded
	err := s.Send(context.Background(), "+19999999999", "hi")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, int32(1), hits.Load(), "no request is made when the limiter gives up")
}

func TestE164(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, phone, want string
	}{
		{"+91", "9999999999", "+919999999999"},
		{"+91", "+15550001111", "+15550001111"},
		{"", "9999999999", "9999999999"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, E164(tt.prefix, tt.phone))
	}
}

func TestNewSender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		want    any
		wantErr bool
	}{
		{"default is log", Config{}, &LogSender{}, false},
		{"log", Config{Provider: ProviderLog}, &LogSender{}, false},
		{"twilio", Config{Provider: ProviderTwilio, AccountSID: "AC1", AuthToken: "t", From: "+1"}, &TwilioSender{}, false},
		{"twilio missing credentials", Config{Provider: ProviderTwilio}, nil, true},
		{"unknown", Config{Provider: "pigeon"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSender(tt.cfg, false)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, s)
		})
	}
}

func TestLogSender_Send(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewLogSender(true).Send(context.Background(), "9999999999", "hi"))
}
