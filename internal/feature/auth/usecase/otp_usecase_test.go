package usecase

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth_backend/internal/feature/auth/domain"
	"auth_backend/internal/feature/auth/domain/entity"
)

func newTestOTPUsecase(repo OTPRepository, clock *testClock) *otpUsecase {
	uc := NewOTPUsecase(repo, 5*time.Minute)
	uc.now = clock.Now
	return uc
}

func TestGenerateOTP_Range(t *testing.T) {
	t.Parallel()

	for i := 0; i < 2000; i++ {
		code, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, code, 4)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 1000)
		require.LessOrEqual(t, n, 9999)
	}
}

func TestNewOTPUsecase_DefaultTTL(t *testing.T) {
	t.Parallel()

	uc := NewOTPUsecase(newMemoryOTPRepository(), 0)
	assert.Equal(t, DefaultOTPTTL, uc.ttl)
}

func TestOTPUsecase_Issue(t *testing.T) {
	t.Run("issue returns a four digit code in range", func(t *testing.T) {
		uc := newTestOTPUsecase(newMemoryOTPRepository(), newTestClock())

		code, err := uc.Issue(context.Background(), "9999999999")

		require.NoError(t, err)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.True(t, n >= 1000 && n <= 9999, "code %q out of range", code)
	})

	t.Run("validation", func(t *testing.T) {
		uc := newTestOTPUsecase(newMemoryOTPRepository(), newTestClock())

		for _, phone := range []string{"", "   ", "12345", "99999abcde", "+1234567890123456"} {
			_, err := uc.Issue(context.Background(), phone)
			assert.Equal(t, domain.KindValidation, domain.KindOf(err), "phone %q", phone)
		}
	})

	t.Run("store failure is propagated", func(t *testing.T) {
		repo := newMemoryOTPRepository()
		storeErr := domain.Transient("replace otp challenge", errors.New("connection refused"))
		repo.ReplaceFunc = func(*entity.OTPChallenge) error { return storeErr }
		uc := newTestOTPUsecase(repo, newTestClock())

		_, err := uc.Issue(context.Background(), "9999999999")

		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("challenge carries ttl", func(t *testing.T) {
		repo := newMemoryOTPRepository()
		clock := newTestClock()
		uc := newTestOTPUsecase(repo, clock)

		_, err := uc.Issue(context.Background(), "9999999999")
		require.NoError(t, err)

		c := repo.challenges["9999999999"]
		require.NotNil(t, c)
		assert.Equal(t, clock.Now(), c.CreatedAt)
		assert.Equal(t, clock.Now().Add(5*time.Minute), c.ExpiresAt)
	})
}

func TestOTPUsecase_Verify(t *testing.T) {
	t.Run("exact code verifies exactly once", func(t *testing.T) {
		uc := newTestOTPUsecase(newMemoryOTPRepository(), newTestClock())
		code, err := uc.Issue(context.Background(), "9999999999")
		require.NoError(t, err)

		verified, err := uc.Verify(context.Background(), "9999999999", code)
		require.NoError(t, err)
		assert.Equal(t, "9999999999", verified.Phone)

		_, err = uc.Verify(context.Background(), "9999999999", code)
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	})

	t.Run("0000 never verifies", func(t *testing.T) {
		uc := newTestOTPUsecase(newMemoryOTPRepository(), newTestClock())
		_, err := uc.Issue(context.Background(), "9999999999")
		require.NoError(t, err)

		_, err = uc.Verify(context.Background(), "9999999999", "0000")

		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	})

	t.Run("any other code fails and leaves the challenge usable", func(t *testing.T) {
		uc := newTestOTPUsecase(newMemoryOTPRepository(), newTestClock())
		uc.generate = func() (string, error) { return "4821", nil }
		_, err := uc.Issue(context.Background(), "9999999999")
		require.NoError(t, err)

		for _, wrong := range []string{"4822", "1000", "9999", "482"} {
			_, err := uc.Verify(context.Background(), "9999999999", wrong)
			assert.ErrorIs(t, err, domain.ErrInvalidOTP, wrong)
		}

		_, err = uc.Verify(context.Background(), "9999999999", "4821")
		assert.NoError(t, err)
	})

	t.Run("reissue invalidates the earlier code", func(t *testing.T) {
		uc := newTestOTPUsecase(newMemoryOTPRepository(), newTestClock())
		codes := []string{"1111", "2222"}
		uc.generate = func() (string, error) {
			c := codes[0]
			codes = codes[1:]
			return c, nil
		}

		first, err := uc.Issue(context.Background(), "9999999999")
		require.NoError(t, err)
		second, err := uc.Issue(context.Background(), "9999999999")
		require.NoError(t, err)

		_, err = uc.Verify(context.Background(), "9999999999", first)
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
		_, err = uc.Verify(context.Background(), "9999999999", second)
		assert.NoError(t, err)
	})

	t.Run("expired challenge is invalid", func(t *testing.T) {
		clock := newTestClock()
		uc := newTestOTPUsecase(newMemoryOTPRepository(), clock)
		code, err := uc.Issue(context.Background(), "9999999999")
		require.NoError(t, err)

		clock.Advance(5*time.Minute + time.Second)

		_, err = uc.Verify(context.Background(), "9999999999", code)
		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	})

	t.Run("unknown phone is indistinguishable from wrong code", func(t *testing.T) {
		uc := newTestOTPUsecase(newMemoryOTPRepository(), newTestClock())

		_, err := uc.Verify(context.Background(), "8888888888", "1234")

		assert.ErrorIs(t, err, domain.ErrInvalidOTP)
		assert.Equal(t, "invalid OTP or phone number", err.Error())
	})

	t.Run("missing arguments", func(t *testing.T) {
		uc := newTestOTPUsecase(newMemoryOTPRepository(), newTestClock())

		_, err := uc.Verify(context.Background(), "", "1234")
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
		_, err = uc.Verify(context.Background(), "9999999999", "")
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})
}
