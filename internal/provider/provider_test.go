package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorCode
	}{
		{401, ErrCodeAuthentication},
		{403, ErrCodeAuthentication},
		{408, ErrCodeTimeout},
		{429, ErrCodeRateLimit},
		{400, ErrCodeInvalidRequest},
		{422, ErrCodeInvalidRequest},
		{500, ErrCodeProviderUnavailable},
		{503, ErrCodeProviderUnavailable},
		{200, ErrCodeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CodeFromStatus(tt.status), "status %d", tt.status)
	}
}

func TestProviderError_Is(t *testing.T) {
	err := &ProviderError{Code: ErrCodeRateLimit, Provider: "openai", StatusCode: 429}

	assert.ErrorIs(t, err, ErrRateLimit)
	assert.NotErrorIs(t, err, ErrAuthentication)

	wrapped := &ProviderError{Code: ErrCodeTimeout, Cause: context.DeadlineExceeded}
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
}

func TestWithRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := WithRetry(context.Background(), DefaultRetryConfig(), func() (string, error) {
		calls++
		return "", &ProviderError{Code: ErrCodeAuthentication}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesRateLimit(t *testing.T) {
	cfg := RetryConfig{MaxRetries: 2, InitialInterval: time.Millisecond, Multiplier: 2}

	calls := 0
	got, err := WithRetry(context.Background(), cfg, func() (string, error) {
		calls++
		if calls < 3 {
			return "", &ProviderError{Code: ErrCodeRateLimit}
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := RetryConfig{MaxRetries: 5, InitialInterval: time.Hour}
	_, err := WithRetry(ctx, cfg, func() (int, error) {
		return 0, errors.New("boom")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("fake", func(v *viper.Viper) (AIProvider, error) {
		return nil, errors.New("not built")
	})

	assert.Equal(t, []string{"fake"}, r.Names())

	_, err := r.Get("fake", viper.New())
	assert.EqualError(t, err, "not built")

	_, err = r.Get("missing", viper.New())
	assert.ErrorContains(t, err, "unknown provider")

	assert.Panics(t, func() {
		r.Register("fake", func(v *viper.Viper) (AIProvider, error) { return nil, nil })
	})
}

func TestResolveProvider_Defaults(t *testing.T) {
	t.Setenv("RESOLV_PROVIDER", "")

	cfg := ResolveProvider(viper.New())
	assert.Equal(t, "openai", cfg.Name)
	require.NotNil(t, cfg.Viper)
	assert.Equal(t, "gpt-4o", cfg.Viper.GetString("model"))
}

func TestResolveProvider_FromStore(t *testing.T) {
	v := viper.New()
	v.Set("provider", "Anthropic ")

	cfg := ResolveProvider(v)
	assert.Equal(t, "anthropic", cfg.Name)
}
