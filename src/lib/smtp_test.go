package lib

import (
	"errors"
	"etms/src/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreTransport(t *testing.T) {
	t.Cleanup(func() {
		NewMailSender(SendMail)
		NewBackoff(time.Sleep)
	})
}

func TestSendMailWithRetryRecoversFromTransientFailure(t *testing.T) {
	restoreTransport(t)
	var waits []time.Duration
	NewBackoff(func(d time.Duration) { waits = append(waits, d) })

	calls := 0
	NewMailSender(func(input *SendMailInput) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset by peer")
		}
		return nil
	})

	err := SendMailWithRetry(&SendMailInput{To: []string{"jane@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
}

func TestSendMailWithRetryGivesUpAfterThreeAttempts(t *testing.T) {
	restoreTransport(t)
	NewBackoff(func(time.Duration) {})

	calls := 0
	NewMailSender(func(input *SendMailInput) error {
		calls++
		return errors.New("mailbox unavailable")
	})

	err := SendMailWithRetry(&SendMailInput{To: []string{"jane@example.com"}})
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var se *types.SendError
	require.ErrorAs(t, err, &se)
	assert.False(t, se.RateLimited)
}

func TestSendMailWithRetryNeverRetriesRateLimits(t *testing.T) {
	restoreTransport(t)
	NewBackoff(func(time.Duration) { t.Fatal("rate limited sends must not back off and retry") })

	calls := 0
	NewMailSender(func(input *SendMailInput) error {
		calls++
		return errors.New("550 daily limit exceeded")
	})

	err := SendMailWithRetry(&SendMailInput{To: []string{"jane@example.com"}})
	require.Error(t, err)
	assert.Equal(t, 1, calls)

	var se *types.SendError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.RateLimited)
	assert.True(t, types.IsRateLimitError(err))
}

func TestSendMailWithRetrySMTPThrottleCodes(t *testing.T) {
	restoreTransport(t)
	for _, msg := range []string{
		"421 too many concurrent sessions",
		"450 requested action not taken",
		"554 transaction failed: quota exceeded",
	} {
		calls := 0
		NewMailSender(func(input *SendMailInput) error {
			calls++
			return errors.New(msg)
		})
		err := SendMailWithRetry(&SendMailInput{To: []string{"jane@example.com"}})
		require.Error(t, err, msg)
		assert.Equal(t, 1, calls, msg)
		assert.True(t, types.IsRateLimitError(err), msg)
	}
}
