package auth

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"otelshin/internal/domain"
	"otelshin/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVerifier авторизует сессию на заданном по счету запросе.
type fakeVerifier struct {
	calls       atomic.Int64
	authorizeOn int64
	failOn      map[int64]error
	profile     *models.Profile
}

func (f *fakeVerifier) Check(ctx context.Context, sessionID string) (*domain.AuthResult, error) {
	n := f.calls.Add(1)
	if err, ok := f.failOn[n]; ok {
		return nil, err
	}
	if f.authorizeOn > 0 && n >= f.authorizeOn {
		return &domain.AuthResult{Authorized: true, Profile: f.profile}, nil
	}
	return &domain.AuthResult{Authorized: false}, nil
}

func newTestPoller(v Verifier, maxPolls int) *Poller {
	logger := zerolog.Nop()
	return NewPoller(v, PollerConfig{
		BotUsername:   "OtelShinBot",
		SessionPrefix: "sess",
		Interval:      2 * time.Millisecond,
		MaxPolls:      maxPolls,
	}, NewProfileCache(), &logger)
}

func TestPoller_SuccessOnThirdPoll(t *testing.T) {
	verifier := &fakeVerifier{
		authorizeOn: 3,
		profile:     &models.Profile{ChatID: "42", Name: "Иван"},
	}
	poller := newTestPoller(verifier, 50)

	var successCount, timeoutCount atomic.Int64
	attempt := poller.Begin(context.Background(), Callbacks{
		OnSuccess: func(*models.Profile) { successCount.Add(1) },
		OnTimeout: func() { timeoutCount.Add(1) },
	})

	profile, err := attempt.Wait()
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "Иван", profile.Name)

	// авторизация на третьем запросе: ровно три запроса и ни одним больше
	assert.Equal(t, int64(3), verifier.calls.Load())
	assert.Equal(t, int64(1), successCount.Load())
	assert.Equal(t, int64(0), timeoutCount.Load())

	// после завершения новых запросов нет
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int64(3), verifier.calls.Load())
}

func TestPoller_TimeoutAfterMaxPolls(t *testing.T) {
	verifier := &fakeVerifier{} // никогда не авторизует
	poller := newTestPoller(verifier, 5)

	var successCount, timeoutCount atomic.Int64
	attempt := poller.Begin(context.Background(), Callbacks{
		OnSuccess: func(*models.Profile) { successCount.Add(1) },
		OnTimeout: func() { timeoutCount.Add(1) },
	})

	profile, err := attempt.Wait()
	require.ErrorIs(t, err, ErrPollTimeout)
	assert.Nil(t, profile)

	assert.Equal(t, int64(5), verifier.calls.Load())
	assert.Equal(t, int64(0), successCount.Load())
	assert.Equal(t, int64(1), timeoutCount.Load())
}

func TestPoller_TransientErrorsAreRetried(t *testing.T) {
	verifier := &fakeVerifier{
		authorizeOn: 4,
		failOn: map[int64]error{
			1: errors.New("connection refused"),
			2: errors.New("502 bad gateway"),
		},
		profile: &models.Profile{ChatID: "7"},
	}
	poller := newTestPoller(verifier, 50)

	attempt := poller.Begin(context.Background(), Callbacks{})
	profile, err := attempt.Wait()
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "7", profile.ChatID)
}

func TestPoller_Cancel(t *testing.T) {
	verifier := &fakeVerifier{} // никогда не авторизует
	poller := newTestPoller(verifier, 1000)

	var successCount, timeoutCount atomic.Int64
	attempt := poller.Begin(context.Background(), Callbacks{
		OnSuccess: func(*models.Profile) { successCount.Add(1) },
		OnTimeout: func() { timeoutCount.Add(1) },
	})

	time.Sleep(10 * time.Millisecond)
	attempt.Cancel()

	profile, err := attempt.Wait()
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, profile)

	// отмена не считается ни таймаутом, ни успехом
	assert.Equal(t, int64(0), successCount.Load())
	assert.Equal(t, int64(0), timeoutCount.Load())

	calls := verifier.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, verifier.calls.Load(), "no requests after cancel")
}

func TestPoller_AttemptHasSessionAndDeepLink(t *testing.T) {
	verifier := &fakeVerifier{authorizeOn: 1, profile: &models.Profile{ChatID: "1"}}
	poller := newTestPoller(verifier, 10)

	attempt := poller.Begin(context.Background(), Callbacks{})
	defer attempt.Cancel()

	assert.True(t, strings.HasPrefix(attempt.SessionID, "sess_"))
	assert.Equal(t, "https://t.me/OtelShinBot?start="+attempt.SessionID, attempt.DeepLink)

	_, err := attempt.Wait()
	require.NoError(t, err)
}

func TestPoller_SuccessPopulatesCache(t *testing.T) {
	verifier := &fakeVerifier{
		authorizeOn: 1,
		profile:     &models.Profile{ChatID: "42", Name: "Иван"},
	}
	logger := zerolog.Nop()
	cache := NewProfileCache()
	poller := NewPoller(verifier, PollerConfig{
		BotUsername: "OtelShinBot",
		Interval:    time.Millisecond,
		MaxPolls:    10,
	}, cache, &logger)

	attempt := poller.Begin(context.Background(), Callbacks{})
	_, err := attempt.Wait()
	require.NoError(t, err)

	cached := cache.Get()
	require.NotNil(t, cached)
	assert.Equal(t, "Иван", cached.Name)
}
