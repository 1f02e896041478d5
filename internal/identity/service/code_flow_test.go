package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	userStore "touch/internal/identity/store/user"
	jwttoken "touch/internal/jwt_token"
	dErrors "touch/pkg/domain-errors"
	"touch/pkg/requestcontext"
)

// recordingNotifier remembers the last message per phone.
type recordingNotifier struct {
	mu   sync.Mutex
	last map[string]string
}

func (n *recordingNotifier) Send(_ context.Context, phone, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		n.last = make(map[string]string)
	}
	n.last[phone] = message
	return nil
}

type flowFixture struct {
	service *Service
	jwt     *jwttoken.JWTService
	codes   chan string
	start   time.Time
}

// newFlowFixture wires the service to the in-memory store and the real JWT
// service. Every generated code is also pushed on codes.
func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()
	f := &flowFixture{
		jwt:   jwttoken.NewJWTService("test-key", "touch", "touch-app"),
		codes: make(chan string, 16),
		start: time.Now().UTC().Truncate(time.Second),
	}
	counter := 0
	svc, err := New(userStore.New(), &recordingNotifier{}, f.jwt,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithCodeGenerator(func() (string, error) {
			counter++
			code := fmt.Sprintf("%06d", counter)
			f.codes <- code
			return code, nil
		}),
	)
	require.NoError(t, err)
	f.service = svc
	return f
}

func (f *flowFixture) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), f.start.Add(offset))
}

func (f *flowFixture) sendCode(t *testing.T, phone string, offset time.Duration) string {
	t.Helper()
	_, err := f.service.SendCode(f.at(offset), phone)
	require.NoError(t, err)
	return <-f.codes
}

func TestCodeFlow_SecondSendInvalidatesFirst(t *testing.T) {
	f := newFlowFixture(t)
	first := f.sendCode(t, "5551234567", 0)
	second := f.sendCode(t, "5551234567", time.Second)

	_, err := f.service.VerifyCode(f.at(2*time.Second), "5551234567", first)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeBadRequest, "invalid code"))

	result, err := f.service.VerifyCode(f.at(2*time.Second), "5551234567", second)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestCodeFlow_VerifySucceedsAtMostOnce(t *testing.T) {
	f := newFlowFixture(t)
	code := f.sendCode(t, "5551234567", 0)

	result, err := f.service.VerifyCode(f.at(time.Second), "5551234567", code)
	require.NoError(t, err)

	claims, err := f.jwt.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID.String(), claims.Subject)

	_, err = f.service.VerifyCode(f.at(2*time.Second), "5551234567", code)
	require.ErrorIs(t, err, dErrors.New(dErrors.CodeBadRequest, "no code requested"))
}

func TestCodeFlow_ExpiryBoundary(t *testing.T) {
	t.Run("one second before expiry succeeds", func(t *testing.T) {
		f := newFlowFixture(t)
		code := f.sendCode(t, "5551234567", 0)

		_, err := f.service.VerifyCode(f.at(5*time.Minute-time.Second), "5551234567", code)
		require.NoError(t, err)
	})

	t.Run("one second after expiry fails", func(t *testing.T) {
		f := newFlowFixture(t)
		code := f.sendCode(t, "5551234567", 0)

		_, err := f.service.VerifyCode(f.at(5*time.Minute+time.Second), "5551234567", code)
		require.ErrorIs(t, err, dErrors.New(dErrors.CodeBadRequest, "code expired"))
	})
}

func TestCodeFlow_ConcurrentVerifyWinsOnce(t *testing.T) {
	f := newFlowFixture(t)
	code := f.sendCode(t, "5551234567", 0)

	const goroutines = 16
	var wg sync.WaitGroup
	var successes atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.service.VerifyCode(f.at(time.Second), "5551234567", code); err == nil {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), successes.Load())
}

func TestCodeFlow_SessionTokenLastsSevenDays(t *testing.T) {
	f := newFlowFixture(t)
	code := f.sendCode(t, "5551234567", 0)

	result, err := f.service.VerifyCode(f.at(time.Second), "5551234567", code)
	require.NoError(t, err)
	assert.Equal(t, f.start.Add(time.Second).Add(7*24*time.Hour), result.ExpiresAt)
}
