package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"touch/internal/chat/models"
)

func TestOperationsEmitSpans(t *testing.T) {
	f := newFanoutFixture(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(f.at(0)) })

	svc, err := New(f.chats, f.messages, f.svc.users,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithTracerProvider(tp),
	)
	require.NoError(t, err)

	created, err := svc.CreateChat(f.at(0), f.alice.ID, "Bob", f.bob.PhoneNumber)
	require.NoError(t, err)
	chatID := created.Chat.ID

	_, err = svc.SendMessage(f.at(time.Second), f.alice.ID, chatID, "hi")
	require.NoError(t, err)
	_, err = svc.GetMessages(f.at(2*time.Second), f.alice.ID, chatID)
	require.NoError(t, err)
	_, err = svc.MarkRead(f.at(3*time.Second), f.bob.ID, *created.Chat.LinkedChatID)
	require.NoError(t, err)
	_, err = svc.ListChats(f.at(4*time.Second), f.alice.ID)
	require.NoError(t, err)
	pinned := true
	_, err = svc.UpdateChat(f.at(5*time.Second), f.alice.ID, chatID, models.FlagsUpdate{Pinned: &pinned})
	require.NoError(t, err)
	_, err = svc.SearchUsers(f.at(6*time.Second), f.alice.ID, "555")
	require.NoError(t, err)
	require.NoError(t, svc.DeleteChat(f.at(7*time.Second), f.alice.ID, chatID))

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.ElementsMatch(t, []string{
		"chat.CreateChat",
		"chat.SendMessage",
		"chat.GetMessages",
		"chat.MarkRead",
		"chat.ListChats",
		"chat.UpdateChat",
		"chat.SearchUsers",
		"chat.DeleteChat",
	}, names)
}
