package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shodh-ai/cortex/engine/brain"
	"github.com/shodh-ai/cortex/engine/session"
	"github.com/shodh-ai/cortex/pkg/config"
)

func makeSession(lastMessage string) *session.Session {
	return &session.Session{
		LastResponse:     "Previous response",
		LastMemoryIDs:    []string{"mem1"},
		InteractionCount: 1,
		LastUserMessage:  lastMessage,
	}
}

func TestDetectOutcome(t *testing.T) {
	t.Run("Should read gratitude as helpful", func(t *testing.T) {
		sess := makeSession("Help me with X")
		assert.Equal(t, OutcomeHelpful, DetectOutcome("Thanks, that works!", sess))
	})
	t.Run("Should read rejection as misleading", func(t *testing.T) {
		sess := makeSession("Help me with X")
		assert.Equal(t, OutcomeMisleading, DetectOutcome("No, that's wrong", sess))
	})
	t.Run("Should read a repeated request as misleading", func(t *testing.T) {
		sess := makeSession("List the files")
		assert.Equal(t, OutcomeMisleading, DetectOutcome("List the files again", sess))
	})
	t.Run("Should read task continuation as helpful", func(t *testing.T) {
		sess := makeSession("Add a function")
		assert.Equal(t, OutcomeHelpful, DetectOutcome("Now add the tests", sess))
	})
	t.Run("Should read a topic change as neutral", func(t *testing.T) {
		sess := makeSession("Help me fix this Rust error")
		assert.Equal(t, OutcomeNeutral, DetectOutcome("What's the weather like today outside?", sess))
	})
	t.Run("Should default to neutral without a signal", func(t *testing.T) {
		sess := makeSession("Help me fix this Rust error")
		assert.Equal(t, OutcomeNeutral, DetectOutcome("I still get the Rust error", sess))
	})
}

func TestTopicChange(t *testing.T) {
	t.Run("Should flag near-zero vocabulary overlap", func(t *testing.T) {
		sess := makeSession("Help me fix this Rust error")
		assert.True(t, isTopicChange("What's the weather like?", sess))
	})
	t.Run("Should not flag overlapping vocabulary", func(t *testing.T) {
		sess := makeSession("Help me fix this Rust error")
		assert.False(t, isTopicChange("I still get the Rust error", sess))
	})
	t.Run("Should not flag without a previous message", func(t *testing.T) {
		sess := makeSession("")
		assert.False(t, isTopicChange("Anything at all", sess))
	})
}

func TestRepetition(t *testing.T) {
	t.Run("Should match punctuation-insensitive repeats", func(t *testing.T) {
		sess := makeSession("List the files!")
		assert.True(t, isRepetition("list the files", sess))
	})
	t.Run("Should match explicit retry phrasing", func(t *testing.T) {
		sess := makeSession("Run the build")
		assert.True(t, isRepetition("one more time please", sess))
	})
	t.Run("Should not match a fresh request", func(t *testing.T) {
		sess := makeSession("Run the build")
		assert.False(t, isRepetition("Show me the logs", sess))
	})
}

func testBrainClient(t *testing.T, url string) *brain.Client {
	t.Helper()
	return brain.NewClient(&config.BrainConfig{
		URL:     url,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func TestReinforce(t *testing.T) {
	t.Run("Should post the outcome for surfaced memories", func(t *testing.T) {
		var got brain.ReinforceRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/reinforce", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(brain.ReinforceResponse{MemoriesProcessed: 2})
		}))
		defer srv.Close()

		err := Reinforce(context.Background(), testBrainClient(t, srv.URL), "u1", []string{"m1", "m2"}, OutcomeHelpful)
		require.NoError(t, err)
		assert.Equal(t, "u1", got.UserID)
		assert.Equal(t, []string{"m1", "m2"}, got.IDs)
		assert.Equal(t, "helpful", got.Outcome)
	})

	t.Run("Should skip neutral outcomes without touching the network", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Error("unexpected request")
		}))
		defer srv.Close()

		err := Reinforce(context.Background(), testBrainClient(t, srv.URL), "u1", []string{"m1"}, OutcomeNeutral)
		assert.NoError(t, err)
	})

	t.Run("Should skip empty memory sets without touching the network", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Error("unexpected request")
		}))
		defer srv.Close()

		err := Reinforce(context.Background(), testBrainClient(t, srv.URL), "u1", nil, OutcomeMisleading)
		assert.NoError(t, err)
	})
}

func TestProcessFeedback(t *testing.T) {
	t.Run("Should skip when the previous turn surfaced no memories", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			t.Error("unexpected request")
		}))
		defer srv.Close()

		sess := &session.Session{LastUserMessage: "Help me with X"}
		_, processed := ProcessFeedback(context.Background(), testBrainClient(t, srv.URL), "u1", "Thanks!", sess)
		assert.False(t, processed)
	})

	t.Run("Should detect and send the outcome", func(t *testing.T) {
		var got brain.ReinforceRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_ = json.NewEncoder(w).Encode(brain.ReinforceResponse{MemoriesProcessed: 1})
		}))
		defer srv.Close()

		sess := makeSession("Help me with X")
		outcome, processed := ProcessFeedback(context.Background(), testBrainClient(t, srv.URL), "u1", "Thanks, that works!", sess)
		assert.True(t, processed)
		assert.Equal(t, OutcomeHelpful, outcome)
		assert.Equal(t, "helpful", got.Outcome)
	})
}
