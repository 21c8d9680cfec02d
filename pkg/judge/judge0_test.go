package judge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestJudge0ClientSubmitAndPoll(t *testing.T) {
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/submissions/batch", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))

		switch r.Method {
		case http.MethodPost:
			var body struct {
				Submissions []Request `json:"submissions"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Submissions, 2)
			require.Equal(t, 71, body.Submissions[0].LanguageID)
			_, _ = w.Write([]byte(`[{"token":"a"},{"token":"b"}]`))
		case http.MethodGet:
			require.Equal(t, "a,b", r.URL.Query().Get("tokens"))
			if atomic.AddInt32(&polls, 1) == 1 {
				_, _ = w.Write([]byte(`{"submissions":[{"token":"a","status_id":2},{"token":"b","status_id":1}]}`))
				return
			}
			_, _ = w.Write([]byte(`{"submissions":[
				{"token":"b","status_id":4,"stdout":null,"stderr":"boom","time":"0.02","memory":900},
				{"token":"a","status_id":3,"stdout":"2\n","stderr":null,"time":"0.01","memory":1000}
			]}`))
		}
	}))
	defer server.Close()

	client, err := NewJudge0Client(Judge0Config{BaseURL: server.URL, APIKey: "secret", PollInterval: time.Millisecond, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ctx := context.Background()
	tokens, err := client.SubmitBatch(ctx, []Request{
		{SourceCode: "print(2)", LanguageID: 71, Stdin: "1", ExpectedOutput: "2"},
		{SourceCode: "print(2)", LanguageID: 71, Stdin: "2", ExpectedOutput: "3"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, tokens)

	results, err := client.PollResults(ctx, tokens)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, StatusAccepted, results[0].StatusID)
	require.InDelta(t, 0.01, results[0].Time, 1e-9)
	require.Equal(t, int64(1000), results[0].Memory)
	require.Equal(t, StatusRuntimeError, results[1].StatusID)
	require.Equal(t, "boom", results[1].Stderr)
	require.Equal(t, int32(2), atomic.LoadInt32(&polls))
}

func TestJudge0ClientReportsUnavailableOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewJudge0Client(Judge0Config{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.SubmitBatch(context.Background(), []Request{{SourceCode: "x", LanguageID: 71}})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnavailable))
}

func TestJudge0ClientPollHonoursDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"submissions":[{"token":"a","status_id":1}]}`))
	}))
	defer server.Close()

	client, err := NewJudge0Client(Judge0Config{BaseURL: server.URL, PollInterval: 5 * time.Millisecond})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = client.PollResults(ctx, []string{"a"})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrUnavailable))
}

func TestJudge0ClientChunksLargeBatches(t *testing.T) {
	var posts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		var body struct {
			Submissions []Request `json:"submissions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.LessOrEqual(t, len(body.Submissions), judge0MaxBatchSize)
		tokens := make([]string, 0, len(body.Submissions))
		for range body.Submissions {
			tokens = append(tokens, `{"token":"t"}`)
		}
		_, _ = w.Write([]byte("[" + strings.Join(tokens, ",") + "]"))
	}))
	defer server.Close()

	client, err := NewJudge0Client(Judge0Config{BaseURL: server.URL})
	require.NoError(t, err)

	requests := make([]Request, 45)
	tokens, err := client.SubmitBatch(context.Background(), requests)
	require.NoError(t, err)
	require.Len(t, tokens, 45)
	require.Equal(t, int32(3), atomic.LoadInt32(&posts))
}

func TestNewJudge0ClientRequiresBaseURL(t *testing.T) {
	_, err := NewJudge0Client(Judge0Config{})
	require.Error(t, err)
}
