package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/api/internal/apperr"
	"github.com/openalpha/api/internal/model"
)

func fakeBackend(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		})
	}))
}

func TestComplete(t *testing.T) {
	srv := fakeBackend(t, http.StatusOK, "Great question! Let's count together.")
	defer srv.Close()

	c := NewCompletionClient(srv.URL, "test-key", "test-model", 5*time.Second)
	reply, err := c.Complete(context.Background(), "You are a tutor.", []model.Message{
		{Role: "user", Content: "help me count"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Great question! Let's count together.", reply)
}

func TestCompleteBackendDown(t *testing.T) {
	srv := fakeBackend(t, http.StatusBadGateway, "")
	defer srv.Close()

	c := NewCompletionClient(srv.URL, "test-key", "test-model", 5*time.Second)
	_, err := c.Complete(context.Background(), "You are a tutor.", nil)
	require.ErrorIs(t, err, apperr.ErrDependency)
	assert.Equal(t, "tutoring service is unavailable, try again", apperr.Message(err))
}

func TestGenerateQuiz(t *testing.T) {
	quiz := `{"questions":[{"question":"What comes after 3?","options":["2","4","5","7"],"correctAnswer":"4","explanation":"Counting goes 1, 2, 3, 4."}]}`
	srv := fakeBackend(t, http.StatusOK, "```json\n"+quiz+"\n```")
	defer srv.Close()

	c := NewCompletionClient(srv.URL, "test-key", "test-model", 5*time.Second)
	result, err := c.GenerateQuiz(context.Background(), "math", "Counting Numbers", 0, 1)
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "4", result.Questions[0].CorrectAnswer)
	assert.Len(t, result.Questions[0].Options, 4)
}

func TestGenerateQuizUnparseable(t *testing.T) {
	srv := fakeBackend(t, http.StatusOK, "Sorry, I can't make a quiz right now.")
	defer srv.Close()

	c := NewCompletionClient(srv.URL, "test-key", "test-model", 5*time.Second)
	_, err := c.GenerateQuiz(context.Background(), "math", "Counting Numbers", 0, 1)
	require.ErrorIs(t, err, apperr.ErrDependency)
}

func TestGenerateQuizEmpty(t *testing.T) {
	srv := fakeBackend(t, http.StatusOK, `{"questions":[]}`)
	defer srv.Close()

	c := NewCompletionClient(srv.URL, "test-key", "test-model", 5*time.Second)
	_, err := c.GenerateQuiz(context.Background(), "math", "Counting Numbers", 0, 1)
	require.ErrorIs(t, err, apperr.ErrDependency)
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"bare":           {`{"a":1}`, `{"a":1}`},
		"fenced":         {"```json\n{\"a\":1}\n```", `{"a":1}`},
		"fenced no lang": {"```\n{\"a\":1}\n```", `{"a":1}`},
		"leading prose":  {"Here is your quiz:\n{\"a\":1}", `{"a":1}`},
		"whitespace":     {"  {\"a\":1}\n", `{"a":1}`},
		"no json at all": {"nothing here", "nothing here"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ExtractJSON(tc.in))
		})
	}
}
