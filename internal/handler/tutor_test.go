package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openalpha/api/internal/session"
)

func TestTutorRoutesRequireAuth(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, http.MethodGet, "/api/tutor/next/math", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/tutor/next/math", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTutorRoutesRequireStudentRole(t *testing.T) {
	env := newEnv(t)
	_, parentToken := env.createParent(t)

	w := env.do(t, http.MethodGet, "/api/tutor/next/math", parentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "forbidden", decodeBody(t, w)["code"])
}

func TestConceptsGradeGatedWithMasteryOverlay(t *testing.T) {
	env := newEnv(t)
	_, token := env.createStudent(t, 1)

	w := env.do(t, http.MethodPost, "/api/tutor/quiz/submit", token, gin.H{
		"subject": "math", "conceptId": "math-counting", "score": 90,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/tutor/concepts/math", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)

	concepts := body["concepts"].([]interface{})
	require.NotEmpty(t, concepts)
	for _, raw := range concepts {
		concept := raw.(map[string]interface{})
		assert.LessOrEqual(t, concept["gradeLevel"].(float64), float64(1))
		if concept["id"] == "math-counting" {
			assert.Equal(t, float64(90), concept["masteryScore"])
			assert.Equal(t, true, concept["completed"])
		} else {
			assert.Equal(t, false, concept["completed"])
		}
	}
}

func TestConceptsUnknownSubject(t *testing.T) {
	env := newEnv(t)
	_, token := env.createStudent(t, 1)

	w := env.do(t, http.MethodGet, "/api/tutor/concepts/latin", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNextAdvancesAfterMastery(t *testing.T) {
	env := newEnv(t)
	_, token := env.createStudent(t, 1)

	w := env.do(t, http.MethodGet, "/api/tutor/next/math", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	concept := decodeBody(t, w)["concept"].(map[string]interface{})
	assert.Equal(t, "math-counting", concept["id"])

	// Below threshold: the recommendation does not move.
	w = env.do(t, http.MethodPost, "/api/tutor/quiz/submit", token, gin.H{
		"subject": "math", "conceptId": "math-counting", "score": 70,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/tutor/next/math", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	concept = decodeBody(t, w)["concept"].(map[string]interface{})
	assert.Equal(t, "math-counting", concept["id"])

	w = env.do(t, http.MethodPost, "/api/tutor/quiz/submit", token, gin.H{
		"subject": "math", "conceptId": "math-counting", "score": 95,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/tutor/next/math", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	concept = decodeBody(t, w)["concept"].(map[string]interface{})
	assert.Equal(t, "math-addition-basic", concept["id"])
}

func TestChatCreatesAndContinuesSession(t *testing.T) {
	env := newEnv(t)
	_, token := env.createStudent(t, 1)

	w := env.do(t, http.MethodPost, "/api/tutor/chat", token, gin.H{
		"message": "help me count", "subject": "math", "conceptId": "math-counting",
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	sessionID := body["sessionId"].(string)
	require.NotEmpty(t, sessionID)
	assert.Len(t, body["messages"].([]interface{}), 2)

	w = env.do(t, http.MethodPost, "/api/tutor/chat", token, gin.H{
		"message": "what about 5?", "subject": "math", "conceptId": "math-counting",
		"sessionId": sessionID,
	})
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, sessionID, body["sessionId"])
	assert.Len(t, body["messages"].([]interface{}), 4)
	assert.Equal(t, 2, env.completer.calls)
}

func TestChatCompletionFailureLeavesTranscriptUntouched(t *testing.T) {
	env := newEnv(t)
	user, token := env.createStudent(t, 1)

	w := env.do(t, http.MethodPost, "/api/tutor/chat", token, gin.H{
		"message": "help me count", "subject": "math", "conceptId": "math-counting",
	})
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := decodeBody(t, w)["sessionId"].(string)

	env.completer.err = dependencyErr("tutoring service is unavailable, try again")
	w = env.do(t, http.MethodPost, "/api/tutor/chat", token, gin.H{
		"message": "this one fails", "subject": "math", "conceptId": "math-counting",
		"sessionId": sessionID,
	})
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "dependency", decodeBody(t, w)["code"])

	// The failed turn left no user-only entry behind.
	sess, err := env.sessions.GetOwned(context.Background(), sessionID, user.ID)
	require.NoError(t, err)
	messages, err := session.Transcript(sess)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "help me count", messages[0].Content)
}

func TestChatSessionOwnership(t *testing.T) {
	env := newEnv(t)
	_, token := env.createStudent(t, 1)
	_, otherToken := env.createUser(t, "other@example.com", "student", intptr(1))

	w := env.do(t, http.MethodPost, "/api/tutor/chat", token, gin.H{
		"message": "help me count", "subject": "math", "conceptId": "math-counting",
	})
	require.Equal(t, http.StatusOK, w.Code)
	sessionID := decodeBody(t, w)["sessionId"].(string)

	w = env.do(t, http.MethodPost, "/api/tutor/chat", otherToken, gin.H{
		"message": "hijack attempt", "subject": "math", "conceptId": "math-counting",
		"sessionId": sessionID,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatUnknownConcept(t *testing.T) {
	env := newEnv(t)
	_, token := env.createStudent(t, 1)

	w := env.do(t, http.MethodPost, "/api/tutor/chat", token, gin.H{
		"message": "hello", "subject": "math", "conceptId": "math-nope",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, env.completer.calls)
}

func TestChatRequiresGradeLevel(t *testing.T) {
	env := newEnv(t)
	_, token := env.createUser(t, "ungraded@example.com", "student", nil)

	w := env.do(t, http.MethodPost, "/api/tutor/chat", token, gin.H{
		"message": "hello", "subject": "math", "conceptId": "math-counting",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "grade level not set", decodeBody(t, w)["error"])
}

func TestQuiz(t *testing.T) {
	env := newEnv(t)
	_, token := env.createStudent(t, 1)

	w := env.do(t, http.MethodPost, "/api/tutor/quiz", token, gin.H{
		"subject": "math", "conceptId": "math-counting",
	})
	require.Equal(t, http.StatusOK, w.Code)
	questions := decodeBody(t, w)["questions"].([]interface{})
	require.Len(t, questions, 1)
}

func TestSubmitQuizValidation(t *testing.T) {
	env := newEnv(t)
	_, token := env.createStudent(t, 1)

	w := env.do(t, http.MethodPost, "/api/tutor/quiz/submit", token, gin.H{
		"subject": "math", "conceptId": "math-counting", "score": 150,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/tutor/quiz/submit", token, gin.H{
		"subject": "math", "conceptId": "math-counting",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Zero is a valid score, not a missing one.
	w = env.do(t, http.MethodPost, "/api/tutor/quiz/submit", token, gin.H{
		"subject": "math", "conceptId": "math-counting", "score": 0,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSubmitQuizResponseMessages(t *testing.T) {
	env := newEnv(t)
	_, token := env.createStudent(t, 1)

	w := env.do(t, http.MethodPost, "/api/tutor/quiz/submit", token, gin.H{
		"subject": "math", "conceptId": "math-counting", "score": 60,
	})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, false, body["passed"])
	assert.Equal(t, "Keep practicing to reach 80% mastery.", body["message"])

	w = env.do(t, http.MethodPost, "/api/tutor/quiz/submit", token, gin.H{
		"subject": "math", "conceptId": "math-counting", "score": 85,
	})
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, true, body["passed"])
	assert.Equal(t, "Congratulations! You've mastered this concept!", body["message"])
}

func intptr(i int) *int { return &i }
