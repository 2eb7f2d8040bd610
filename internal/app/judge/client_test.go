package judge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitarena/internal/app/store"
)

func testcases() []*store.TestCase {
	return []*store.TestCase{
		{ID: 1, InputData: "([2, 7, 11, 15], 9)", ExpectedOutput: "[0, 1]"},
		{ID: 2, InputData: "([3, 2, 4], 6)", ExpectedOutput: "[1, 2]"},
		{ID: 3, InputData: "([3, 3], 6)", ExpectedOutput: "[0, 1]"},
	}
}

// fakeJudge answers every submission with the canned executions, in order.
func fakeJudge(t *testing.T, executions []execution) *httptest.Server {
	t.Helper()

	var calls atomic.Int64

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sub submission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		assert.NotEmpty(t, sub.SourceCode)
		assert.NotZero(t, sub.LanguageID)

		i := int(calls.Add(1)) - 1
		if i >= len(executions) {
			i = len(executions) - 1
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(executions[i])
	}))
}

func TestVerifyAllPassed(t *testing.T) {
	server := fakeJudge(t, []execution{
		{Stdout: "[0, 1]\n"},
		{Stdout: "[1, 2]\n"},
		{Stdout: "[0, 1]\n"},
	})
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.Verify(context.Background(), pythonTwoSum, LangPython, testcases())
	require.NoError(t, err)

	assert.True(t, result.AllPassed)
	require.Len(t, result.Results, 3)
	for _, cr := range result.Results {
		assert.True(t, cr.Passed)
		assert.Empty(t, cr.ErrorMessage)
	}
}

func TestVerifyWrongAnswerFailsCase(t *testing.T) {
	server := fakeJudge(t, []execution{
		{Stdout: "[0, 1]\n"},
		{Stdout: "[9, 9]\n"},
		{Stdout: "[0, 1]\n"},
	})
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.Verify(context.Background(), pythonTwoSum, LangPython, testcases())
	require.NoError(t, err)

	assert.False(t, result.AllPassed)
	require.Len(t, result.Results, 3)
	assert.True(t, result.Results[0].Passed)
	assert.False(t, result.Results[1].Passed)
	assert.Contains(t, result.Results[1].ErrorMessage, "expected '[1, 2]'")
	assert.True(t, result.Results[2].Passed)
}

func TestVerifyRuntimeErrorContinues(t *testing.T) {
	server := fakeJudge(t, []execution{
		{Stderr: "Traceback (most recent call last): IndexError"},
		{Stdout: "[1, 2]\n"},
		{Stdout: "[0, 1]\n"},
	})
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.Verify(context.Background(), pythonTwoSum, LangPython, testcases())
	require.NoError(t, err)

	assert.False(t, result.AllPassed)
	require.Len(t, result.Results, 3)
	assert.False(t, result.Results[0].Passed)
	assert.Contains(t, result.Results[0].Error, "IndexError")
	assert.True(t, result.Results[1].Passed)
}

func TestVerifyUnsupportedLanguage(t *testing.T) {
	client := NewClient("http://judge.invalid", time.Second)

	_, err := client.Verify(context.Background(), "puts 'hi'", "ruby", testcases())
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestVerifyMalformedInputAborts(t *testing.T) {
	client := NewClient("http://judge.invalid", time.Second)

	cases := []*store.TestCase{{ID: 1, InputData: "][ not a literal", ExpectedOutput: "1"}}
	_, err := client.Verify(context.Background(), pythonTwoSum, LangPython, cases)
	assert.ErrorIs(t, err, ErrInputMalformed)
}

func TestVerifyTransportErrorAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "judge exploded", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Verify(context.Background(), pythonTwoSum, LangPython, testcases())
	assert.ErrorIs(t, err, ErrTransport)
}

func TestVerifyRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(execution{Stdout: "[0, 1]\n"})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	result, err := client.Verify(context.Background(), pythonTwoSum, LangPython, testcases()[:1])
	require.NoError(t, err)

	assert.True(t, result.AllPassed)
	assert.GreaterOrEqual(t, calls.Load(), int64(2))
}
