/*
Package judge is the client for the external code judge.

Given a submission and the ordered testcases of a question, it normalizes
each input into a canonical stdin, wraps the user's source in a
language-specific harness, submits to the judge with CPU and memory limits,
and compares stdout against the expected output semantically.

The client is idempotent: it never mutates arena state; all it returns is the
per-case verdict list.
*/
package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"bitarena/internal/app/store"
	"bitarena/internal/pkg/logx"
	"bitarena/internal/pkg/metrics"
)

// Supported submission languages.
const (
	LangPython     = "python"
	LangCpp        = "cpp"
	LangJava       = "java"
	LangJavaScript = "javascript"
	LangGo         = "go"
)

// languageIDs maps supported languages onto the judge's language identifiers.
var languageIDs = map[string]int{
	LangPython:     71,
	LangCpp:        54,
	LangJava:       62,
	LangJavaScript: 63,
	LangGo:         60,
}

// Execution limits applied to every submission.
const (
	cpuTimeLimitSeconds = 2
	memoryLimitKB       = 128000
)

// Sentinel errors distinguishing judge failure modes. Transport and timeout
// errors abort the remaining cases; compile and runtime errors mark a single
// case failed and continue.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrInputMalformed      = errors.New("testcase input malformed")
	ErrTransport           = errors.New("judge transport error")
	ErrTimeout             = errors.New("judge request timed out")
)

// CaseResult is the verdict for a single testcase.
type CaseResult struct {
	TestCaseID   int64  `json:"test_case_id"`
	Input        string `json:"input"`
	Expected     string `json:"expected"`
	Actual       string `json:"actual"`
	Error        string `json:"error,omitempty"`
	Passed       bool   `json:"passed"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Result is the aggregate verdict of one submission over all testcases.
type Result struct {
	AllPassed bool         `json:"all_passed"`
	Results   []CaseResult `json:"results"`
}

// Client talks to the external judge over HTTP.
type Client struct {
	httpClient *http.Client
	submitURL  string
}

// NewClient constructs a judge client for the given submission endpoint.
func NewClient(submitURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		submitURL:  submitURL,
	}
}

// submission is the judge's request body.
type submission struct {
	SourceCode   string `json:"source_code"`
	LanguageID   int    `json:"language_id"`
	Stdin        string `json:"stdin"`
	CPUTimeLimit int    `json:"cpu_time_limit"`
	MemoryLimit  int    `json:"memory_limit"`
}

// execution is the judge's response body.
type execution struct {
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
}

// Verify judges the submission against every testcase in order. It returns a
// per-case verdict list, or one of the sentinel errors when the submission
// cannot be judged at all.
func (c *Client) Verify(ctx context.Context, code, language string, testcases []*store.TestCase) (*Result, error) {
	if _, ok := languageIDs[language]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	start := time.Now()
	defer func() {
		metrics.JudgeLatency.WithLabelValues(language).Observe(time.Since(start).Seconds())
	}()

	result := &Result{AllPassed: true}

	for _, tc := range testcases {
		stdin, err := normalizeInput(language, tc.InputData)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputMalformed, err)
		}

		wrapped, err := WrapCode(code, language, tc.InputData)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputMalformed, err)
		}

		exec, err := c.execute(ctx, &submission{
			SourceCode:   wrapped,
			LanguageID:   languageIDs[language],
			Stdin:        stdin,
			CPUTimeLimit: cpuTimeLimitSeconds,
			MemoryLimit:  memoryLimitKB,
		})
		if err != nil {
			// Transport-level failures abort the remaining cases.
			return nil, err
		}

		caseResult := judgeCase(tc, exec)
		if !caseResult.Passed {
			result.AllPassed = false
		}
		result.Results = append(result.Results, caseResult)
	}

	return result, nil
}

// judgeCase derives a single case verdict from a judge execution.
// Compile and runtime errors fail the case without aborting the run.
func judgeCase(tc *store.TestCase, exec *execution) CaseResult {
	actual := strings.TrimRight(strings.TrimSpace(exec.Stdout), "\r\n")

	expected := strings.TrimRight(strings.TrimSpace(tc.ExpectedOutput), "\r\n")
	if strings.HasPrefix(expected, `"`) && strings.HasSuffix(expected, `"`) && len(expected) >= 2 {
		expected = expected[1 : len(expected)-1]
	}

	errorOutput := strings.TrimSpace(exec.Stderr)
	if errorOutput == "" {
		errorOutput = strings.TrimSpace(exec.CompileOutput)
	}

	passed := errorOutput == "" && SemanticEqual(actual, expected)

	caseResult := CaseResult{
		TestCaseID: tc.ID,
		Input:      tc.InputData,
		Expected:   expected,
		Actual:     actual,
		Error:      errorOutput,
		Passed:     passed,
	}
	if !passed {
		caseResult.ErrorMessage = fmt.Sprintf("Test case failed: expected '%s', got '%s'", expected, actual)
	}
	return caseResult
}

// execute submits one wrapped program to the judge, retrying transient
// transport failures with exponential backoff before giving up.
func (c *Client) execute(ctx context.Context, sub *submission) (*execution, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var exec *execution

	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.submitURL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if isTimeout(err) {
				return fmt.Errorf("%w: %v", ErrTimeout, err)
			}
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrTransport, err))
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrTransport, err))
		}

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("%w: judge responded %d", ErrTransport, resp.StatusCode))
		}
		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: judge responded %d: %s", ErrTransport, resp.StatusCode, body)
		}

		var decoded execution
		if err := json.Unmarshal(body, &decoded); err != nil {
			return fmt.Errorf("%w: cannot decode judge response: %v", ErrTransport, err)
		}

		exec = &decoded
		return nil
	})
	if err != nil {
		logx.Warn("Judge execution failed", "error", err)
		if errors.Is(err, ErrTimeout) {
			return nil, err
		}
		if errors.Is(err, ErrTransport) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	return exec, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
