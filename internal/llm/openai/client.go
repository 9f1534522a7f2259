package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fichas/constants"
	"github.com/joseph-ayodele/fichas/internal/common"
	"github.com/joseph-ayodele/fichas/internal/entity"
	"github.com/joseph-ayodele/fichas/internal/llm"
)

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float32       `json:"temperature"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// statusError carries the HTTP status of a failed completion call.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("openai status %d: %s", e.status, e.body)
}

// ExtractImage implements llm.VisionExtractor using a single chat/completions
// request carrying the prompt and the image as a data URL.
func (c *Client) ExtractImage(ctx context.Context, req llm.ImageRequest) entity.AnalysisResult {
	rid := uuid.NewString()
	start := time.Now()
	res := entity.AnalysisResult{Fields: entity.EmptyFields(), Method: constants.MethodChatGPT}

	fail := func(event string, err error) entity.AnalysisResult {
		c.logger.Error(event,
			"req_id", rid,
			"file", req.FilenameHint,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		res.Err = common.ExtractionError(err)
		res.Diagnostic = "Erro na análise com ChatGPT: " + err.Error()
		return res
	}

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"file", req.FilenameHint,
	)

	if !c.Configured() {
		return fail("llm.extract.no_api_key", errors.New("OPENAI_API_KEY not configured"))
	}

	dataURL, mt, err := llm.ReadAsDataURL(req.Path, c.cfg.MaxImageBytes)
	if err != nil {
		return fail("llm.extract.read_image_error", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	body := chatRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: llm.BuildExtractionPrompt()},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURL, Detail: c.cfg.ImageDetail}},
			},
		}},
	}

	content, err := c.complete(ctx, rid, body)
	if err != nil {
		return fail("llm.extract.http_error", err)
	}
	res.Diagnostic = content

	fields, raw, err := llm.FieldsFromContent(content, c.logger)
	if err != nil {
		c.logger.Warn("llm.extract.parse_failed",
			"req_id", rid,
			"error", err,
			"content_len", len(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return res
	}
	if vErr := llm.ValidateJSONAgainstSchema(llm.BuildFieldsJSONSchema(), raw); vErr != nil {
		c.logger.Warn("llm.extract.schema_mismatch", "req_id", rid, "error", vErr)
	}
	res.Fields = fields

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"mime", mt,
		"filled", fields.NonEmpty(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res
}

// complete posts the request, retrying rate limits, 5xx, and transport errors
// with exponential backoff, and returns the first choice's content.
func (c *Client) complete(ctx context.Context, rid string, body chatRequest) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := c.cfg.RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			c.logger.Warn("llm.extract.retry", "req_id", rid, "attempt", attempt, "backoff", backoff, "error", lastErr)
			if err := c.sleep(ctx, backoff); err != nil {
				return "", fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
		}

		raw, status, err := llm.SendJSON(ctx, c.http, endpoint, body, headers, rid, c.logger)
		if err != nil {
			if status != 0 {
				err = &statusError{status: status, body: truncate(string(raw), 512)}
			}
			lastErr = err
			if ctx.Err() != nil || !retryable(status) {
				return "", err
			}
			continue
		}

		var cc chatResponse
		if err := json.Unmarshal(raw, &cc); err != nil {
			return "", fmt.Errorf("decode openai response: %w", err)
		}
		if len(cc.Choices) == 0 {
			return "", errors.New("no choices in openai response")
		}
		return strings.TrimSpace(cc.Choices[0].Message.Content), nil
	}
	return "", lastErr
}

// retryable reports whether a failed call should be attempted again.
// Status 0 means the request never got a response.
func retryable(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
