package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxSnippetBytes = 512

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http response status %d", e.StatusCode)
	}
	return fmt.Sprintf("http response status %d: %s", e.StatusCode, e.Message)
}

// CheckStatus returns a *StatusError when resp is not a 2xx response.
func CheckStatus(resp Response) error {
	if resp == nil {
		return errors.New("http response is nil")
	}
	code := resp.StatusCode()
	if code >= 200 && code < 300 {
		return nil
	}
	return &StatusError{StatusCode: code, Message: responseMessage(resp)}
}

// responseMessage picks the most readable explanation the backend sent.
func responseMessage(resp Response) string {
	body := resp.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}

	contentType := strings.ToLower(resp.Header().Get("Content-Type"))
	switch {
	case strings.Contains(contentType, "json"):
		if msg := jsonMessage(body); msg != "" {
			return msg
		}
	case strings.Contains(contentType, "html"):
		if title := htmlTitle(body); title != "" {
			return title
		}
	}
	return readBodySnippet(body)
}

func jsonMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func htmlTitle(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func readBodySnippet(body []byte) string {
	if len(body) > maxSnippetBytes {
		body = body[:maxSnippetBytes]
	}
	return strings.TrimSpace(string(body))
}
