package relay

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"babylog/internal/config"
)

// ManualFallbackNote is submitted as the transcript when a button log
// carries no note.
const ManualFallbackNote = "Manual Button Log"

// FormClient posts one form-encoded submission per log entry to the external
// Google Form. It is best-effort: the response body is never inspected and a
// non-2xx status is logged, not surfaced. Duplicate calls produce duplicate
// spreadsheet rows; there is no idempotency key.
type FormClient struct {
	httpClient *http.Client
	url        string
	fields     config.FormFields
}

func NewFormClient(cfg config.FormConfig) *FormClient {
	return &FormClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		url:        cfg.URL,
		fields:     cfg.Fields,
	}
}

// Submit relays one log entry. Only transport failures return an error.
func (c *FormClient) Submit(ctx context.Context, date, timeOfDay, logType, transcript string) error {
	form := url.Values{}
	form.Set(c.fields.Date, date)
	form.Set(c.fields.Time, timeOfDay)
	form.Set(c.fields.LogType, logType)
	form.Set(c.fields.Transcript, transcript)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build form request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post form: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("form relay returned http %d for log type %q", resp.StatusCode, logType)
	}
	return nil
}
