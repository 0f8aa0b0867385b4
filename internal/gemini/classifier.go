package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"babylog/internal/config"
	"babylog/internal/models"
)

// maxInlineAudioBytes is the ceiling for sending audio inline with the
// request. Larger clips would need the file-upload transfer mode, which this
// service does not implement.
const maxInlineAudioBytes = 20 << 20

// Request carries one clip to classify.
type Request struct {
	Audio    []byte
	MIMEType string
	// ActivityHint is an optional caller-supplied nudge, e.g. the shortcut
	// button the user pressed before speaking.
	ActivityHint string
}

// Classifier wraps one Gemini structured-output call that transcribes a
// short audio clip and picks a log type from the fixed taxonomy.
type Classifier struct {
	client *genai.Client
	model  string
}

func NewClassifier(ctx context.Context, cfg config.GeminiConfig) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Classifier{client: client, model: cfg.Model}, nil
}

// Classify sends the clip with the taxonomy prompt and a two-field JSON
// response schema. Transport and parse failures are returned to the caller;
// missing fields in an otherwise valid response are defaulted, not treated
// as errors.
func (c *Classifier) Classify(ctx context.Context, req Request) (models.Classification, error) {
	if len(req.Audio) == 0 {
		return models.Classification{}, fmt.Errorf("empty audio payload")
	}
	if len(req.Audio) > maxInlineAudioBytes {
		return models.Classification{}, fmt.Errorf("audio payload %d bytes exceeds inline limit", len(req.Audio))
	}
	mime := req.MIMEType
	if mime == "" {
		mime = "audio/m4a"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(buildPrompt(req.ActivityHint)),
			genai.NewPartFromBytes(req.Audio, mime),
		}, genai.RoleUser),
	}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(),
	})
	if err != nil {
		return models.Classification{}, fmt.Errorf("generate content: %w", err)
	}
	return parseClassification([]byte(resp.Text()))
}

func responseSchema() *genai.Schema {
	return &genai.Schema{
		Type:     genai.TypeObject,
		Required: []string{"LogType", "Recording Transcript"},
		Properties: map[string]*genai.Schema{
			"LogType":              {Type: genai.TypeString},
			"Recording Transcript": {Type: genai.TypeString},
		},
	}
}

func buildPrompt(activityHint string) string {
	var b strings.Builder
	b.WriteString("You are a baby logging assistant. Listen to this audio and extract the data.\n")
	b.WriteString("Classify the \"LogType\" into exactly one of these:\n")
	for _, logType := range models.LogTypes {
		b.WriteString("- ")
		b.WriteString(logType)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "(Default to %s if unsure)\n", models.DefaultLogType)
	if activityHint != "" {
		fmt.Fprintf(&b, "The user pressed the %q shortcut before recording; prefer that log type when the audio is consistent with it.\n", activityHint)
	}
	return b.String()
}

// parseClassification decodes the structured response; absent or empty
// fields substitute the documented defaults rather than failing.
func parseClassification(raw []byte) (models.Classification, error) {
	var payload struct {
		LogType    string `json:"LogType"`
		Transcript string `json:"Recording Transcript"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return models.Classification{}, fmt.Errorf("decode classification response: %w", err)
	}
	result := models.Classification{
		LogType:    strings.TrimSpace(payload.LogType),
		Transcript: strings.TrimSpace(payload.Transcript),
	}
	return result.WithDefaults(), nil
}
