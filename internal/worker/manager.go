package worker

import (
	"context"
	"log"
	"path/filepath"
	"strings"

	"babylog/internal/gemini"
	"babylog/internal/models"
	"babylog/internal/tempstore"
)

// Classifying is the slice of the Gemini client the pipeline needs.
type Classifying interface {
	Classify(ctx context.Context, req gemini.Request) (models.Classification, error)
}

// Relaying forwards one classified entry to the external form.
type Relaying interface {
	Submit(ctx context.Context, date, timeOfDay, logType, transcript string) error
}

// Manager runs the three-step pipeline for one submission: read the temp
// file, classify the audio, relay the result. Errors are logged and dropped
// at this boundary; nobody upstream is waiting.
type Manager struct {
	store      *tempstore.Store
	classifier Classifying
	relay      Relaying
}

func NewManager(store *tempstore.Store, classifier Classifying, relay Relaying) *Manager {
	return &Manager{
		store:      store,
		classifier: classifier,
		relay:      relay,
	}
}

func (m *Manager) process(sub models.Submission) {
	// The temp file must not survive this job, whatever happens above.
	defer func() {
		if err := m.store.Remove(sub.FilePath); err != nil {
			log.Printf("remove temp file %s failed: %v", sub.FilePath, err)
		}
	}()

	ctx := context.Background()

	audio, err := m.store.Read(sub.FilePath)
	if err != nil {
		log.Printf("background job: read %s failed: %v", sub.FilePath, err)
		return
	}

	result, err := m.classifier.Classify(ctx, gemini.Request{
		Audio:        audio,
		MIMEType:     mimeFromName(sub.FilePath),
		ActivityHint: sub.Activity,
	})
	if err != nil {
		log.Printf("background job: classify %s failed: %v", sub.FilePath, err)
		return
	}
	debugLog("[worker] detected %q | text: %s", result.LogType, result.Transcript)

	if err := m.relay.Submit(ctx, sub.Date, sub.Time, result.LogType, result.Transcript); err != nil {
		log.Printf("background job: relay %s failed: %v", sub.FilePath, err)
		return
	}
	log.Printf("background job: %s logged as %q", filepath.Base(sub.FilePath), result.LogType)
}

func mimeFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".aac":
		return "audio/aac"
	default:
		// iOS shortcuts record m4a
		return "audio/m4a"
	}
}
