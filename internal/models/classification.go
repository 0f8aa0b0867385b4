package models

// DefaultLogType is used whenever the model cannot (or does not) name a
// taxonomy entry.
const DefaultLogType = "General Baby Log"

// LogTypes is the fixed taxonomy the classifier chooses from.
var LogTypes = []string{
	"Breastfeeding Left",
	"Breastfeeding Right",
	"Breastfeeding Pause",
	"Breastfeeding Unpause",
	"Nappy Change",
	"Start Burping",
	"Stop Burping",
	DefaultLogType,
}

// Classification is the outcome of one transcription/classification call.
type Classification struct {
	LogType    string `json:"log_type"`
	Transcript string `json:"transcript"`
}

// WithDefaults substitutes the fallback label for a missing log type. The
// transcript may legitimately be empty.
func (c Classification) WithDefaults() Classification {
	if c.LogType == "" {
		c.LogType = DefaultLogType
	}
	return c
}
