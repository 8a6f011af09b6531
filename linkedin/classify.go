package linkedin

import (
	"net/http"
	"strings"

	"github.com/AliAlAbbassi/air1/models"
)

const evidenceLimit = 200

// Classifier maps a raw invitation response to one of the closed outcome
// classifications. Classify is pure and total: the same status/body pair
// always yields the same result and nothing panics on garbage input.
type Classifier struct {
	phrases []string
}

// NewClassifier builds a classifier with the given duplicate-phrase
// allow-list. Phrases are matched case-insensitively against the body.
func NewClassifier(phrases []string) *Classifier {
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			lowered = append(lowered, p)
		}
	}

	return &Classifier{phrases: lowered}
}

// Classify interprets an invitation response. The returned evidence is a short
// diagnostic: the matched phrase, or a truncated body snippet.
//
// A bare 422 is InvalidRequest, never a success. Collapsing that distinction
// is what once wrote false "connected" rows into the CRM.
func (c *Classifier) Classify(status int, body []byte) (models.Classification, string) {
	lowered := strings.ToLower(string(body))

	switch {
	case status == http.StatusCreated:
		return models.ClassificationSuccess, "invitation created"
	case status == http.StatusUnprocessableEntity:
		if phrase, ok := c.matchDuplicate(lowered); ok {
			return models.ClassificationDuplicate, phrase
		}

		return models.ClassificationInvalidRequest, truncate(lowered)
	case status == http.StatusTooManyRequests || strings.Contains(lowered, "throttle"):
		return models.ClassificationRateLimited, truncate(lowered)
	default:
		return models.ClassificationUnknown, truncate(lowered)
	}
}

func (c *Classifier) matchDuplicate(lowered string) (string, bool) {
	for _, phrase := range c.phrases {
		if strings.Contains(lowered, phrase) {
			return phrase, true
		}
	}

	return "", false
}

func truncate(s string) string {
	if len(s) > evidenceLimit {
		return s[:evidenceLimit]
	}

	return s
}
