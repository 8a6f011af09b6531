package linkedin

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AliAlAbbassi/air1/config"
	"github.com/AliAlAbbassi/air1/models"
)

func TestClassify(t *testing.T) {
	classifier := NewClassifier(config.DefaultDuplicatePhrases)

	tests := []struct {
		name     string
		status   int
		body     string
		want     models.Classification
		evidence string
	}{
		{
			name:   "201 created",
			status: 201,
			body:   `{"data":{"value":{"invitationUrn":"urn:li:invitation:123"}}}`,
			want:   models.ClassificationSuccess,
		},
		{
			name:     "422 already connected",
			status:   422,
			body:     `{"data":{"status":422,"message":"You are already connected to this member"}}`,
			want:     models.ClassificationDuplicate,
			evidence: "already connected",
		},
		{
			name:     "422 pending invitation",
			status:   422,
			body:     `An invitation is pending for this member`,
			want:     models.ClassificationDuplicate,
			evidence: "invitation is pending",
		},
		{
			name:   "422 minimal error body is not a duplicate",
			status: 422,
			body:   `{"data":{"status":422},"included":[]}`,
			want:   models.ClassificationInvalidRequest,
		},
		{
			name:   "422 empty body",
			status: 422,
			body:   "",
			want:   models.ClassificationInvalidRequest,
		},
		{
			name:   "429 throttled",
			status: 429,
			body:   "",
			want:   models.ClassificationRateLimited,
		},
		{
			name:   "200 with throttle body",
			status: 200,
			body:   `{"message":"request throttled, slow down"}`,
			want:   models.ClassificationRateLimited,
		},
		{
			name:   "500 server error",
			status: 500,
			body:   "internal error",
			want:   models.ClassificationUnknown,
		},
		{
			name:   "garbage body",
			status: 418,
			body:   "\x00\xff not json at all",
			want:   models.ClassificationUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, evidence := classifier.Classify(tt.status, []byte(tt.body))
			assert.Equal(t, tt.want, got)

			if tt.evidence != "" {
				assert.Equal(t, tt.evidence, evidence)
			}

			// Same input, same answer.
			again, _ := classifier.Classify(tt.status, []byte(tt.body))
			assert.Equal(t, got, again)
		})
	}
}

func TestClassifyOnlySuccessAndDuplicateCount(t *testing.T) {
	classifier := NewClassifier(config.DefaultDuplicatePhrases)

	// Sweep a broad status/body grid: the persistence-eligible set must stay
	// exactly {Success, Duplicate}.
	bodies := []string{"", "{}", `{"data":{"status":422}}`, "You are already connected to this member"}

	for status := 100; status < 600; status += 7 {
		for _, body := range bodies {
			got, _ := classifier.Classify(status, []byte(body))

			if got.ConnectionExists() {
				assert.True(t,
					got == models.ClassificationSuccess || got == models.ClassificationDuplicate,
					"status %d body %q classified %s", status, body, got)
			}
		}
	}
}

func TestClassifyEvidenceTruncated(t *testing.T) {
	classifier := NewClassifier(nil)

	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}

	_, evidence := classifier.Classify(500, long)
	assert.LessOrEqual(t, len(evidence), evidenceLimit)
}

func TestIsAuthRedirect(t *testing.T) {
	tests := []struct {
		status   int
		location string
		want     bool
	}{
		{302, "https://www.linkedin.com/uas/login?session_redirect=x", true},
		{303, "https://www.linkedin.com/checkpoint/challenge", true},
		{302, "https://www.linkedin.com/authwall", true},
		{301, "https://www.linkedin.com/in/someone-else/", false},
		{200, "https://www.linkedin.com/login", false},
		{422, "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsAuthRedirect(tt.status, tt.location), "status=%d location=%s", tt.status, tt.location)
	}
}
