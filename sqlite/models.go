package sqlite

import (
	"time"

	"github.com/AliAlAbbassi/air1/models"
)

type credential struct {
	ID         int       `gorm:"column:_id;primaryKey"`
	AccountID  string    `gorm:"column:account_id;not null;uniqueIndex:idx_account_scope"`
	Scope      string    `gorm:"column:scope;not null;uniqueIndex:idx_account_scope"`
	Token      string    `gorm:"column:token;not null"`
	CSRFToken  string    `gorm:"column:csrf_token;not null"`
	ObtainedAt time.Time `gorm:"column:obtained_at;not null"`
}

func (c *credential) toModelsCredential() models.Credential {
	return models.Credential{
		AccountID:  c.AccountID,
		Scope:      models.CredentialScope(c.Scope),
		Token:      c.Token,
		CSRFToken:  c.CSRFToken,
		ObtainedAt: c.ObtainedAt,
	}
}

func credentialFromModels(c models.Credential) credential {
	return credential{
		AccountID:  c.AccountID,
		Scope:      string(c.Scope),
		Token:      c.Token,
		CSRFToken:  c.CSRFToken,
		ObtainedAt: c.ObtainedAt,
	}
}

type attempt struct {
	ID             int       `gorm:"column:_id;primaryKey"`
	AccountID      string    `gorm:"column:account_id;not null;index"`
	Handle         string    `gorm:"column:handle;not null"`
	Classification string    `gorm:"column:classification;not null"`
	HTTPStatus     int       `gorm:"column:http_status;not null"`
	Evidence       string    `gorm:"column:evidence"`
	CreatedAt      time.Time `gorm:"column:created_at;not null"`
}

func (a *attempt) toModelsOutcome() models.Outcome {
	return models.Outcome{
		Handle:         a.Handle,
		HTTPStatus:     a.HTTPStatus,
		Classification: models.Classification(a.Classification),
		RawEvidence:    a.Evidence,
		Timestamp:      a.CreatedAt,
	}
}

func attemptFromOutcome(accountID string, o models.Outcome) attempt {
	return attempt{
		AccountID:      accountID,
		Handle:         o.Handle,
		Classification: string(o.Classification),
		HTTPStatus:     o.HTTPStatus,
		Evidence:       o.RawEvidence,
		CreatedAt:      o.Timestamp,
	}
}

type classificationCount struct {
	Classification string `gorm:"column:classification"`
	Count          int    `gorm:"column:count"`
}
