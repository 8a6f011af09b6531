package linkedin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AliAlAbbassi/air1/models"
)

const invitationPath = "/growth/normInvitations"

type inviteeProfile struct {
	ProfileID string `json:"profileId"`
}

type invitee struct {
	Profile inviteeProfile `json:"com.linkedin.voyager.growth.invitation.InviteeProfile"`
}

type invitationPayload struct {
	EmberEntityName string  `json:"emberEntityName"`
	Invitee         invitee `json:"invitee"`
	Message         string  `json:"message,omitempty"`
	TrackingID      string  `json:"trackingId,omitempty"`
}

// SendInvitation submits one connection request and returns the raw HTTP
// status and body for classification. The identity must carry the numeric
// member kind: the endpoint silently rejects the opaque kind with an
// indistinguishable 422, which is exactly the ambiguity the resolver exists
// to avoid.
func (c *Client) SendInvitation(ctx context.Context, cred models.Credential, identity models.ProfileIdentity, message string) (int, []byte, error) {
	if !identity.Connectable() {
		return 0, nil, &models.UnresolvedIdentityError{Handle: identity.Handle, Kind: identity.Kind}
	}

	payload := invitationPayload{
		EmberEntityName: "growth/invitation/norm-invitation",
		Invitee: invitee{
			Profile: inviteeProfile{ProfileID: identity.CanonicalID},
		},
		Message:    message,
		TrackingID: identity.TrackingID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to marshal invitation payload: %w", err)
	}

	return c.post(ctx, cred, invitationPath, body)
}
