package models

// IdentityKind tags which kind of platform identifier a ProfileIdentity carries.
type IdentityKind int

const (
	// KindUnresolved means no resolution attempt has produced an identifier yet.
	KindUnresolved IdentityKind = iota
	// KindMemberID is the numeric member identifier. It is the only kind the
	// invitation endpoint accepts.
	KindMemberID
	// KindOpaqueProfileID is the alphanumeric fsd_profile token. Read endpoints
	// return it, the invitation endpoint rejects it.
	KindOpaqueProfileID
)

func (k IdentityKind) String() string {
	switch k {
	case KindMemberID:
		return "member_id"
	case KindOpaqueProfileID:
		return "opaque_profile_id"
	default:
		return "unresolved"
	}
}

// ProfileIdentity is a target person. Handle is the human-readable slug and the
// dedupe key; CanonicalID is empty until resolved.
type ProfileIdentity struct {
	Handle      string
	CanonicalID string
	Kind        IdentityKind
	// TrackingID is extracted opportunistically from the profile page and
	// forwarded on the invitation payload when present.
	TrackingID string
}

// Connectable reports whether the identity can be used for an invitation.
func (p ProfileIdentity) Connectable() bool {
	return p.Kind == KindMemberID && p.CanonicalID != ""
}
