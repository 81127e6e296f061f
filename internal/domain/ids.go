package domain

// SubjectID is the authenticated account identifier issued by the identity
// provider. We model it as an opaque identifier: its format is controlled by
// the provider.
type SubjectID string

// ApplicationID is an internal identifier for a membership application record.
type ApplicationID string

// MemberID is the identifier for a member record. For approved members it
// mirrors the identity provider subject so that one member record exists per
// account.
type MemberID string
