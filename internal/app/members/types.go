package members

import "github.com/tanc-norcal/membership-api/internal/domain"

// Optional is a tri-state field used to distinguish:
// - unspecified (omitted)
// - specified as null
// - specified with a value
type Optional[T any] struct {
	specified bool
	isNull    bool
	value     T
}

func Unspecified[T any]() Optional[T] { return Optional[T]{} }
func Null[T any]() Optional[T]        { return Optional[T]{specified: true, isNull: true} }
func Some[T any](v T) Optional[T]     { return Optional[T]{specified: true, value: v} }

func (o Optional[T]) IsSpecified() bool { return o.specified }
func (o Optional[T]) IsNull() bool      { return o.specified && o.isNull }
func (o Optional[T]) Value() T          { return o.value }

// UpdateProfileInput is the PATCH shape for both member and admin profiles.
// Admin profiles only honor the name and email fields.
type UpdateProfileInput struct {
	FirstName  Optional[string] // cannot be null
	MiddleName Optional[string] // may be null (cleared)
	LastName   Optional[string] // cannot be null

	Email       Optional[string] // cannot be null; also updates the account
	HomeAddress Optional[string]

	Photo Optional[domain.ImageRef] // members only

	// Password updates the account credential; it is never stored here.
	Password Optional[string]
}

// DirectorySort selects the ordering of directory listings.
type DirectorySort string

const (
	SortByName   DirectorySort = "name"
	SortByExpiry DirectorySort = "expiry"
)

// DirectoryQuery filters and orders the member directory.
type DirectoryQuery struct {
	// Status filters by derived membership status; empty means all.
	Status domain.MemberStatus

	// Query is a case-insensitive substring match on name or email.
	Query string

	Sort DirectorySort
}

// DirectoryEntry is a member plus the status derived at read time.
type DirectoryEntry struct {
	Member domain.Member
	Status domain.MemberStatus
}

// Card is the data rendered on a digital membership ID.
type Card struct {
	MemberID    domain.MemberID
	Name        string
	PhotoURL    string
	MemberSince string
	ExpiresAt   string // calendar date, domain.DateLayout
	Status      domain.MemberStatus
}
