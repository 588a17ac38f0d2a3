package access

import (
	"fmt"
	"strings"

	"github.com/civicore/polidex/core"
)

// Clause is one permitted-case variant of an access predicate. The set of
// implementations is closed; new access rules are new clause types, not
// ad hoc boolean expressions at call sites.
type Clause interface {
	// Matches reports whether the clause grants visibility of a record
	// with the given access fields.
	Matches(a core.Access) bool

	// String renders the clause for debug logging.
	String() string
}

// Predicate is an OR-composition of clauses. The zero value matches
// nothing.
type Predicate struct {
	clauses []Clause
}

// Matches reports whether any clause grants visibility. An empty predicate
// denies everything.
func (p Predicate) Matches(a core.Access) bool {
	for _, c := range p.clauses {
		if c.Matches(a) {
			return true
		}
	}
	return false
}

// String renders the predicate for debug logging.
func (p Predicate) String() string {
	if len(p.clauses) == 0 {
		return "deny-all"
	}
	parts := make([]string, len(p.clauses))
	for i, c := range p.clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " OR ")
}

// unrestricted matches every record.
type unrestricted struct{}

func (unrestricted) Matches(core.Access) bool { return true }
func (unrestricted) String() string           { return "unrestricted" }

// publicApproved matches public records that cleared review.
type publicApproved struct{}

func (publicApproved) Matches(a core.Access) bool {
	return a.Visibility == core.VisibilityPublic && a.ApprovalState == core.ApprovalApproved
}

func (publicApproved) String() string { return "publicApproved" }

// pendingReview matches records awaiting review, regardless of visibility.
type pendingReview struct{}

func (pendingReview) Matches(a core.Access) bool {
	return a.ApprovalState == core.ApprovalPending
}

func (pendingReview) String() string { return "pendingReview" }

// sameInstitution matches approved records owned by the given institution.
type sameInstitution struct {
	institution core.ID
}

func (c sameInstitution) Matches(a core.Access) bool {
	return a.InstitutionId == c.institution && a.ApprovalState == core.ApprovalApproved
}

func (c sameInstitution) String() string {
	return fmt.Sprintf("sameInstitution(%d)", c.institution)
}

// ownUploads matches approved records the given user uploaded. The grant is
// permanent: it follows the uploader id, not the uploader's current
// institution membership.
type ownUploads struct {
	uploader core.ID
}

func (c ownUploads) Matches(a core.Access) bool {
	return a.UploaderId == c.uploader && a.ApprovalState == core.ApprovalApproved
}

func (c ownUploads) String() string {
	return fmt.Sprintf("ownUploads(%d)", c.uploader)
}
