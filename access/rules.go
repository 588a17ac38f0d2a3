package access

import (
	"fmt"

	"github.com/civicore/polidex/core"
)

// BuildPredicate compiles the user's role into an access predicate,
// deny-by-default.
//
// Role rules, evaluated as an OR of permitted cases:
//   - system administrator: unrestricted.
//   - reviewer: public approved, everything pending review, approved
//     records of their own institution, and their own approved uploads.
//   - institution administrator or member: public approved plus approved
//     records of their own institution.
//   - public: public approved only.
//
// Every clause except unrestricted and pendingReview requires the record
// to be approved, so drafts and rejected documents stay invisible outside
// review and administration paths.
//
// An unknown role fails closed: the returned predicate is the public
// fallback and the error is ErrUnknownRole. Callers log the error and use
// the fallback; they must never widen it.
func BuildPredicate(user core.UserContext) (Predicate, error) {
	switch user.Role {
	case core.RoleSystemAdmin:
		return Predicate{clauses: []Clause{unrestricted{}}}, nil

	case core.RoleReviewer:
		clauses := []Clause{publicApproved{}, pendingReview{}}
		if user.InstitutionId != 0 {
			clauses = append(clauses, sameInstitution{institution: user.InstitutionId})
		}
		if user.UserId != 0 {
			clauses = append(clauses, ownUploads{uploader: user.UserId})
		}
		return Predicate{clauses: clauses}, nil

	case core.RoleInstitutionAdmin, core.RoleInstitutionMember:
		clauses := []Clause{publicApproved{}}
		if user.InstitutionId != 0 {
			clauses = append(clauses, sameInstitution{institution: user.InstitutionId})
		}
		return Predicate{clauses: clauses}, nil

	case core.RolePublic:
		return Predicate{clauses: []Clause{publicApproved{}}}, nil

	default:
		return Predicate{clauses: []Clause{publicApproved{}}},
			fmt.Errorf("%w: %d", ErrUnknownRole, user.Role)
	}
}
