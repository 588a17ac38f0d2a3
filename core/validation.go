// Copyright 2026 Civicore Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Visibility must be a known value
//   - ApprovalState must be a known value
//
// NOT validated (populated later or legitimately empty):
//   - Title (optional)
//   - EmbedModel / EmbeddedAt (set after the first embedding pass)
//   - ID (0 is valid from database sequences)
//   - Access.InstitutionId (0 means no owning institution)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if err := ValidateVisibility(doc.Access.Visibility); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := ValidateApprovalState(doc.Access.ApprovalState); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - Seq must not be negative
//   - Byte span must satisfy 0 <= Start < End and len(Text) == End-Start
//
// NOT validated (populated by the embedding pass):
//   - Vector (empty until embedded)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyText)
	}

	if chunk.Seq < 0 {
		return fmt.Errorf("%w: negative seq %d", ErrInvalidChunk, chunk.Seq)
	}

	if chunk.Start < 0 || chunk.End <= chunk.Start || chunk.End-chunk.Start != len(chunk.Text) {
		return fmt.Errorf("%w: %w: [%d,%d) for %d bytes of text",
			ErrInvalidChunk, ErrInvalidSpan, chunk.Start, chunk.End, len(chunk.Text))
	}

	return nil
}

// ValidateUserContext validates a UserContext according to domain rules.
//
// An unknown role is rejected here; access building additionally treats it
// as fail-closed rather than fatal.
func ValidateUserContext(user UserContext) error {
	if err := ValidateRole(user.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUserContext, err)
	}
	return nil
}

// ValidateVisibility validates that a Visibility has a known value.
func ValidateVisibility(v Visibility) error {
	switch v {
	case VisibilityPublic, VisibilityInstitution, VisibilityRestricted, VisibilityConfidential:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidVisibility, v)
	}
}

// ValidateApprovalState validates that an ApprovalState has a known value.
func ValidateApprovalState(a ApprovalState) error {
	switch a {
	case ApprovalDraft, ApprovalPending, ApprovalApproved, ApprovalRejected:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidApprovalState, a)
	}
}

// ValidateRole validates that a Role has a known value.
func ValidateRole(r Role) error {
	switch r {
	case RoleSystemAdmin, RoleReviewer, RoleInstitutionAdmin, RoleInstitutionMember, RolePublic:
		return nil
	default:
		return fmt.Errorf("%w: value %d", ErrInvalidRole, r)
	}
}

// ParseRole maps a CLI/config name to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "system_admin":
		return RoleSystemAdmin, nil
	case "reviewer":
		return RoleReviewer, nil
	case "institution_admin":
		return RoleInstitutionAdmin, nil
	case "institution_member":
		return RoleInstitutionMember, nil
	case "public":
		return RolePublic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// ParseVisibility maps a CLI/config name to a Visibility.
func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "public":
		return VisibilityPublic, nil
	case "institution":
		return VisibilityInstitution, nil
	case "restricted":
		return VisibilityRestricted, nil
	case "confidential":
		return VisibilityConfidential, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidVisibility, s)
	}
}

// ParseApprovalState maps a CLI/config name to an ApprovalState.
func ParseApprovalState(s string) (ApprovalState, error) {
	switch s {
	case "draft":
		return ApprovalDraft, nil
	case "pending":
		return ApprovalPending, nil
	case "approved":
		return ApprovalApproved, nil
	case "rejected":
		return ApprovalRejected, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidApprovalState, s)
	}
}
