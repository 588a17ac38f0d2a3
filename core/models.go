package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Visibility classifies who may see a document.
type Visibility int

const (
	// VisibilityPublic marks documents readable by anyone, including anonymous users.
	VisibilityPublic Visibility = iota + 1
	// VisibilityInstitution restricts a document to members of its owning institution.
	VisibilityInstitution
	// VisibilityRestricted limits a document to reviewers and administrators.
	VisibilityRestricted
	// VisibilityConfidential limits a document to system administrators.
	VisibilityConfidential
)

// String returns the lowercase name used in logs and CLI flags.
func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityInstitution:
		return "institution"
	case VisibilityRestricted:
		return "restricted"
	case VisibilityConfidential:
		return "confidential"
	default:
		return "unknown"
	}
}

// ApprovalState tracks a document through the publication workflow.
type ApprovalState int

const (
	// ApprovalDraft is the initial state; visible only through reviewer/admin rules.
	ApprovalDraft ApprovalState = iota + 1
	// ApprovalPending means the document awaits review.
	ApprovalPending
	// ApprovalApproved means the document cleared review.
	ApprovalApproved
	// ApprovalRejected means the document failed review.
	ApprovalRejected
)

// String returns the lowercase name used in logs and CLI flags.
func (a ApprovalState) String() string {
	switch a {
	case ApprovalDraft:
		return "draft"
	case ApprovalPending:
		return "pending"
	case ApprovalApproved:
		return "approved"
	case ApprovalRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Role identifies the access level of a requesting user.
// The zero value is deliberately not a valid role.
type Role int

const (
	// RoleSystemAdmin has unrestricted access to all documents.
	RoleSystemAdmin Role = iota + 1
	// RoleReviewer sees public approved content, everything pending review,
	// and approved content of their own institution and uploads.
	RoleReviewer
	// RoleInstitutionAdmin sees public approved content plus approved
	// content of their own institution.
	RoleInstitutionAdmin
	// RoleInstitutionMember has the same reach as an institution admin.
	RoleInstitutionMember
	// RolePublic sees only public approved content.
	RolePublic
)

// String returns the lowercase name used in logs and CLI flags.
func (r Role) String() string {
	switch r {
	case RoleSystemAdmin:
		return "system_admin"
	case RoleReviewer:
		return "reviewer"
	case RoleInstitutionAdmin:
		return "institution_admin"
	case RoleInstitutionMember:
		return "institution_member"
	case RolePublic:
		return "public"
	default:
		return "unknown"
	}
}

// Access holds the fields access decisions are made on. Documents carry
// the authoritative copy; every chunk carries a denormalized copy so a
// scan can be filtered without loading the parent document.
//
// InstitutionId 0 means the document has no owning institution.
// UploaderId records who uploaded the document and never changes.
type Access struct {
	Visibility    Visibility
	InstitutionId ID
	ApprovalState ApprovalState
	UploaderId    ID
}

// Document represents a registered policy document. The raw text is stored
// separately; chunks and vectors are produced lazily on first retrieval.
type Document struct {
	Id         ID
	Title      string
	Access     Access
	EmbedModel string    // Model that produced the current vectors (empty until embedded)
	EmbeddedAt time.Time // Zero until an embedding pass completed for the current text
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Embedded reports whether the document's current text has completed an
// embedding pass.
func (d *Document) Embedded() bool {
	return !d.EmbeddedAt.IsZero()
}

// Chunk is a contiguous span of a document's text. Start and End are byte
// offsets into the original text, so the stored corpus can be re-chunked
// or audited without guessing.
type Chunk struct {
	Id             ID
	DocumentId     ID
	Seq            int    // Position within the document, starting at 0
	Start          int    // Byte offset of the first byte of Text
	End            int    // Byte offset one past the last byte of Text
	Text           string
	SectionHeading string // Heading of the enclosing section, if one was detected
	SectionStart   bool   // True when the chunk begins exactly on a section boundary
	Access         Access // Denormalized from the parent document
	Vector         []float32
	EmbedModel     string
}

// UserContext describes the requesting user for one operation.
// It is supplied per call and never persisted.
type UserContext struct {
	UserId        ID
	InstitutionId ID // 0 when the user belongs to no institution
	Role          Role
}

// ChunkHit is a scored reference produced by a single index, before fusion.
type ChunkHit struct {
	ChunkId    ID
	DocumentId ID
	Seq        int
	Score      float64
}

// RetrievedChunk is a fully hydrated retrieval result.
type RetrievedChunk struct {
	ChunkId        ID
	DocumentId     ID
	Seq            int
	Text           string
	SectionHeading string
	ApprovalState  ApprovalState
	Score          float64 // Fused relevance score
	VectorScore    float64 // Normalized vector component (0 when absent)
	KeywordScore   float64 // Normalized keyword component (0 when absent)
}
