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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrInvalidUserContext indicates a UserContext failed validation.
	ErrInvalidUserContext = errors.New("invalid user context")

	// ErrEmptyText indicates a required text field is empty.
	ErrEmptyText = errors.New("text cannot be empty")

	// ErrInvalidVisibility indicates an invalid Visibility value.
	ErrInvalidVisibility = errors.New("invalid visibility")

	// ErrInvalidApprovalState indicates an invalid ApprovalState value.
	ErrInvalidApprovalState = errors.New("invalid approval state")

	// ErrInvalidRole indicates an invalid Role value.
	ErrInvalidRole = errors.New("invalid role")

	// ErrInvalidSpan indicates a chunk byte span is inconsistent.
	ErrInvalidSpan = errors.New("invalid byte span")
)

// Access errors
var (
	// ErrAccessDenied indicates the requesting user may not see the document.
	ErrAccessDenied = errors.New("access denied")
)
