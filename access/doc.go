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


// Package access derives per-query visibility predicates from user context.
//
// A Predicate is an OR-composition of a closed set of clause variants
// (unrestricted, public approved, same institution, pending review, own
// uploads). BuildPredicate compiles the requesting user's role into such a
// predicate once per query; the identical predicate is then applied by both
// the vector store and the keyword index, so both searches draw from the
// same accessible universe.
//
// The model is deny-by-default: a predicate with no clauses matches
// nothing, and an unknown role yields the public fallback predicate plus
// ErrUnknownRole rather than widening visibility.
package access
