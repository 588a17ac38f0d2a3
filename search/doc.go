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


// Package search provides role-aware hybrid retrieval over policy documents.
//
// The Retriever type combines two rankings of the accessible corpus:
//   - Vector similarity over chunk embeddings
//   - BM25 keyword relevance from the in-memory keyword index
//
// Both searches evaluate the same access predicate while scanning, so a
// chunk the requesting user may not see never enters either candidate set.
// Component scores are min-max normalized and fused 70/30 in favor of the
// vector ranking; when the query embedding cannot be produced, retrieval
// degrades to keyword-only instead of failing.
package search
