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


// Package ai provides the embedding abstraction used by the retrieval core.
//
// The core treats embedding as a blocking external dependency behind the
// Embedder interface, so retrieval and coordination logic never couples to
// a concrete model client. RetryingEmbedder decorates any Embedder with
// per-call timeouts and exponential backoff, which is the form the
// embedding coordinator consumes.
//
// # Implementation Packages
//
//   - ai/openai: production implementation for OpenAI-compatible APIs
//     (Ollama, LocalAI, vLLM, hosted OpenAI)
//   - ai/mock: deterministic test double for unit testing without an
//     external service
//
// Constructors return concrete types; consumers accept the Embedder
// interface. The mock additionally exposes behavior injection and call
// counting for tests:
//
//	embedder, err := openai.NewEmbedder(cfg)
//	mockEmbed := mock.NewMockEmbedder()
//	mockEmbed.EmbedTextsFunc = func(...) {...}      // behavior injection
//	count := mockEmbed.CallCount()                  // test assertion
package ai
