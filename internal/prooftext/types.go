/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package prooftext

// Proof represents a parsed plain-text proof: a title and an ordered list of
// steps, each with a justification (because) and a conclusion (therefore).

type Proof struct {
	Title string
	Steps []Step
}

// Step is one logical proof step. Either side may be empty; empty steps are
// dropped by the parser. LineNo is the 1-based source line the step started on.

type Step struct {
	Because   string
	Therefore string
	LineNo    int
}

// Error represents a parse error with position context.

type Error struct {
	Line    int
	Column  int
	Message string
}
