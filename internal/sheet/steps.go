/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package sheet

import (
	"fmt"

	"goproofwriter/internal/domain"
)

// Proof step list helpers: append-only growth plus arbitrary removal by
// identity. The list is a free-text scratchpad; no validation of logical
// correctness happens here.

// NextStepID returns a unique step id like "s1", "s2", ... not used in steps.
func NextStepID(steps []domain.ProofStep) string {
	maxN := 0
	exists := map[string]struct{}{}
	for _, st := range steps {
		exists[st.ID] = struct{}{}
		var n int
		if _, err := fmt.Sscanf(st.ID, "s%d", &n); err == nil && n > maxN {
			maxN = n
		}
	}
	for n := maxN + 1; n < maxN+10000; n++ {
		id := fmt.Sprintf("s%d", n)
		if _, ok := exists[id]; !ok {
			return id
		}
	}
	return fmt.Sprintf("s%d", maxN+1)
}

// AppendStep adds a step with a fresh identity and returns the new list.
func AppendStep(steps []domain.ProofStep, because, therefore string) []domain.ProofStep {
	return append(steps, domain.ProofStep{ID: NextStepID(steps), Because: because, Therefore: therefore})
}

// RemoveStep deletes the step with the given identity; unknown ids are a no-op.
func RemoveStep(steps []domain.ProofStep, id string) []domain.ProofStep {
	for i := range steps {
		if steps[i].ID == id {
			return append(steps[:i], steps[i+1:]...)
		}
	}
	return steps
}

// SeedSteps guarantees at least one blank step. Applied unconditionally after
// every load when the loaded list is empty, matching the established behavior.
func SeedSteps(steps []domain.ProofStep) []domain.ProofStep {
	if len(steps) == 0 {
		return AppendStep(steps, "", "")
	}
	return steps
}
