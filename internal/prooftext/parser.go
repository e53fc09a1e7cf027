/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package prooftext

import (
	"bufio"
	"regexp"
	"strings"
)

// Parse parses a plain-text proof into a structured Proof.
// Supported syntax (minimal):
// - Title: the first line starting with "#" or "Proof:" sets the title.
// - Step pairs:
//   - "Because: text" starts a new step's justification.
//   - "Therefore: text" fills the current step's conclusion (starting a new
//     step when none is open). "∵" and "∴" prefixes are accepted as aliases.
//
// - Numbered form: "1. justification => conclusion" yields a complete step.
//   "->" and "⇒" are accepted in place of "=>".
// - Continuation lines indented by 2+ spaces are appended to the side last
//   written.
// - Notes: lines starting with ';' are skipped.
// Blank lines close the open step.
func Parse(input string) (Proof, []Error) {
	p := Proof{Steps: []Step{}}
	var errs []Error

	scanner := bufio.NewScanner(strings.NewReader(input))
	lineNo := 0

	// Patterns
	reTitle := regexp.MustCompile(`^(#+)\s*(.*)$`)
	reTitleAlt := regexp.MustCompile(`^(?i)\s*Proof:\s*(.+)$`)
	reBecause := regexp.MustCompile(`^(?i)\s*(?:Because:|∵)\s*(.*)$`)
	reTherefore := regexp.MustCompile(`^(?i)\s*(?:Therefore:|∴)\s*(.*)$`)
	reNumbered := regexp.MustCompile(`^\s*\d+[.)]\s*(.+?)\s*(?:=>|->|⇒)\s*(.+)$`)

	var open *Step
	lastSide := "" // "because" or "therefore", for continuations

	flush := func() {
		if open != nil && (strings.TrimSpace(open.Because) != "" || strings.TrimSpace(open.Therefore) != "") {
			p.Steps = append(p.Steps, *open)
		}
		open = nil
		lastSide = ""
	}

	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimRight(raw, "\r\n")

		// Continuation line (indented) -> append to the side last written
		if strings.HasPrefix(line, "  ") && open != nil && lastSide != "" {
			cont := strings.TrimSpace(line)
			if cont != "" {
				switch lastSide {
				case "because":
					open.Because += "\n" + cont
				case "therefore":
					open.Therefore += "\n" + cont
				}
			}
			continue
		}

		trim := strings.TrimSpace(line)
		if trim == "" {
			flush()
			continue
		}

		// Note line
		if strings.HasPrefix(trim, ";") {
			flush()
			continue
		}

		// Title heading
		if m := reTitle.FindStringSubmatch(trim); m != nil {
			flush()
			if p.Title == "" {
				p.Title = strings.TrimSpace(m[2])
			}
			continue
		}
		if m := reTitleAlt.FindStringSubmatch(trim); m != nil {
			flush()
			if p.Title == "" {
				p.Title = strings.TrimSpace(m[1])
			}
			continue
		}

		// Numbered form: complete step on one line
		if m := reNumbered.FindStringSubmatch(trim); m != nil {
			flush()
			p.Steps = append(p.Steps, Step{
				Because:   strings.TrimSpace(m[1]),
				Therefore: strings.TrimSpace(m[2]),
				LineNo:    lineNo,
			})
			continue
		}

		if m := reBecause.FindStringSubmatch(trim); m != nil {
			// A second Because closes the open step and starts a new one.
			if open != nil && strings.TrimSpace(open.Because) != "" {
				flush()
			}
			if open == nil {
				open = &Step{LineNo: lineNo}
			}
			open.Because = strings.TrimSpace(m[1])
			lastSide = "because"
			continue
		}
		if m := reTherefore.FindStringSubmatch(trim); m != nil {
			if open == nil {
				open = &Step{LineNo: lineNo}
			}
			open.Therefore = strings.TrimSpace(m[1])
			lastSide = "therefore"
			// A filled conclusion completes the step.
			flush()
			continue
		}

		// Unrecognized line: report and keep going to salvage the rest.
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: "unrecognized line: " + trim})
	}
	flush()

	if err := scanner.Err(); err != nil {
		errs = append(errs, Error{Line: lineNo, Column: 1, Message: err.Error()})
	}
	return p, errs
}
