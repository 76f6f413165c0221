// Copyright 2025 walteh LLC
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

package progress

import (
	"strings"
)

// Complete is the percent value that marks the end of a run.
const Complete = 100

// SkippedMessage is the message attached to every skipped item.
const SkippedMessage = "Project was skipped."

// 📊 Outcome is the result of processing a single item
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

// String returns a string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// 📨 Notification is one reported event about a single processed item.
//
// The JSON layout is the wire format emitted by the engine on a job's
// event channel.
type Notification struct {
	Identifier   string `json:"file_name"`
	Percent      int    `json:"progress"`
	IsError      bool   `json:"is_error"`
	IsSkipped    bool   `json:"is_skipped"`
	ErrorMessage string `json:"error_msg"`

	// RunID tags the notification with the run that produced it. Empty when
	// the producer does not echo run ids.
	RunID string `json:"run_id,omitempty"`
}

// Outcome classifies the notification. An error flag wins over a skip flag.
func (n Notification) Outcome() Outcome {
	switch {
	case n.IsError:
		return OutcomeFailed
	case n.IsSkipped:
		return OutcomeSkipped
	default:
		return OutcomeSucceeded
	}
}

// Done reports whether this notification signals run completion.
func (n Notification) Done() bool {
	return n.Percent == Complete
}

// FileName returns the last path segment of the identifier, accepting both
// forward and backward slashes.
func (n Notification) FileName() string {
	return FileName(n.Identifier)
}

// WithRunID returns a copy of n tagged with runID.
func (n Notification) WithRunID(runID string) Notification {
	n.RunID = runID
	return n
}

// 🎉 Succeeded builds a notification for an item that was processed
func Succeeded(identifier string, percent int) Notification {
	return newNotification(identifier, percent, false, false, "")
}

// ❌ Failed builds a notification for an item that could not be processed
func Failed(identifier string, percent int, message string) Notification {
	return newNotification(identifier, percent, true, false, message)
}

// ⏭️ Skipped builds a notification for an item that was excluded
func Skipped(identifier string, percent int) Notification {
	return newNotification(identifier, percent, false, true, SkippedMessage)
}

func newNotification(identifier string, percent int, isError, isSkipped bool, message string) Notification {
	return Notification{
		Identifier:   identifier,
		Percent:      percent,
		IsError:      isError,
		IsSkipped:    isSkipped,
		ErrorMessage: message,
	}
}

// Percent returns the cumulative completion after the item at index i (zero
// based) out of total has been processed. The last item always yields 100.
func Percent(i, total int) int {
	if total <= 0 {
		return Complete
	}
	return ((i + 1) * Complete) / total
}

// FileName returns the last segment of path, splitting on "/" and "\".
func FileName(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
