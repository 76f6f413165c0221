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

package status

import (
	"io"

	"github.com/pterm/pterm"
	"github.com/walteh/copify/pkg/progress"
)

// 🎨 icons per outcome, shown in the log card
const (
	iconSucceeded = "✓"
	iconSkipped   = "⏭"
	iconFailed    = "✗"
)

// 🎯 itemPrinter picks the prefix printer for a notification's outcome
func itemPrinter(w io.Writer, o progress.Outcome) *pterm.PrefixPrinter {
	switch o {
	case progress.OutcomeFailed:
		return pterm.Error.WithPrefix(pterm.Prefix{Text: iconFailed, Style: pterm.Error.Prefix.Style}).WithWriter(w)
	case progress.OutcomeSkipped:
		return pterm.Warning.WithPrefix(pterm.Prefix{Text: iconSkipped, Style: pterm.Warning.Prefix.Style}).WithWriter(w)
	default:
		return pterm.Success.WithPrefix(pterm.Prefix{Text: iconSucceeded, Style: pterm.Success.Prefix.Style}).WithWriter(w)
	}
}

// 📦 headerPrinter prints run titles
func headerPrinter(w io.Writer) *pterm.SectionPrinter {
	return pterm.DefaultSection.WithLevel(2).WithWriter(w)
}

// ❌ alertPrinter prints configuration errors
func alertPrinter(w io.Writer) *pterm.PrefixPrinter {
	return pterm.Error.WithWriter(w)
}

// 📊 summaryPrinter prints the closing totals
func summaryPrinter(w io.Writer) *pterm.PrefixPrinter {
	return pterm.Info.WithPrefix(pterm.Prefix{Text: "📦", Style: pterm.Info.Prefix.Style}).WithWriter(w)
}
