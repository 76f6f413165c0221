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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/copify/pkg/progress"
)

// 🎨 Display configuration
const (
	itemIndent   = 4  // spaces to indent item entries
	nameWidth    = 35 // Base width for file name
	percentWidth = 5  // Width for percent column
)

// 📦 Run describes a run for its header line
type Run struct {
	Title  string // Job title, e.g. "Copify"
	RunID  string // Run identifier
	Folder string // Source folder
	Target string // Destination folder, mover only
}

// 🎯 Logger prints a run log to the console and mirrors it into zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	current *Run
	items   []progress.Notification
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatNotification formats one run log entry for display
func (l *Logger) formatNotification(n progress.Notification) string {
	var symbol rune
	var symbolColor color.Attribute
	switch n.Outcome() {
	case progress.OutcomeFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case progress.OutcomeSkipped:
		symbol = '⏭'
		symbolColor = color.FgYellow
	default:
		symbol = '✓'
		symbolColor = color.FgGreen
	}

	line := fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", itemIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, n.FileName()),
		color.New(color.Faint).Sprint(fmt.Sprintf("%*d%%", percentWidth-1, n.Percent)))

	if n.ErrorMessage != "" {
		msgColor := color.FgYellow
		if n.IsError {
			msgColor = color.FgRed
		}
		line += " " + color.New(msgColor).Sprint(n.ErrorMessage)
	}
	return line
}

// 📝 LogNotification prints one run log entry
func (l *Logger) LogNotification(ctx context.Context, n progress.Notification) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.items = append(l.items, n)

	fmt.Fprintln(l.console, l.formatNotification(n))

	l.zlog.Info().
		Str("item", n.Identifier).
		Int("percent", n.Percent).
		Str("outcome", n.Outcome().String()).
		Str("error", n.ErrorMessage).
		Str("run_id", n.RunID).
		Msg("item processed")
}

// 📝 StartRun prints the header of a new run
func (l *Logger) StartRun(ctx context.Context, run Run) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.current = &run
	l.items = nil

	fmt.Fprintf(l.console, "[%s in progress]\n",
		color.New(color.FgCyan).Sprint(run.Title))

	dest := run.Folder
	if run.Target != "" {
		dest = run.Folder + " → " + run.Target
	}
	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(dest),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(run.RunID))

	l.zlog.Info().
		Str("job", run.Title).
		Str("run_id", run.RunID).
		Str("folder", run.Folder).
		Str("target", run.Target).
		Msg("starting run")
}

// 📝 EndRun prints the summary of the current run
func (l *Logger) EndRun(ctx context.Context) progress.Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary := progress.Summarize(l.items)
	if l.current == nil {
		return summary
	}

	fmt.Fprintf(l.console, "[%s finished] %s %s %s\n",
		color.New(color.FgCyan).Sprint(l.current.Title),
		color.New(color.FgGreen).Sprintf("%d succeeded", summary.Succeeded),
		color.New(color.FgYellow).Sprintf("%d skipped", summary.Skipped),
		color.New(color.FgRed).Sprintf("%d failed", summary.Failed))

	l.zlog.Info().
		Str("job", l.current.Title).
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Msg("run complete")

	l.current = nil
	l.items = nil
	return summary
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("copify")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
