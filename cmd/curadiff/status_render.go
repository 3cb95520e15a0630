package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"curadiff/internal/config"
	"curadiff/internal/download"
	"curadiff/internal/pipeline"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 18
	statusIndent     = "  "
)

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	statusText := fmt.Sprintf("[%s]", statusKindLabel(kind))
	if message != "" {
		statusText += " " + message
	}
	base := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", statusText)
	if colorize {
		if color := statusKindColor(kind); color != "" {
			return color + base + ansiReset
		}
	}
	return base
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

// countStatus colors a count by whether any item landed in it.
func countStatus(n int, whenNonZero statusKind) statusKind {
	if n == 0 {
		return statusInfo
	}
	return whenNonZero
}

func printSummary(out io.Writer, cfg *config.Config, summary pipeline.Summary, colorize bool) {
	for _, line := range renderSectionHeader("Batch", colorize) {
		fmt.Fprintln(out, line)
	}
	if summary.RunID != "" {
		fmt.Fprintln(out, renderStatusLine("Run", statusInfo, summary.RunID, colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Output", statusInfo, cfg.Paths.DiffDir, colorize))
	fmt.Fprintln(out, renderStatusLine("Resolved", countStatus(summary.Resolved, statusOK), fmt.Sprintf("%d file(s)", summary.Resolved), colorize))
	fmt.Fprintln(out, renderStatusLine("Failed", countStatus(summary.Failed, statusError), fmt.Sprintf("%d file(s)", summary.Failed), colorize))
	fmt.Fprintln(out, renderStatusLine("Skipped", countStatus(summary.Skipped, statusWarn), fmt.Sprintf("%d dataset(s)", summary.Skipped), colorize))
	for _, o := range summary.Outcomes {
		if o.Kind == "" {
			continue
		}
		label := o.Dataset
		if o.DataFile != "" {
			label = o.DataFile
		}
		fmt.Fprintln(out, renderStatusLine(label, statusWarn, o.Kind, colorize))
	}
}

func printDownloadReport(out io.Writer, dest string, report download.Report, colorize bool) {
	for _, line := range renderSectionHeader("Download", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Destination", statusInfo, dest, colorize))
	fmt.Fprintln(out, renderStatusLine("Fetched", countStatus(len(report.Files), statusOK), fmt.Sprintf("%d file(s)", len(report.Files)), colorize))
	for _, f := range report.Failures {
		fmt.Fprintln(out, renderStatusLine("Failed", statusError, fmt.Sprintf("%s: %v", f.URL, f.Err), colorize))
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
