package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"cheatdb/internal/resolve"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

const statusLabelWidth = 20

func verdictColor(v resolve.Verdict) string {
	switch v {
	case resolve.VerdictCheater:
		return ansiRed
	case resolve.VerdictFifty:
		return ansiYellow
	case resolve.VerdictClean:
		return ansiGreen
	default:
		return ""
	}
}

func renderVerdict(v resolve.Verdict, colorize bool) string {
	label := string(v)
	if colorize {
		if color := verdictColor(v); color != "" {
			return color + label + ansiReset
		}
	}
	return label
}

func renderCheckLine(label string, passed bool, detail string, colorize bool) string {
	state, color := "OK", ansiGreen
	if !passed {
		state, color = "FAIL", ansiRed
	}
	line := fmt.Sprintf("  %-*s [%s] %s", statusLabelWidth, label+":", state, detail)
	if colorize {
		return color + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
