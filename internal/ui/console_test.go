package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewConsole(t *testing.T) {
	console := NewConsole()
	if console == nil {
		t.Fatal("NewConsole() returned nil")
	}
}

func TestConsole_formatMessage(t *testing.T) {
	console := &Console{useColors: true}

	tests := []struct {
		style    ConsoleStyle
		message  string
		expected bool // true if the result should contain color codes
	}{
		{StyleNormal, "test message", false},
		{StyleError, "error message", true},
		{StyleWarning, "warning message", true},
		{StyleSuccess, "success message", true},
		{StyleInfo, "info message", true},
	}

	for _, test := range tests {
		result := console.formatMessage(test.style, test.message)

		if test.expected {
			if !strings.Contains(result, test.message) {
				t.Errorf("formatMessage(%v, %q) should contain original message", test.style, test.message)
			}
			if !strings.Contains(result, colorReset) {
				t.Errorf("formatMessage(%v, %q) should contain reset code", test.style, test.message)
			}
		} else {
			if result != test.message {
				t.Errorf("formatMessage(%v, %q) = %q, want %q", test.style, test.message, result, test.message)
			}
		}
	}
}

func TestConsole_formatMessage_NoColors(t *testing.T) {
	console := &Console{useColors: false}

	result := console.formatMessage(StyleError, "test message")
	if result != "test message" {
		t.Errorf("formatMessage with useColors=false should return original message, got %q", result)
	}
}

func TestConsole_PrintRouting(t *testing.T) {
	var out, errOut bytes.Buffer
	console := NewConsoleWithWriters(&out, &errOut, false)

	console.PrintError("boom")
	console.PrintWarning("careful")
	console.PrintSuccess("done")
	console.PrintInfo("fyi")
	console.PrintStage("Stage 1")

	if !strings.Contains(errOut.String(), "Error: boom") {
		t.Error("PrintError should write to the error writer")
	}
	if !strings.Contains(errOut.String(), "Warning: careful") {
		t.Error("PrintWarning should write to the error writer")
	}
	if !strings.Contains(out.String(), "done") || !strings.Contains(out.String(), "fyi") {
		t.Error("PrintSuccess and PrintInfo should write to the output writer")
	}
	if !strings.Contains(out.String(), "Stage 1") {
		t.Error("PrintStage should write to the output writer")
	}
}

func TestConsole_FormatErrorMessage(t *testing.T) {
	console := NewConsole()

	tests := []struct {
		context    string
		cause      string
		suggestion string
		expected   []string
	}{
		{
			context:    "Test context",
			cause:      "Test cause",
			suggestion: "Test suggestion",
			expected:   []string{"Test context", "Cause: Test cause", "Suggestion: Test suggestion"},
		},
		{
			context:    "Only context",
			cause:      "",
			suggestion: "",
			expected:   []string{"Only context"},
		},
	}

	for _, test := range tests {
		result := console.FormatErrorMessage(test.context, test.cause, test.suggestion)
		for _, part := range test.expected {
			if !strings.Contains(result, part) {
				t.Errorf("FormatErrorMessage result %q should contain %q", result, part)
			}
		}
	}
}
