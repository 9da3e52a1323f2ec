// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "testing"

func TestParseOutputMode(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputMode
		wantErr bool
	}{
		{"file", ModeFile, false},
		{"paragraph", ModeParagraph, false},
		{"table", ModeTable, false},
		{"citekeys", ModeCitekeys, false},
		{"pdf", "", true},
		{"", "", true},
		{"Paragraph", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputMode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		in      string
		want    Selection
		wantErr bool
	}{
		{"all", SelectAll, false},
		{"session", SelectSession, false},
		{"explicit", SelectExplicit, false},
		{"some", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSelection(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSelection(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSelection(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseRenderFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    RenderFormat
		wantErr bool
	}{
		{"html", FormatHTML, false},
		{"docx", FormatDocx, false},
		{"pdf", FormatPDF, false},
		{"markdown", FormatMarkdown, false},
		{"source", FormatSource, false},
		{"latex", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRenderFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRenderFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRenderFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
