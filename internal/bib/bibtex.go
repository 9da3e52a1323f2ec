// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bib serializes a PackageTable to a BibTeX bibliography file. One
// entry is written per distinct citation record; shared records appear once
// no matter how many packages cite them.
package bib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/cite-engine/pkg/errors"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// entryTypes maps record types to BibTeX entry types.
var entryTypes = map[types.RecordType]string{
	types.RecordManual:  "Manual",
	types.RecordArticle: "Article",
}

// Write serializes the table's distinct records to a BibTeX file at path.
// The write is atomic: content goes to a temporary file in the target
// directory first and is renamed into place, so a failure never leaves a
// partial bibliography behind. Re-running with the same table overwrites
// the file with equivalent content.
func Write(table types.PackageTable, path string) error {
	content := Format(table)

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeSerialize, err, "creating bibliography file in %s", dir)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeSerialize, err, "writing bibliography %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeSerialize, err, "writing bibliography %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeSerialize, err, "placing bibliography %s", path)
	}
	return nil
}

// Format renders the table's distinct records as BibTeX text, in citekey
// first-seen order.
func Format(table types.PackageTable) string {
	var b strings.Builder
	for _, rec := range table.DistinctRecords() {
		writeEntry(&b, rec)
	}
	return b.String()
}

// writeEntry renders one BibTeX entry.
func writeEntry(b *strings.Builder, rec types.CitationRecord) {
	entryType, ok := entryTypes[rec.Type]
	if !ok {
		entryType = "Misc"
	}

	fmt.Fprintf(b, "@%s{%s,\n", entryType, rec.Key)
	writeField(b, "title", rec.Title)
	if len(rec.Authors) > 0 {
		writeField(b, "author", strings.Join(rec.Authors, " and "))
	}
	writeField(b, "year", rec.Year)
	writeField(b, "note", rec.Note)
	writeField(b, "url", rec.URL)
	b.WriteString("}\n\n")
}

// writeField renders one brace-wrapped field, skipping empty values.
func writeField(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "  %s = {%s},\n", name, Escape(value))
}

// texEscapes maps TeX special characters to their escaped forms. Braces are
// escaped too, since the values are brace-wrapped.
var texEscapes = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// Escape makes a value safe for use inside a brace-wrapped BibTeX field.
func Escape(value string) string {
	return texEscapes.Replace(value)
}
