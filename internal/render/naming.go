package render

import (
	"fmt"
	"strings"
)

// filenameReplacer strips characters that are unsafe in file names across
// platforms.
var filenameReplacer = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
	`"`, "-", "<", "-", ">", "-", "|", "-",
	"\n", "-", "\r", "-", "\t", "-",
)

// SanitizeNamePart makes one payslip filename component filesystem-safe:
// unsafe characters become '-', runs of whitespace collapse to single
// underscores.
func SanitizeNamePart(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}

// FileName builds the deterministic payslip name for one record:
// <reference>_<name>_<period-id>.pdf. Two records with the same reference and
// name in one run collide by construction, which Render refuses to overwrite.
func FileName(reference, name, periodID string) string {
	return fmt.Sprintf("%s_%s_%s.pdf",
		SanitizeNamePart(reference), SanitizeNamePart(name), periodID)
}
