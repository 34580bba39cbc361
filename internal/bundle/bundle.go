// Package bundle packages generated artifacts into a ZIP download.
package bundle

import (
	"archive/zip"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Entry is one artifact slot in a bundle. Err marks a failed generation.
type Entry struct {
	Artifact string
	Content  string
	Err      error
}

func (e Entry) Failed() bool {
	return e.Err != nil
}

// Bundle is the result of generating every artifact for one project.
type Bundle struct {
	ProjectName string
	Entries     []Entry
}

func (b *Bundle) Succeeded() int {
	n := 0
	for _, e := range b.Entries {
		if !e.Failed() {
			n++
		}
	}
	return n
}

// Slug lower-cases s and replaces whitespace runs with "-".
func Slug(s string) string {
	return strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(s), "-"))
}

func FileName(projectName string) string {
	return Slug(projectName) + "-ocm-artifacts.zip"
}

func entryName(e Entry) string {
	if e.Failed() {
		return Slug(e.Artifact) + "-ERROR.md"
	}
	return Slug(e.Artifact) + ".md"
}

func failureText(artifact string) string {
	return fmt.Sprintf("Failed to generate %s. Please try generating this artifact individually.", artifact)
}

// Write streams the bundle as a ZIP archive to w.
func (b *Bundle) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, e := range b.Entries {
		f, err := zw.Create(entryName(e))
		if err != nil {
			return fmt.Errorf("create zip entry for %s: %w", e.Artifact, err)
		}
		body := e.Content
		if e.Failed() {
			body = failureText(e.Artifact)
		}
		if _, err := io.WriteString(f, body); err != nil {
			return fmt.Errorf("write zip entry for %s: %w", e.Artifact, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}
