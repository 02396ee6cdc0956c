// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

// ValidationError is one CUE error located in a document.
type ValidationError struct {
	// FilePath is the document being validated.
	FilePath string
	// CUEPath is the path to the invalid value, e.g. "capabilities[0].base".
	CUEPath string
	// Message is the CUE error message without the path prefix.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.CUEPath != "" {
		return fmt.Sprintf("%s: %s: %s", e.FilePath, e.CUEPath, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// FormatError converts a CUE error into *ValidationError values prefixed
// with filePath. A single CUE error is returned as a *ValidationError; several
// are joined into one message, one per line. Non-CUE errors are wrapped.
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	cueErrors := errors.Errors(err)
	if len(cueErrors) == 0 {
		return fmt.Errorf("%s: %w", filePath, err)
	}

	verrs := make([]*ValidationError, 0, len(cueErrors))
	for _, e := range cueErrors {
		path := formatPath(errors.Path(e))
		msg := e.Error()
		if path != "" {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, path), ":"))
		}
		verrs = append(verrs, &ValidationError{FilePath: filePath, CUEPath: path, Message: msg})
	}
	if len(verrs) == 1 {
		return verrs[0]
	}

	lines := make([]string, len(verrs))
	for i, v := range verrs {
		if v.CUEPath != "" {
			lines[i] = v.CUEPath + ": " + v.Message
		} else {
			lines[i] = v.Message
		}
	}
	return fmt.Errorf("%s: validation failed:\n  %s", filePath, strings.Join(lines, "\n  "))
}

// formatPath renders a CUE error path such as ["capabilities", "0", "base"]
// as "capabilities[0].base".
func formatPath(path []string) string {
	var sb strings.Builder
	for i, part := range path {
		if i > 0 && isIndex(part) {
			sb.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(part)
	}
	return sb.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize rejects documents larger than maxSize bytes.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", filename, len(data), maxSize)
	}
	return nil
}
