package jsonfile

import (
	"context"
	"fmt"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SummaryWriter = (*SummaryFile)(nil)

// SummaryFile writes the run summary as plain text, one line per entry.
type SummaryFile struct {
	path string
}

// NewSummaryFile creates a SummaryFile at path.
func NewSummaryFile(path string) *SummaryFile {
	return &SummaryFile{path: path}
}

// Write replaces the file with lines, each terminated by a newline.
func (f *SummaryFile) Write(_ context.Context, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if err := atomic.WriteFile(f.path, strings.NewReader(b.String())); err != nil {
		return fmt.Errorf("%w: writing %s: %w", model.ErrPersistence, f.path, err)
	}
	return nil
}
