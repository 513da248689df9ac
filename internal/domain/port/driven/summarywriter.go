package driven

import "context"

// SummaryWriter defines the driven port for the per-run change summary.
// Write replaces any previous summary with the given lines.
type SummaryWriter interface {
	Write(ctx context.Context, lines []string) error
}
