package driven

import (
	"context"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// Notifier defines the driven port for one notification channel.
// Send reports delivery success. Implementations must contain their own
// failures: they log and return false instead of returning errors or panicking.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n model.Notification) bool
}
