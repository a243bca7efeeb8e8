package bus

import (
	"context"

	"github.com/rfpflow/rfpflow-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, event realtime.Event) error
	// StartForwarder subscribes across all tenant channels and invokes
	// onEvent for each decoded event until ctx is cancelled.
	StartForwarder(ctx context.Context, onEvent func(e realtime.Event)) error
	Close() error
}
