package port

import (
	"context"

	"github.com/erebos42/shortcut/internal/domain/entity"
)

type StatusPublisher interface {
	PublishStatus(ctx context.Context, msg []byte) error
}

type DLQPublisher interface {
	PublishToDLQ(ctx context.Context, msg []byte, reason string) error
}

type CutBroadcaster interface {
	Broadcast(event entity.CutEvent)
}
