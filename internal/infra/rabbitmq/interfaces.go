package rabbitmq

import (
	"context"
	"encoding/json"
)

type PublisherInterface interface {
	Publish(ctx context.Context, pattern, id string, data json.RawMessage) error
}

var _ PublisherInterface = (*Publisher)(nil)
