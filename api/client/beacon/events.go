package beacon

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
	lctypes "github.com/prysmaticlabs/lumen/consensus-types/light-client"
	"github.com/r3labs/sse"
	backoff "gopkg.in/cenkalti/backoff.v1"
)

// Topics on the beacon node event stream that matter to light client sync.
const (
	LightClientFinalityUpdateTopic   = "light_client_finality_update"
	LightClientOptimisticUpdateTopic = "light_client_optimistic_update"
)

// EventHandlers receives decoded light client events from a node event
// stream. Handlers run on the stream goroutine and must not block.
type EventHandlers struct {
	OnFinalityUpdate   func(*lctypes.FinalityUpdate)
	OnOptimisticUpdate func(*lctypes.OptimisticUpdate)
}

// SubscribeLightClientEvents opens a server sent events stream for the light
// client topics and dispatches decoded updates to the handlers. It blocks
// until the stream ends or ctx is canceled. Malformed events are logged and
// skipped so that one bad message cannot end the subscription; every update
// delivered here still goes through full verification before it can touch a
// store.
func (c *Client) SubscribeLightClientEvents(ctx context.Context, handlers EventHandlers) error {
	topics := make([]string, 0, 2)
	if handlers.OnFinalityUpdate != nil {
		topics = append(topics, LightClientFinalityUpdateTopic)
	}
	if handlers.OnOptimisticUpdate != nil {
		topics = append(topics, LightClientOptimisticUpdateTopic)
	}
	if len(topics) == 0 {
		return errors.New("no event handlers registered")
	}
	q := url.Values{}
	for _, topic := range topics {
		q.Add("topics", topic)
	}
	u := c.BaseURL().ResolveReference(&url.URL{Path: eventsPath, RawQuery: q.Encode()})
	stream := sse.NewClient(u.String())
	stream.Headers["Accept"] = "text/event-stream"
	stream.ReconnectStrategy = backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return stream.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
		switch string(msg.Event) {
		case LightClientFinalityUpdateTopic:
			update, err := decodeFinalityEvent(msg.Data)
			if err != nil {
				log.WithError(err).Debug("Skipping malformed finality update event")
				return
			}
			handlers.OnFinalityUpdate(update)
		case LightClientOptimisticUpdateTopic:
			update, err := decodeOptimisticEvent(msg.Data)
			if err != nil {
				log.WithError(err).Debug("Skipping malformed optimistic update event")
				return
			}
			handlers.OnOptimisticUpdate(update)
		}
	})
}

func decodeFinalityEvent(data []byte) (*lctypes.FinalityUpdate, error) {
	resp := &updateResponseJson{}
	if err := json.Unmarshal(data, resp); err != nil {
		return nil, errors.Wrap(err, "error decoding event data")
	}
	update, err := decodeUpdate(resp.Version, resp.Data)
	if err != nil {
		return nil, err
	}
	return lctypes.NewFinalityUpdateFromUpdate(update)
}

func decodeOptimisticEvent(data []byte) (*lctypes.OptimisticUpdate, error) {
	resp := &updateResponseJson{}
	if err := json.Unmarshal(data, resp); err != nil {
		return nil, errors.Wrap(err, "error decoding event data")
	}
	update, err := decodeUpdate(resp.Version, resp.Data)
	if err != nil {
		return nil, err
	}
	return lctypes.NewOptimisticUpdateFromUpdate(update)
}
