package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/sigexhq/sigex-cli/internal/fetch"
	"github.com/sigexhq/sigex-cli/internal/signal"
)

// APIName is the exchange name referenced by collaboration configs.
const APIName = "graph"

// stalenessWindow: graph API tombstones eventually expire server-side, so
// very old local state can silently miss deletes and must be refetched.
const stalenessWindow = 90 * 24 * time.Hour

// API adapts Client to the fetch.ExchangeAPI contract, translating wire
// indicator types to registered signal types.
type API struct {
	client   *Client
	registry *signal.Registry
}

// NewAPI builds the graph exchange over client and the signal registry.
func NewAPI(client *Client, reg *signal.Registry) *API {
	return &API{client: client, registry: reg}
}

func (a *API) Name() string { return APIName }

func (a *API) StalenessWindow() time.Duration { return stalenessWindow }

func (a *API) FetchOnce(ctx context.Context, collab *fetch.Collab, cp *fetch.Checkpoint) (*fetch.Delta, error) {
	if collab.PrivacyGroup == "" {
		return nil, fmt.Errorf("collaboration %s has no privacy_group configured", collab.Name)
	}

	var startTime int64
	cursor := ""
	lastFullFetch := time.Now().Unix()
	if cp != nil {
		startTime = cp.LastFetch
		cursor = cp.Cursor
		lastFullFetch = cp.LastFullFetch
	}

	rows, next, err := a.client.ThreatUpdates(ctx, collab.PrivacyGroup, startTime, cursor)
	if err != nil {
		return nil, err
	}

	delta := &fetch.Delta{HasMore: next != ""}
	lastFetch := startTime
	for _, row := range rows {
		if row.UpdateTime > lastFetch {
			lastFetch = row.UpdateTime
		}
		for _, st := range a.registry.ForIndicator(row.Type) {
			if !collab.WantsSignalType(st.Name) {
				continue
			}
			update := fetch.Update{SignalType: st.Name, Hash: row.Indicator}
			if !row.ShouldDelete {
				if !st.Validate(row.Indicator) {
					// Don't index garbage from the wire; skip the row.
					continue
				}
				update.Metadata = &fetch.Metadata{Opinions: []fetch.Opinion{{
					Owner:    row.Owner,
					Category: fetch.WorthInvestigating,
					Tags:     row.Tags,
				}}}
			}
			delta.Updates = append(delta.Updates, update)
		}
	}
	delta.Checkpoint = fetch.Checkpoint{
		LastFullFetch: lastFullFetch,
		LastFetch:     lastFetch,
		Cursor:        next,
	}
	return delta, nil
}
