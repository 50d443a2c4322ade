package fetch

import (
	"context"
	"time"

	"github.com/sigexhq/sigex-cli/internal/signal"
)

// SampleAPIName is the exchange name of the built-in static sample source.
const SampleAPIName = "sample"

// StaticSampleAPI serves each signal type's example data in a single delta.
// It exists so `sigex init && sigex fetch && sigex match` works out of the
// box, and doubles as the fetch pipeline's test double.
type StaticSampleAPI struct {
	registry *signal.Registry
}

// NewStaticSampleAPI returns a sample exchange over the registry's types.
func NewStaticSampleAPI(reg *signal.Registry) *StaticSampleAPI {
	return &StaticSampleAPI{registry: reg}
}

func (a *StaticSampleAPI) Name() string { return SampleAPIName }

func (a *StaticSampleAPI) StalenessWindow() time.Duration { return 0 }

func (a *StaticSampleAPI) FetchOnce(_ context.Context, collab *Collab, _ *Checkpoint) (*Delta, error) {
	now := time.Now().Unix()
	delta := &Delta{
		Checkpoint: Checkpoint{LastFullFetch: now, LastFetch: now},
	}
	for _, st := range a.registry.All() {
		if !collab.WantsSignalType(st.Name) {
			continue
		}
		for _, example := range st.Examples {
			hash := example
			if st.HashFromString != nil {
				h, err := st.HashFromString(example)
				if err != nil {
					continue
				}
				hash = h
			}
			delta.Updates = append(delta.Updates, Update{
				SignalType: st.Name,
				Hash:       hash,
				Metadata:   &Metadata{Opinions: []Opinion{TrivialOpinion()}},
			})
		}
	}
	return delta, nil
}
