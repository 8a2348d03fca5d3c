package races

import (
	"context"
	"f1raceanalyticsbot/pkg/caster"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/pubsub"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/ksuid"
	"golang.org/x/sync/errgroup"
)

const (
	// TopicLatestRace receives a race when a new one gets published results.
	TopicLatestRace = "races:latest"
	topicUpdated    = "races:updated:"
)

// ErrSuperseded is returned by a fetch that finished after a newer fetch of
// the same race was started.
var ErrSuperseded = errors.New("fetch superseded")

// UpdatedTopic receives the race every time its batch is refetched.
func UpdatedTopic(raceKey string) string {
	return topicUpdated + raceKey
}

type Source interface {
	SeasonRaces(ctx context.Context, season string) ([]model.Race, error)
	LatestRace(ctx context.Context) (model.Race, error)
	Results(ctx context.Context, season, round string) (model.Race, []model.Driver, error)
	Laps(ctx context.Context, season, round string) ([]model.LapRecord, error)
	PitStops(ctx context.Context, season, round string) ([]model.PitStopEvent, error)
}

type Manager struct {
	source      Source
	mu          sync.Mutex
	batches     map[string]model.RaceBatch
	generations map[string]string
	seasons     map[string][]model.Race
	latest      model.Race
	pubsub      *pubsub.PubSub[string]
	caster      caster.ChannelCaster[model.Race]
}

func NewManager(source Source, ps *pubsub.PubSub[string]) *Manager {
	return &Manager{
		source:      source,
		batches:     map[string]model.RaceBatch{},
		generations: map[string]string{},
		seasons:     map[string][]model.Race{},
		pubsub:      ps,
		caster:      caster.JSONChannelCaster[model.Race]{},
	}
}

// Start resets the caches on every tick and checks whether a new race got
// results since the previous check.
func (m *Manager) Start(ctx context.Context, ticker *time.Ticker, exitChan chan bool) {
	m.checkLatest(ctx)
	go func() {
		for {
			select {
			case <-exitChan:
				return
			case t := <-ticker.C:
				log.Info().Time("at", t).Msg("Resetting race caches")
				m.Reset()
				m.checkLatest(ctx)
			}
		}
	}()
}

func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = map[string]model.RaceBatch{}
	m.seasons = map[string][]model.Race{}
}

func (m *Manager) checkLatest(ctx context.Context) {
	race, err := m.source.LatestRace(ctx)
	if err != nil {
		log.Err(err).Msg("Could not get the latest race")
		return
	}
	m.mu.Lock()
	previous := m.latest
	m.latest = race
	m.mu.Unlock()

	if previous.Round != "" && previous.Key() != race.Key() {
		log.Info().Str("race", race.Key()).Msg("New race results available")
		m.publish(TopicLatestRace, race)
	}
}

func (m *Manager) publish(topic string, race model.Race) {
	if m.pubsub == nil {
		return
	}
	data, err := m.caster.To(race)
	if err != nil {
		log.Err(err).Str("topic", topic).Msg("Could not encode race")
		return
	}
	m.pubsub.Publish(topic, data)
}

// Latest returns the last race with results, asking the source when none has
// been seen yet.
func (m *Manager) Latest(ctx context.Context) (model.Race, error) {
	m.mu.Lock()
	latest := m.latest
	m.mu.Unlock()
	if latest.Round != "" {
		return latest, nil
	}
	race, err := m.source.LatestRace(ctx)
	if err != nil {
		return race, err
	}
	m.mu.Lock()
	m.latest = race
	m.mu.Unlock()
	return race, nil
}

func (m *Manager) SeasonRaces(ctx context.Context, season string) ([]model.Race, error) {
	m.mu.Lock()
	races, ok := m.seasons[season]
	m.mu.Unlock()
	if ok {
		return races, nil
	}
	races, err := m.source.SeasonRaces(ctx, season)
	if err != nil {
		return races, err
	}
	m.mu.Lock()
	m.seasons[season] = races
	m.mu.Unlock()
	return races, nil
}

// Batch returns the cached batch of a race, fetching it on a miss. A reader
// whose fetch got superseded gets the newer batch instead.
func (m *Manager) Batch(ctx context.Context, season, round string) (model.RaceBatch, error) {
	key := season + "/" + round
	m.mu.Lock()
	batch, ok := m.batches[key]
	m.mu.Unlock()
	if ok {
		return batch, nil
	}
	batch, err := m.Refresh(ctx, season, round)
	if errors.Is(err, ErrSuperseded) {
		m.mu.Lock()
		cached, ok := m.batches[key]
		m.mu.Unlock()
		if ok {
			return cached, nil
		}
	}
	return batch, err
}

// Refresh fetches a race again. Each fetch gets a generation id and only the
// newest generation may replace the cached batch.
func (m *Manager) Refresh(ctx context.Context, season, round string) (model.RaceBatch, error) {
	key := season + "/" + round
	generation := ksuid.New().String()
	m.mu.Lock()
	m.generations[key] = generation
	m.mu.Unlock()

	batch, err := m.fetch(ctx, season, round)
	if err != nil {
		return batch, err
	}

	m.mu.Lock()
	if m.generations[key] != generation {
		m.mu.Unlock()
		log.Debug().Str("race", key).Str("generation", generation).Msg("Discarding superseded fetch")
		return model.RaceBatch{}, errors.Wrapf(ErrSuperseded, "race %s", key)
	}
	m.batches[key] = batch
	m.mu.Unlock()

	m.publish(UpdatedTopic(key), batch.Race)
	return batch, nil
}

func (m *Manager) fetch(ctx context.Context, season, round string) (model.RaceBatch, error) {
	var batch model.RaceBatch
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		race, drivers, err := m.source.Results(gctx, season, round)
		batch.Race, batch.Drivers = race, drivers
		return err
	})
	g.Go(func() error {
		laps, err := m.source.Laps(gctx, season, round)
		batch.Laps = laps
		return err
	})
	g.Go(func() error {
		stops, err := m.source.PitStops(gctx, season, round)
		batch.PitStops = stops
		return err
	})
	if err := g.Wait(); err != nil {
		return model.RaceBatch{}, errors.Wrapf(err, "fetching race %s/%s", season, round)
	}
	log.Debug().Str("race", batch.Race.Key()).Int("laps", len(batch.Laps)).Int("pitStops", len(batch.PitStops)).Msg("Race fetched")
	return batch, nil
}
