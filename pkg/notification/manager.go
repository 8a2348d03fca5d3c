package notification

import (
	"context"
	"f1raceanalyticsbot/pkg/caster"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/pubsub"
	"f1raceanalyticsbot/pkg/races"
	"f1raceanalyticsbot/pkg/settings"
	"fmt"

	"github.com/nikoksr/notify"
	"github.com/rs/zerolog/log"
)

const subjectNewRace = "🏁 Nueva carrera disponible:"

type Lister interface {
	ListSubscribers() ([]settings.TelegramUser, error)
}

type Manager struct {
	ctx    context.Context
	lister Lister
	bot    Sender
	pubsub *pubsub.PubSub[string]
	caster caster.ChannelCaster[model.Race]
}

func NewManager(ctx context.Context, bot Sender, lister Lister, ps *pubsub.PubSub[string]) *Manager {
	return &Manager{
		ctx:    ctx,
		bot:    bot,
		lister: lister,
		pubsub: ps,
		caster: caster.JSONChannelCaster[model.Race]{},
	}
}

// Start announces every new race to the subscribers until exitChan fires.
func (m *Manager) Start(exitChan <-chan bool) {
	latest := m.pubsub.Subscribe(races.TopicLatestRace)
	defer m.pubsub.Unsubscribe(races.TopicLatestRace, latest)
	for {
		select {
		case <-exitChan:
			return
		case data, ok := <-latest:
			if !ok {
				return
			}
			race, err := m.caster.From(data)
			if err != nil {
				log.Err(err).Msg("Could not decode race")
				continue
			}
			m.handleNotification(race)
		}
	}
}

func (m *Manager) handleNotification(race model.Race) {
	recipients, err := m.lister.ListSubscribers()
	if err != nil {
		log.Err(err).Msg("Could not list subscribers")
		return
	}
	log.Info().Str("race", race.Key()).Int("users", len(recipients)).Msg("Sending new race notification")
	if err := m.sendNotification(recipients, race); err != nil {
		log.Err(err).Msg("Could not notify users")
	}
}

func (m *Manager) sendNotification(tusers []settings.TelegramUser, race model.Race) error {
	if len(tusers) == 0 {
		return nil
	}

	tg := &Telegram{}
	tg.SetClient(m.bot)
	for _, tuser := range tusers {
		tg.AddReceivers(tuser.ChatID)
	}

	n := notify.NewWithServices(tg)
	return n.Send(m.ctx, subjectNewRace, Message(race))
}

// Message is the notification body, ending with the command that opens the
// race in the bot.
func Message(race model.Race) string {
	return fmt.Sprintf("%s\n%s", race, RaceCommand(race))
}

func RaceCommand(race model.Race) string {
	return fmt.Sprintf("/r%s_%s", race.Season, race.Round)
}
