package main

import (
	"context"
	"f1raceanalyticsbot/pkg/apps"
	"f1raceanalyticsbot/pkg/apps/mainapp"
	"f1raceanalyticsbot/pkg/config"
	"f1raceanalyticsbot/pkg/ergast"
	"f1raceanalyticsbot/pkg/notification"
	"f1raceanalyticsbot/pkg/openf1"
	"f1raceanalyticsbot/pkg/pubsub"
	"f1raceanalyticsbot/pkg/races"
	"f1raceanalyticsbot/pkg/resources"
	"f1raceanalyticsbot/pkg/settings"
	"f1raceanalyticsbot/pkg/webserver"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	zerolog.SetGlobalLevel(cfg.Level())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not connect to Telegram")
	}
	// Set this to true to log all interactions with telegram servers
	bot.Debug = false

	// Create a new cancellable background context. Calling `cancel()` leads to the cancellation of the context
	ctx, cancel := context.WithCancel(context.Background())
	exitChan := make(chan bool)

	sm, err := settings.NewManager(cfg.SettingsDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not open settings")
	}
	defer sm.Close()

	store, err := resources.NewStore(cfg.ResourcesDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not create resources dir")
	}

	pubsubMgr := pubsub.NewPubSub[string]()
	ergastClient := ergast.NewClient(cfg.ErgastBaseURL, nil)
	openf1Client := openf1.NewClient(cfg.OpenF1BaseURL, nil)

	raceManager := races.NewManager(ergastClient, pubsubMgr)
	refreshTicker := time.NewTicker(cfg.RefreshInterval)
	raceManager.Start(ctx, refreshTicker, exitChan)

	resourcesTicker := time.NewTicker(cfg.RefreshInterval)
	go resetResources(store, resourcesTicker, exitChan)

	notificationMgr := notification.NewManager(ctx, bot, sm, pubsubMgr)
	go notificationMgr.Start(exitChan)

	webserverMgr := webserver.NewManager(store.Dir())
	webserver.NewAPI(raceManager, openf1Client, store, pubsubMgr).Register(webserverMgr.Router())
	webserverMgr.Debug()
	go func() {
		if err := webserverMgr.Serve(ctx, cfg.WebserverAddress); err != nil {
			log.Err(err).Msg("Webserver stopped")
		}
	}()

	mainApp := mainapp.NewMainApp(bot, mainapp.Sources{
		Races:     raceManager,
		Sectors:   openf1Client,
		Standings: ergastClient,
	}, sm, store, cfg.Season)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	// `updates` is a golang channel which receives telegram updates
	updates := bot.GetUpdatesChan(u)
	go receiveUpdates(ctx, bot, updates, mainApp)

	log.Info().Str("bot", bot.Self.UserName).Msg("Start listening for updates. Press Ctrl-C to stop it")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	// lock the main thread until we receive a signal
	<-sigs

	refreshTicker.Stop()
	resourcesTicker.Stop()
	close(exitChan)
	bot.StopReceivingUpdates()
	cancel()
}

// resetResources drops the generated charts whenever the race caches are
// refreshed, since they were drawn from the old data.
func resetResources(store *resources.Store, ticker *time.Ticker, exitChan <-chan bool) {
	for {
		select {
		case <-exitChan:
			return
		case <-ticker.C:
			if err := store.Reset(); err != nil {
				log.Err(err).Msg("Could not reset resources")
			}
		}
	}
}

func receiveUpdates(ctx context.Context, bot *tgbotapi.BotAPI, updates tgbotapi.UpdatesChannel, accepter apps.Accepter) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go handleUpdate(ctx, bot, update, accepter)
		}
	}
}

func handleUpdate(ctx context.Context, bot *tgbotapi.BotAPI, update tgbotapi.Update, accepter apps.Accepter) {
	switch {
	case update.Message != nil:
		message := update.Message
		ctx = context.WithValue(ctx, apps.UserContextKey, message.From)
		ctx = context.WithValue(ctx, apps.ChatContextKey, message.Chat)
		handleMessage(ctx, bot, message, accepter)
	case update.CallbackQuery != nil:
		query := update.CallbackQuery
		if query.Message == nil {
			return
		}
		ctx = context.WithValue(ctx, apps.UserContextKey, query.From)
		ctx = context.WithValue(ctx, apps.ChatContextKey, query.Message.Chat)
		// stops the spinner on the pressed button
		if _, err := bot.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			log.Debug().Err(err).Msg("Could not answer callback")
		}
		accept, handler := accepter.AcceptCallback(query)
		if !accept {
			log.Debug().Str("data", query.Data).Msg("Callback not handled")
			return
		}
		if err := handler(ctx, query); err != nil {
			log.Err(err).Str("data", query.Data).Msg("Callback failed")
		}
	}
}

func handleMessage(ctx context.Context, bot *tgbotapi.BotAPI, message *tgbotapi.Message, accepter apps.Accepter) {
	var accept bool
	var handler func(ctx context.Context, chatId int64) error
	if message.IsCommand() {
		accept, handler = accepter.AcceptCommand(message.Text)
	} else {
		accept, handler = accepter.AcceptButton(message.Text)
	}
	if !accept {
		msg := tgbotapi.NewMessage(message.Chat.ID, "No te he entendido. Usa /menu para ver las opciones")
		if _, err := bot.Send(msg); err != nil {
			log.Err(err).Msg("Could not answer message")
		}
		return
	}
	if err := handler(ctx, message.Chat.ID); err != nil {
		log.Err(err).Str("text", message.Text).Msg("Message handling failed")
	}
}
