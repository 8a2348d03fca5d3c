package racing

import (
	"context"
	"f1raceanalyticsbot/pkg/analysis"
	"f1raceanalyticsbot/pkg/apps"
	"f1raceanalyticsbot/pkg/charts"
	"f1raceanalyticsbot/pkg/model"
	"f1raceanalyticsbot/pkg/render"
	"f1raceanalyticsbot/pkg/sectors"
	"f1raceanalyticsbot/pkg/telemetry"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

const (
	viewSummary          = "summary"
	viewLaps             = "laps"
	viewGaps             = "gaps"
	viewIntervals        = "intervals"
	viewStints           = "stints"
	viewSectors          = "sectors"
	viewTelemetry        = "telemetry"
	viewDrivers          = "drivers"
	viewChartLaps        = "chart_laps"
	viewChartGaps        = "chart_gaps"
	viewChartIntervals   = "chart_intervals"
	viewChartDegradation = "chart_deg"
	viewChartSpeed       = "chart_speed"

	symbolTimes     = "⏱"
	symbolGaps      = "⏲️"
	symbolIntervals = "↔️"
	symbolStints    = "🛞"
	symbolSectors   = "🔂"
	symbolTelemetry = "🚀"
	symbolChart     = "📈"
	symbolDriver    = "👐"
	symbolSummary   = "🏁"
	symbolSelected  = "✅"
)

type chartBuilder func(report analysis.Report, batch model.RaceBatch) charts.Chart

var chartViews = map[string]chartBuilder{
	viewChartLaps:        func(r analysis.Report, _ model.RaceBatch) charts.Chart { return charts.LapTimes(r) },
	viewChartGaps:        func(r analysis.Report, b model.RaceBatch) charts.Chart { return charts.Gaps(r, b.PitStops) },
	viewChartIntervals:   func(r analysis.Report, _ model.RaceBatch) charts.Chart { return charts.Intervals(r) },
	viewChartDegradation: func(r analysis.Report, _ model.RaceBatch) charts.Chart { return charts.Degradation(r) },
}

func viewData(view, season, round string, extra ...string) string {
	data := fmt.Sprintf("%s:%s:%s:%s", subcommandView, view, season, round)
	for _, e := range extra {
		data += ":" + e
	}
	return data
}

func viewKeyboard(season, round string) tgbotapi.InlineKeyboardMarkup {
	button := func(text, view string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(text, viewData(view, season, round))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("Vueltas "+symbolTimes, viewLaps),
			button("Diferencias "+symbolGaps, viewGaps),
			button("Intervalos "+symbolIntervals, viewIntervals),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("Tandas "+symbolStints, viewStints),
			button("Sectores "+symbolSectors, viewSectors),
			button("Telemetría "+symbolTelemetry, viewTelemetry),
		),
		tgbotapi.NewInlineKeyboardRow(
			button(symbolChart+" Vueltas", viewChartLaps),
			button(symbolChart+" Diferencias", viewChartGaps),
		),
		tgbotapi.NewInlineKeyboardRow(
			button(symbolChart+" Intervalos", viewChartIntervals),
			button(symbolChart+" Degradación", viewChartDegradation),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("Pilotos "+symbolDriver, viewDrivers),
			button("Resumen "+symbolSummary, viewSummary),
		),
	)
}

func summaryText(batch model.RaceBatch, cfg model.FilterConfig) string {
	label := render.Codes(batch.Drivers)
	return fmt.Sprintf("%s\n\n%s", render.QuickStats(batch.Race, analysis.ComputeQuickStats(batch), label), cfg)
}

func (ra *RacingApp) userFilters(ctx context.Context) model.FilterConfig {
	userID, ok := apps.UserID(ctx)
	if !ok {
		return model.FilterConfig{}
	}
	cfg, err := ra.prefs.Filters(userID)
	if err != nil {
		log.Err(err).Str("user", userID).Msg("Could not read filters")
		return model.FilterConfig{}
	}
	return cfg
}

// userDrivers returns the drivers the user picked for this race, nil when
// none.
func (ra *RacingApp) userDrivers(ctx context.Context, season, round string) []string {
	userID, ok := apps.UserID(ctx)
	if !ok {
		return nil
	}
	s, err := ra.prefs.Selection(userID)
	if err != nil {
		log.Err(err).Str("user", userID).Msg("Could not read selection")
		return nil
	}
	if s.Season != season || s.Round != round || len(s.Drivers) == 0 {
		return nil
	}
	return s.Drivers
}

// tableDrivers limits the tables to the picked drivers, or to the first
// classified ones so the message fits.
func tableDrivers(picked []string, batch model.RaceBatch) []string {
	if len(picked) > 0 {
		return picked
	}
	ids := batch.DriverIDs()
	if len(ids) > defaultDrivers {
		ids = ids[:defaultDrivers]
	}
	return ids
}

func (ra *RacingApp) handleView(ctx context.Context, query *tgbotapi.CallbackQuery, view, season, round string, extra ...string) error {
	chatId, messageID := query.Message.Chat.ID, query.Message.MessageID
	key := season + "/" + round

	switch view {
	case viewSummary:
		return ra.renderRace(ctx, chatId, &messageID, season, round)
	case viewDrivers:
		return ra.renderDrivers(ctx, chatId, &messageID, season, round)
	}

	batch, err := ra.races.Batch(ctx, season, round)
	if err != nil {
		return ra.sendLoadError(chatId, key, err)
	}
	label := render.Codes(batch.Drivers)
	picked := ra.userDrivers(ctx, season, round)
	cfg := ra.userFilters(ctx)

	switch view {
	case viewTelemetry, viewChartSpeed:
		return ra.handleTelemetry(chatId, messageID, view, batch, picked, label, extra...)
	case viewSectors:
		drivers := tableDrivers(picked, batch)
		laps, unmapped, err := ra.sectors.SectorLaps(ctx, batch.Race, drivers)
		if err != nil {
			log.Err(err).Str("race", key).Msg("Could not read sectors")
			return ra.sendError(chatId, fmt.Sprintf("No hay sectores disponibles para %s", batch.Race))
		}
		return ra.sendTable(chatId, messageID, season, round, fmt.Sprintf("Sectores %s", batch.Race), render.Sectors(sectors.Track(laps, drivers).WithUnmapped(unmapped), label))
	}

	if build, ok := chartViews[view]; ok {
		report, err := analysis.Analyze(batch, cfg, picked)
		if err != nil {
			return ra.sendLoadError(chatId, key, err)
		}
		return ra.sendChart(chatId, charts.ID(batch.Race, view, cfg, picked), build(report, batch), label, batch.Race.String())
	}

	report, err := analysis.Analyze(batch, cfg, tableDrivers(picked, batch))
	if err != nil {
		return ra.sendLoadError(chatId, key, err)
	}
	title := fmt.Sprintf("%s\n%s", batch.Race, cfg)
	switch view {
	case viewLaps:
		return ra.sendTable(chatId, messageID, season, round, title, render.LapTimes(report, label))
	case viewGaps:
		return ra.sendTable(chatId, messageID, season, round, title, render.Gaps(report, label))
	case viewIntervals:
		return ra.sendTable(chatId, messageID, season, round, title, render.Intervals(report, label))
	case viewStints:
		return ra.sendTable(chatId, messageID, season, round, title, render.Stints(report, label))
	}
	return ra.sendError(chatId, "Vista desconocida")
}

// sendTable edits the race message with a table. Tables longer than a
// message go out as a text document instead.
func (ra *RacingApp) sendTable(chatId int64, messageID int, season, round, title, body string) error {
	text := render.Block(title, body)
	if len(text) > maxMessageSize {
		doc := tgbotapi.NewDocument(chatId, tgbotapi.FileBytes{Name: "tabla.txt", Bytes: []byte(title + "\n\n" + body)})
		doc.Caption = title
		_, err := ra.bot.Send(doc)
		return err
	}
	keyboard := viewKeyboard(season, round)
	return apps.SendOrEdit(ra.bot, chatId, &messageID, text, tgbotapi.ModeMarkdownV2, &keyboard)
}

// sendChart draws the chart once per content and sends it as a photo with
// the colour legend as caption.
func (ra *RacingApp) sendChart(chatId int64, id string, c charts.Chart, label render.Labeler, title string) error {
	if c.Empty() {
		return ra.sendError(chatId, "No hay datos para el gráfico")
	}
	res, err := ra.store.Build("chart_", id, ".png", func(filePath string) error {
		return charts.BuildPNG(filePath, c)
	})
	if err != nil {
		log.Err(err).Str("chart", id).Msg("Could not build chart")
		return ra.sendError(chatId, "No se pudo generar el gráfico")
	}
	msg := tgbotapi.NewPhoto(chatId, tgbotapi.FilePath(res.FilePath()))
	msg.Caption = title + "\n" + charts.Legend(c, label)
	_, err = ra.bot.Send(msg)
	return err
}

// TelemetryPair picks the two drivers to compare: the first two picked, or
// the first two classified.
func TelemetryPair(picked []string, batch model.RaceBatch) (string, string, bool) {
	ids := picked
	if len(ids) < 2 {
		ids = batch.DriverIDs()
	}
	if len(ids) < 2 {
		return "", "", false
	}
	return ids[0], ids[1], true
}

// telemetryLap reads the lap from the callback, defaulting to the fastest lap
// of the race, and keeps it inside the race.
func telemetryLap(batch model.RaceBatch, extra ...string) int {
	qs := analysis.ComputeQuickStats(batch)
	total, lap := qs.TotalLaps, qs.FastestLap
	if len(extra) > 0 {
		if n, err := strconv.Atoi(extra[0]); err == nil {
			lap = n
		}
	}
	if lap < 1 {
		lap = 1
	}
	if total > 0 && lap > total {
		lap = total
	}
	return lap
}

func (ra *RacingApp) handleTelemetry(chatId int64, messageID int, view string, batch model.RaceBatch, picked []string, label render.Labeler, extra ...string) error {
	a, b, ok := TelemetryPair(picked, batch)
	if !ok {
		return ra.sendError(chatId, "Hacen falta dos pilotos para comparar")
	}
	lap := telemetryLap(batch, extra...)
	pair, err := telemetry.ForRace(batch, a, b, lap)
	if err != nil {
		log.Warn().Err(err).Str("race", batch.Race.Key()).Msg("Could not build telemetry")
		return ra.sendError(chatId, fmt.Sprintf("No hay tiempos válidos de %s y %s en la vuelta %d", label(a), label(b), lap))
	}

	if view == viewChartSpeed {
		id := charts.ID(batch.Race, view, model.FilterConfig{}, []string{a, b}, strconv.Itoa(lap))
		c := charts.Speed(pair, a, b)
		return ra.sendChart(chatId, id, c, label, fmt.Sprintf("%s vuelta %d (simulada)", batch.Race, lap))
	}

	season, round := batch.Race.Season, batch.Race.Round
	total := analysis.ComputeQuickStats(batch).TotalLaps
	row := []tgbotapi.InlineKeyboardButton{}
	if lap > 1 {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Anterior", viewData(viewTelemetry, season, round, strconv.Itoa(lap-1))))
	}
	row = append(row, tgbotapi.NewInlineKeyboardButtonData(symbolChart+" Velocidad", viewData(viewChartSpeed, season, round, strconv.Itoa(lap))))
	if lap < total {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("Siguiente", viewData(viewTelemetry, season, round, strconv.Itoa(lap+1))))
	}
	keyboard := viewKeyboard(season, round)
	keyboard.InlineKeyboard = append([][]tgbotapi.InlineKeyboardButton{row}, keyboard.InlineKeyboard...)

	text := render.Block(batch.Race.String(), render.Telemetry(pair, label(a), label(b)))
	return apps.SendOrEdit(ra.bot, chatId, &messageID, text, tgbotapi.ModeMarkdownV2, &keyboard)
}

func (ra *RacingApp) renderDrivers(ctx context.Context, chatId int64, messageID *int, season, round string) error {
	batch, err := ra.races.Batch(ctx, season, round)
	if err != nil {
		return ra.sendLoadError(chatId, season+"/"+round, err)
	}
	picked := ra.userDrivers(ctx, season, round)
	text := fmt.Sprintf("Elige los pilotos de %s:", batch.Race)
	keyboard := DriversKeyboard(batch, picked)
	return apps.SendOrEdit(ra.bot, chatId, messageID, text, "", &keyboard)
}

// DriversKeyboard lists every driver of the race, three per row, marking the
// picked ones.
func DriversKeyboard(batch model.RaceBatch, picked []string) tgbotapi.InlineKeyboardMarkup {
	selected := map[string]bool{}
	for _, id := range picked {
		selected[id] = true
	}
	label := render.Codes(batch.Drivers)
	season, round := batch.Race.Season, batch.Race.Round

	buttons := [][]tgbotapi.InlineKeyboardButton{}
	for idx, id := range batch.DriverIDs() {
		if idx%3 == 0 {
			buttons = append(buttons, []tgbotapi.InlineKeyboardButton{})
		}
		text := label(id)
		if selected[id] {
			text += " " + symbolSelected
		}
		buttons[len(buttons)-1] = append(buttons[len(buttons)-1], tgbotapi.NewInlineKeyboardButtonData(text, fmt.Sprintf("%s:%s:%s:%s", subcommandDriver, season, round, id)))
	}
	buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Resumen "+symbolSummary, viewData(viewSummary, season, round)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(buttons...)
}
