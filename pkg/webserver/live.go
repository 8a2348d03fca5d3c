package webserver

import (
	"encoding/json"
	"f1raceanalyticsbot/pkg/analysis"
	"f1raceanalyticsbot/pkg/caster"
	"f1raceanalyticsbot/pkg/races"
	"html/template"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{} // use default options

// live pushes the analysis of a race on connect and again every time the
// race is refetched. format=msgpack switches to binary frames.
func (a *API) live(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var enc caster.ChannelCaster[analysis.Report] = caster.JSONChannelCaster[analysis.Report]{}
	messageType := websocket.TextMessage
	if r.URL.Query().Get("format") == "msgpack" {
		enc, messageType = caster.MsgpackChannelCaster[analysis.Report]{}, websocket.BinaryMessage
	}

	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer c.Close()

	type frame struct {
		messageType int
		data        []byte
	}
	build := func() (frame, error) {
		report, _, err := a.report(r.Context(), req)
		if err != nil {
			data, err := json.Marshal(map[string]string{"error": err.Error()})
			return frame{websocket.TextMessage, data}, err
		}
		data, err := enc.To(report)
		return frame{messageType, []byte(data)}, err
	}
	send := func(f frame) error {
		return c.WriteMessage(f.messageType, f.data)
	}

	// Building the first report may fetch the race and publish its own
	// update, so the subscription starts after it and before the write.
	first, err := build()
	if err != nil {
		log.Err(err).Msg("Could not encode report")
		return
	}
	topic := races.UpdatedTopic(req.season + "/" + req.round)
	updates := a.pubsub.Subscribe(topic)
	defer a.pubsub.Unsubscribe(topic, updates)
	if err := send(first); err != nil {
		log.Err(err).Msg("Websocket write failed")
		return
	}

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
			f, err := build()
			if err != nil {
				log.Err(err).Msg("Could not encode report")
				return
			}
			if err := send(f); err != nil {
				log.Err(err).Msg("Websocket write failed")
				return
			}
		case <-closed:
			log.Debug().Str("topic", topic).Msg("Websocket closed")
			return
		case <-r.Context().Done():
			return
		}
	}
}

type pageData struct {
	Season string
	Round  string
	Query  string
}

func (a *API) page(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, pageData{Season: req.season, Round: req.round, Query: r.URL.RawQuery}); err != nil {
		log.Err(err).Msg("Could not render race page")
	}
}

var pageTemplate = template.Must(template.New("").Parse(`
<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Carrera {{ .Season }}/{{ .Round }}</title>
</head>
<body>
  <h1 id="title">Carrera {{ .Season }}/{{ .Round }}</h1>
  <p id="quick"></p>
  <img id="gaps" src="/api/races/{{ .Season }}/{{ .Round }}/charts/gaps.svg?{{ .Query }}" width="100%">
  <img id="laps" src="/api/races/{{ .Season }}/{{ .Round }}/charts/laps.svg?{{ .Query }}" width="100%">

  <script>
    const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
    const ws = new WebSocket(proto + location.host + '/ws/races/{{ .Season }}/{{ .Round }}?{{ .Query }}');
    ws.onmessage = (event) => {
      const report = JSON.parse(event.data);
      if (report.error) {
        document.getElementById('quick').textContent = report.error;
        return;
      }
      const q = report.quick;
      document.getElementById('title').textContent = report.race.season + ' ' + report.race.raceName;
      document.getElementById('quick').textContent =
        'Vueltas: ' + q.totalLaps + ' · Pilotos: ' + q.drivers + ' · Paradas: ' + q.pitStops;
      for (const id of ['gaps', 'laps']) {
        const img = document.getElementById(id);
        img.src = img.src.split('#')[0] + '#' + Date.now();
      }
    };
  </script>
</body>
</html>
`))
