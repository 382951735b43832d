package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/macagotchi/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"orUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"remaining": func(ms int64) string {
		d := time.Duration(ms) * time.Millisecond
		h := int(d.Hours())
		m := int(d.Minutes()) % 60
		return fmt.Sprintf("%dh %dm", h, m)
	},
	"ratio": func(r float64) string {
		return fmt.Sprintf("%.0f%%", r*100)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Macagotchi</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.mood-HAPPY, .mood-EXCITED { color: green; font-weight: bold; }
.mood-CALM, .mood-SLEEPING { color: #888; }
.mood-SHOCKED, .mood-ANGRY { color: red; font-weight: bold; }
.mood-UNKNOWN { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.bar { background: #eee; width: 100%; height: 12px; }
.bar > div { background: green; height: 12px; }
</style>
</head>
<body>
<h1>Macagotchi</h1>

<h2>Creature</h2>
<table>
<tr><th>Phase</th><td>{{orUnknown (printf "%s" .Phase)}}</td></tr>
<tr><th>Mood</th><td class="mood-{{orUnknown (printf "%s" .Mood)}}">{{orUnknown (printf "%s" .Mood)}}</td></tr>
<tr><th>Hunger</th><td><div class="bar"><div style="width: {{.Hunger}}%"></div></div>{{.Hunger}}/100</td></tr>
<tr><th>Motion</th><td>{{orUnknown (printf "%s" .Motion)}}</td></tr>
</table>

{{if eq (printf "%s" .Phase) "EGG"}}
<h2>Egg</h2>
<table>
<tr><th>Progress</th><td><div class="bar"><div style="width: {{.Egg.ProgressPercent}}%"></div></div>{{.Egg.ProgressPercent}}%</td></tr>
<tr><th>Remaining</th><td>{{remaining .Egg.RemainingMs}}</td></tr>
<tr><th>MACs Seen</th><td>{{.Egg.MacCount}}</td></tr>
<tr><th>Randomized</th><td>{{ratio .Egg.RandRatio}}</td></tr>
</table>
{{end}}

<h2>Environment</h2>
<table>
<tr><th>Novelty Score</th><td>{{.NoveltyScore}}/10</td></tr>
<tr><th>New Last Scan</th><td>{{.NewLastScan}}</td></tr>
<tr><th>Seen (12h)</th><td>{{.Recent12h}}</td></tr>
<tr><th>MACs Today</th><td>{{.MacToday}}</td></tr>
<tr><th>MACs Total</th><td>{{.MacTotal}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>State File</th><td>{{.Config.StatePath}}</td></tr>
</table>

<p><a href="/status.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}
