package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/gps-clock/internal/status"
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
	"phaseClass": func(s string) string {
		switch s {
		case "RUNNING":
			return "running"
		case "UNSET":
			return "unset"
		}
		return "unknown"
	},
	"offset": func(secs int) string {
		return (time.Duration(secs) * time.Second).String()
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>GPS Clock</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
#display { font-size: 2.4em; background: #111; color: #f33; padding: 8px 12px; letter-spacing: 2px; }
.running { color: green; font-weight: bold; }
.unset { color: orange; font-weight: bold; }
.unknown { color: #888; }
.holdover { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>GPS Clock</h1>

<div id="display">{{if .Display}}{{.Display}}{{else}}--:--:--:---{{end}}</div>

<h2>Clock</h2>
<table>
<tr><th>Phase</th><td id="phase" class="{{phaseClass (printf "%s" .Phase)}}">{{.Phase}}</td></tr>
<tr><th>Pulse</th><td id="pulse" class="{{if .Holdover}}holdover{{end}}">{{if .Holdover}}holdover{{else}}locked{{end}}</td></tr>
<tr><th>Pulses</th><td id="pulses">{{.Counters.Pulses}}</td></tr>
<tr><th>Holdover seconds</th><td>{{.Counters.HoldoverSeconds}}</td></tr>
<tr><th>Resyncs</th><td>{{.Counters.Resyncs}}</td></tr>
</table>

<h2>Satellites</h2>
<table>
{{if .Progress}}<tr><th>Acquiring</th><td>{{.Progress.Satellites}} sats</td></tr>
<tr><th>Receiver</th><td>{{.Progress.Time}} {{.Progress.Date}}</td></tr>{{end}}
{{if .Fix}}<tr><th>Acquired</th><td>{{printf "%02d:%02d:%02d" .Fix.Hour .Fix.Minute .Fix.Second}} {{.Fix.Date}}</td></tr>
<tr><th>Satellites</th><td>{{.Fix.Satellites}}</td></tr>
<tr><th>At</th><td>{{.AcquiredAt.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>{{else}}<tr><th>Acquired</th><td>not yet</td></tr>{{end}}
<tr><th>Acquisitions</th><td>{{.Acquisitions}}</td></tr>
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
<tr><th>UTC offset</th><td>{{offset .Config.OffsetSeconds}}</td></tr>
<tr><th>Min satellites</th><td>&gt; {{.Config.MinSatellites}}</td></tr>
<tr><th>Resync</th><td>{{if .Config.ResyncEnabled}}after {{.Config.ResyncAfterMs}}ms{{else}}disabled{{end}}</td></tr>
<tr><th>Serial</th><td>{{.Config.SerialDevice}}</td></tr>
<tr><th>PPS pin</th><td>{{.Config.PPSPin}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> <a href="/metrics">Metrics</a></p>
<script>
(function() {
  var display = document.getElementById("display");
  var phase = document.getElementById("phase");
  var pulse = document.getElementById("pulse");
  var pulses = document.getElementById("pulses");

  function poll() {
    fetch("/index.json").then(function(r) { return r.json(); }).then(function(j) {
      var s = j.status;
      display.textContent = s.display || "--:--:--:---";
      phase.textContent = s.phase;
      phase.className = s.phase === "RUNNING" ? "running" : s.phase === "UNSET" ? "unset" : "unknown";
      pulse.textContent = s.holdover ? "holdover" : "locked";
      pulse.className = s.holdover ? "holdover" : "";
      pulses.textContent = s.counters.pulses;
    }).catch(function() {});
  }
  setInterval(poll, 250);
})();
</script>
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
