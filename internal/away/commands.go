package away

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/backlog/internal/casefold"
)

var help = []string{
	"list: List clients and their away state",
	"reason [text]: Show or set the away reason (%time%, %nick% and %network% are expanded)",
	"autoaway <on|off>: Set away when the last client goes away or disconnects",
	"setaway [host]: Mark all clients, or those from host, as away",
}

// Command runs one module command line and writes its output to h.
func (m *Module) Command(ctx context.Context, h Host, network, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		h.PutModule("No command")
		return
	}
	args := fields[1:]

	switch strings.ToLower(fields[0]) {
	case "help":
		for _, l := range help {
			h.PutModule(l)
		}
	case "list":
		m.list(h)
	case "reason":
		m.reason(ctx, h, network, strings.Join(args, " "))
	case "autoaway":
		if len(args) != 1 {
			h.PutModule("Usage: autoaway <on|off>")
			return
		}
		m.autoAway(ctx, h, args[0])
	case "setaway":
		host := ""
		if len(args) > 0 {
			host = args[0]
		}
		m.setAway(h, host)
	default:
		h.PutModule("Invalid command " + fields[0])
	}
}

func (m *Module) list(h Host) {
	h.PutModule("Host\tNetwork\tAway")
	for _, c := range m.sortedClients() {
		h.PutModule(fmt.Sprintf("%s\t%s\t%t", c.Host, c.Network, c.away))
	}
}

func (m *Module) reason(ctx context.Context, h Host, network, text string) {
	if text != "" {
		if err := m.settings.SetSetting(ctx, SettingsModule, keyReason, text); err != nil {
			slog.Error("save away reason", "error", err)
			h.PutModule("Could not save away reason: " + err.Error())
			return
		}
		h.PutModule(fmt.Sprintf("Away reason set to [%s]", text))
	}
	h.PutModule(fmt.Sprintf("Away message will be expanded to [%s]", m.Reason(ctx, h, network)))
}

func (m *Module) autoAway(ctx context.Context, h Host, value string) {
	on, err := parseSwitch(value)
	if err != nil {
		h.PutModule("Usage: autoaway <on|off>")
		return
	}

	stored := "off"
	if on {
		stored = "on"
	}
	if err := m.settings.SetSetting(ctx, SettingsModule, keyAutoAway, stored); err != nil {
		slog.Error("save autoaway setting", "error", err)
		h.PutModule("Could not save autoaway setting: " + err.Error())
		return
	}

	if on {
		h.PutModule("Auto away when last client goes away or disconnects enabled.")
	} else {
		h.PutModule("Auto away when last client goes away or disconnects disabled.")
	}
}

func (m *Module) setAway(h Host, host string) {
	count := 0
	for _, c := range m.clients {
		if host == "" || casefold.Equal(c.Host, host) {
			c.away = true
			count++
		}
	}
	h.PutModule(fmt.Sprintf("%d clients have been set away", count))
}
