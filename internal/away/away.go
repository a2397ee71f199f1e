// Package away implements the client-away module: it keeps the upstream
// IRC connection marked away while no client is actively attached, and
// lets each client toggle its own away flag without touching the others.
//
// Two kinds of state are kept. Each attached client has its own away flag,
// which drives the 305/306 replies and the setaway command. Each network
// has an upstream flag recording whether the module last sent "AWAY :..."
// or "AWAY"; that flag alone decides whether another AWAY is sent.
//
// A Module is not safe for concurrent use. The engine calls it from its
// event loop only.
package away

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

// SettingsModule is the settings namespace of the module.
const SettingsModule = "clientaway"

// DefaultReason is used when no reason has been configured.
const DefaultReason = "Auto away at %time%"

// Setting keys.
const (
	keyReason   = "reason"
	keyAutoAway = "autoaway"
)

// Config holds the defaults applied when a setting is missing.
type Config struct {
	DefaultReason string
}

// Settings persists module settings.
type Settings interface {
	Setting(ctx context.Context, module, key string) (string, bool, error)
	SetSetting(ctx context.Context, module, key, value string) error
}

// Clock supplies the time used to expand %time%.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Host is where the module sends its output.
type Host interface {
	Nick() string
	PutModule(line string)
	PutIRC(line string)
	PutClient(line string)
}

// Client identifies one attached client connection.
type Client struct {
	ID      string // stable per connection
	Host    string // remote address
	Network string
}

type clientState struct {
	Client
	away bool
}

// Module is the client-away module of one user.
type Module struct {
	cfg      Config
	settings Settings
	clock    Clock

	clients map[string]*clientState
	ircAway map[string]bool // per network: upstream marked away by us
}

// Option configures a Module.
type Option func(*Module)

// WithClock overrides the clock used for %time%.
func WithClock(c Clock) Option {
	return func(m *Module) {
		m.clock = c
	}
}

// New creates a Module. An empty DefaultReason falls back to DefaultReason.
func New(cfg Config, settings Settings, opts ...Option) *Module {
	if cfg.DefaultReason == "" {
		cfg.DefaultReason = DefaultReason
	}
	m := &Module{
		cfg:      cfg,
		settings: settings,
		clock:    systemClock{},
		clients:  make(map[string]*clientState),
		ircAway:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reason returns the configured away reason with placeholders expanded.
func (m *Module) Reason(ctx context.Context, h Host, network string) string {
	reason, ok, err := m.settings.Setting(ctx, SettingsModule, keyReason)
	if err != nil {
		slog.Error("read away reason", "error", err)
	}
	if !ok || reason == "" {
		reason = m.cfg.DefaultReason
	}
	return m.expand(reason, h.Nick(), network)
}

// AutoAway reports whether automatic away is enabled. A missing or
// unreadable setting means disabled.
func (m *Module) AutoAway(ctx context.Context) bool {
	v, ok, err := m.settings.Setting(ctx, SettingsModule, keyAutoAway)
	if err != nil {
		slog.Error("read autoaway setting", "error", err)
		return false
	}
	if !ok {
		return false
	}
	on, _ := parseSwitch(v)
	return on
}

func (m *Module) expand(s, nick, network string) string {
	r := strings.NewReplacer(
		"%time%", m.clock.Now().Format(time.ANSIC),
		"%nick%", nick,
		"%network%", network,
	)
	return r.Replace(s)
}

// IRCAway reports whether the module has marked network away upstream.
func (m *Module) IRCAway(network string) bool {
	return m.ircAway[network]
}

// userOnline reports whether any client on network is attached and not away.
func (m *Module) userOnline(network string) bool {
	for _, c := range m.clients {
		if c.Network == network && !c.away {
			return true
		}
	}
	return false
}

func (m *Module) setUpstreamAway(h Host, network, reason string) {
	h.PutIRC("AWAY :" + reason)
	m.ircAway[network] = true
	slog.Debug("upstream marked away", "network", network)
}

func (m *Module) clearUpstreamAway(h Host, network string) {
	h.PutIRC("AWAY")
	m.ircAway[network] = false
	slog.Debug("upstream away cleared", "network", network)
}

// ClientLogin registers c and, with auto-away on, brings the network back.
func (m *Module) ClientLogin(ctx context.Context, h Host, c Client) {
	m.clients[c.ID] = &clientState{Client: c}

	if m.AutoAway(ctx) && m.ircAway[c.Network] {
		m.clearUpstreamAway(h, c.Network)
	}
}

// ClientDisconnect forgets c and, with auto-away on, marks the network away
// when no active client is left.
func (m *Module) ClientDisconnect(ctx context.Context, h Host, c Client) {
	delete(m.clients, c.ID)

	if m.AutoAway(ctx) && !m.ircAway[c.Network] && !m.userOnline(c.Network) {
		m.setUpstreamAway(h, c.Network, m.Reason(ctx, h, c.Network))
	}
}

// IRCConnected handles a fresh upstream connection, which starts not away.
func (m *Module) IRCConnected(ctx context.Context, h Host, network string) {
	m.ircAway[network] = false

	if m.AutoAway(ctx) && !m.userOnline(network) {
		m.setUpstreamAway(h, network, m.Reason(ctx, h, network))
	}
}

// UserRaw intercepts AWAY sent by a client. It reports whether the line was
// consumed; other lines pass through untouched.
func (m *Module) UserRaw(ctx context.Context, h Host, c Client, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.EqualFold(fields[0], "away") {
		return false
	}
	reason := strings.TrimPrefix(strings.Join(fields[1:], " "), ":")

	st, ok := m.clients[c.ID]
	if !ok {
		st = &clientState{Client: c}
		m.clients[c.ID] = st
	}

	if reason == "" {
		st.away = false
		h.PutClient(fmt.Sprintf(":irc.znc.in 305 %s :[Client] You are no longer marked as being away", h.Nick()))

		if m.AutoAway(ctx) && m.ircAway[c.Network] {
			m.clearUpstreamAway(h, c.Network)
		}
		return true
	}

	st.away = true
	h.PutClient(fmt.Sprintf(":irc.znc.in 306 %s :[Client] You have been marked as being away", h.Nick()))

	if m.AutoAway(ctx) && !m.ircAway[c.Network] && !m.userOnline(c.Network) {
		m.setUpstreamAway(h, c.Network, reason)
	}
	return true
}

// sortedClients returns the attached clients ordered by id.
func (m *Module) sortedClients() []*clientState {
	out := make([]*clientState, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}
