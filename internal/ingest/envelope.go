package ingest

import (
	"fmt"

	"github.com/roach88/backlog/internal/away"
	"github.com/roach88/backlog/internal/engine"
)

// Envelope is one newline-delimited JSON event from the bouncer.
//
// Besides the event itself it carries the host state needed to answer it:
// the user's nick and the capabilities of the client involved.
type Envelope struct {
	Type    string `json:"type"`
	Nick    string `json:"nick,omitempty"`
	Target  string `json:"target,omitempty"`
	Text    string `json:"text,omitempty"`
	Module  string `json:"module,omitempty"`
	Network string `json:"network,omitempty"`

	SelfNick    string `json:"self_nick"`
	SelfMessage bool   `json:"self_message,omitempty"`
	ServerTime  bool   `json:"server_time,omitempty"`

	Client     string `json:"client,omitempty"`      // client id
	ClientHost string `json:"client_host,omitempty"` // client remote address
}

// Event converts the envelope to an engine event answered through host.
func (env Envelope) Event(host engine.Host) (engine.Event, error) {
	typ, err := engine.ParseEventType(env.Type)
	if err != nil {
		return engine.Event{}, err
	}
	if env.SelfNick == "" {
		return engine.Event{}, fmt.Errorf("%s envelope has no self_nick", env.Type)
	}

	return engine.Event{
		Type:    typ,
		Nick:    env.Nick,
		Target:  env.Target,
		Text:    env.Text,
		Module:  env.Module,
		Network: env.Network,
		Client: away.Client{
			ID:      env.Client,
			Host:    env.ClientHost,
			Network: env.Network,
		},
		Host: host,
	}, nil
}
