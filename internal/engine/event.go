package engine

import (
	"fmt"

	"github.com/roach88/backlog/internal/away"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventChanMsg is a message from Nick to channel Target.
	EventChanMsg EventType = iota + 1
	// EventChanAction is a CTCP ACTION from Nick to channel Target.
	EventChanAction
	// EventPrivMsg is a private message from Nick.
	EventPrivMsg
	// EventPrivAction is a private CTCP ACTION from Nick.
	EventPrivAction
	// EventUserMsg is a message the user sent to Target.
	EventUserMsg
	// EventUserAction is an ACTION the user sent to Target.
	EventUserAction
	// EventModCommand is a command line addressed to Module.
	EventModCommand
	// EventClientLogin is a client attaching to Network.
	EventClientLogin
	// EventClientDisconnect is a client detaching from Network.
	EventClientDisconnect
	// EventIRCConnected is a new upstream connection for Network.
	EventIRCConnected
	// EventUserRaw is a raw line sent by a client.
	EventUserRaw
)

var eventNames = map[EventType]string{
	EventChanMsg:          "chan_msg",
	EventChanAction:       "chan_action",
	EventPrivMsg:          "priv_msg",
	EventPrivAction:       "priv_action",
	EventUserMsg:          "user_msg",
	EventUserAction:       "user_action",
	EventModCommand:       "mod_command",
	EventClientLogin:      "client_login",
	EventClientDisconnect: "client_disconnect",
	EventIRCConnected:     "irc_connected",
	EventUserRaw:          "user_raw",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

// ParseEventType maps a wire name such as "chan_msg" to its EventType.
func ParseEventType(name string) (EventType, error) {
	for t, n := range eventNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", name)
}

// Module names accepted by EventModCommand.
const (
	ModuleBacklog    = "backlog"
	ModuleClientAway = "clientaway"
)

// Event is one thing that happened on the bouncer.
type Event struct {
	Type EventType

	Nick    string // sender of channel and private events
	Target  string // channel or peer
	Text    string // message body, command line or raw line
	Module  string // EventModCommand only; empty means ModuleBacklog
	Network string
	Client  away.Client

	// Host receives the output of the event.
	Host Host

	ID  string // request id, assigned on Enqueue/Handle when empty
	Seq int64  // processing order, assigned by the engine
}

// validate checks that ev carries the fields its type needs.
func (ev Event) validate() error {
	if ev.Host == nil {
		return fmt.Errorf("%s event has no host", ev.Type)
	}

	switch ev.Type {
	case EventChanMsg, EventChanAction:
		if ev.Nick == "" || ev.Target == "" {
			return fmt.Errorf("%s event needs nick and target", ev.Type)
		}
	case EventPrivMsg, EventPrivAction:
		if ev.Nick == "" {
			return fmt.Errorf("%s event needs nick", ev.Type)
		}
	case EventUserMsg, EventUserAction:
		if ev.Target == "" {
			return fmt.Errorf("%s event needs target", ev.Type)
		}
	case EventClientLogin, EventClientDisconnect, EventUserRaw:
		if ev.Client.ID == "" {
			return fmt.Errorf("%s event needs a client id", ev.Type)
		}
	case EventModCommand, EventIRCConnected:
	default:
		return fmt.Errorf("unknown event type: %d", ev.Type)
	}
	return nil
}
