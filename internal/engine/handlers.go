package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/backlog/internal/command"
	"github.com/roach88/backlog/internal/querylang"
	"github.com/roach88/backlog/internal/render"
	"github.com/roach88/backlog/internal/search"
	"github.com/roach88/backlog/internal/store"
)

// actionType tags CTCP ACTION entries.
const actionType = "ACTION"

// processEvent routes an event to the appropriate handler.
// Called only from Run() goroutine or Handle().
func (e *Engine) processEvent(ctx context.Context, ev Event) error {
	if err := ev.validate(); err != nil {
		return newRuntimeError(ErrCodeInvalidEvent, ev, err, "rejected event")
	}

	slog.Debug("processing event",
		"event_id", ev.ID,
		"seq", ev.Seq,
		"type", ev.Type.String(),
	)

	switch ev.Type {
	case EventChanMsg:
		return e.record(ctx, ev, store.Other(ev.Nick), ev.Target, "")
	case EventChanAction:
		return e.record(ctx, ev, store.Other(ev.Nick), ev.Target, actionType)
	case EventPrivMsg:
		return e.record(ctx, ev, store.Other(ev.Nick), ev.Nick, "")
	case EventPrivAction:
		return e.record(ctx, ev, store.Other(ev.Nick), ev.Nick, actionType)

	case EventUserMsg:
		if n, ok := command.ParseInline(ev.Text); ok {
			return e.backlog(ctx, ev, command.Backlog{Target: ev.Target, Num: n})
		}
		return e.record(ctx, ev, store.Own(), ev.Target, "")
	case EventUserAction:
		return e.record(ctx, ev, store.Own(), ev.Target, actionType)

	case EventModCommand:
		return e.modCommand(ctx, ev)

	case EventClientLogin:
		e.away.ClientLogin(ctx, ev.Host, ev.Client)
	case EventClientDisconnect:
		e.away.ClientDisconnect(ctx, ev.Host, ev.Client)
	case EventIRCConnected:
		e.away.IRCConnected(ctx, ev.Host, ev.Network)
	case EventUserRaw:
		e.away.UserRaw(ctx, ev.Host, ev.Client, ev.Text)
	}
	return nil
}

// record appends one message to the log. On failure the message is dropped
// and the user is told.
func (e *Engine) record(ctx context.Context, ev Event, who store.Author, where, typ string) error {
	err := e.store.Append(ctx, store.Entry{
		Who:     who,
		Where:   where,
		Message: ev.Text,
		Type:    typ,
	})
	if err != nil {
		ev.Host.PutModule("Could not log message to " + where + ": " + err.Error())
		return newRuntimeError(ErrCodeInsertFailed, ev, err, "message to %s dropped", where)
	}
	return nil
}

func (e *Engine) modCommand(ctx context.Context, ev Event) error {
	switch strings.ToLower(ev.Module) {
	case "", ModuleBacklog:
	case ModuleClientAway:
		e.away.Command(ctx, ev.Host, ev.Network, ev.Text)
		return nil
	default:
		ev.Host.PutModule("No such module " + ev.Module)
		return newRuntimeError(ErrCodeUnknownModule, ev, nil, "module %q", ev.Module)
	}

	cmd, err := command.Parse(ev.Text)
	if err != nil {
		ev.Host.PutModule(command.Diagnostic(err))
		return nil
	}

	switch cmd := cmd.(type) {
	case command.Help:
		for _, line := range command.Usage() {
			ev.Host.PutModule(line)
		}
		return nil
	case command.Backlog:
		return e.backlog(ctx, ev, cmd)
	case command.Search:
		return e.search(ctx, ev, cmd)
	}
	return nil
}

// backlog replays the last lines of a target as protocol lines.
func (e *Engine) backlog(ctx context.Context, ev Event, cmd command.Backlog) error {
	rows, err := e.store.Backlog(ctx, cmd.Target, cmd.Num)
	if err != nil {
		ev.Host.PutModule("Could not read backlog for " + cmd.Target + ": " + err.Error())
		return newRuntimeError(ErrCodeReadFailed, ev, err, "backlog for %s", cmd.Target)
	}

	if cmd.Debug {
		ev.Host.PutModule(fmt.Sprintf("Debug: %d of %d lines for %s", len(rows), cmd.Num, cmd.Target))
	}

	viewer := render.Viewer{
		Nick:        ev.Host.Nick(),
		SelfMessage: ev.Host.HasSelfMessage(),
		ServerTime:  ev.Host.HasServerTime(),
		Loc:         e.loc,
	}
	for _, row := range rows {
		ev.Host.PutUser(render.Backlog(cmd.Target, row, viewer))
	}
	return nil
}

// search runs a search command and writes the hits to the module channel.
func (e *Engine) search(ctx context.Context, ev Event, cmd command.Search) error {
	if search.IsHelp(cmd.Query) {
		for _, line := range strings.Split(strings.TrimRight(querylang.Describe(), "\n"), "\n") {
			ev.Host.PutModule(line)
		}
		return nil
	}

	self := ev.Host.Nick()
	res, err := e.searcher.Search(ctx, search.Request{
		Query: cmd.Query,
		Self:  self,
		Limit: cmd.Limit,
	})
	if err != nil {
		var exec *search.ExecError
		if errors.As(err, &exec) {
			ev.Host.PutModule("Invalid query " + exec.SQL)
			ev.Host.PutModule(FormatParams(exec.Params))
			ev.Host.PutModule(exec.Err.Error())
			return newRuntimeError(ErrCodeReadFailed, ev, err, "search %q", cmd.Query)
		}
		ev.Host.PutModule("Invalid query: " + err.Error())
		return nil
	}

	if cmd.Debug {
		ev.Host.PutModule("Debug: " + res.SQL)
		ev.Host.PutModule(FormatParams(res.Args))
	}

	if len(res.Rows) == 0 {
		ev.Host.PutModule("No results")
		return nil
	}
	for _, row := range res.Rows {
		ev.Host.PutModule(render.SearchIn(row, self, e.loc))
	}
	return nil
}

// FormatParams renders a parameter vector for debug output.
func FormatParams(params []any) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%#v", p)
	}
	return "Params: (" + strings.Join(parts, ", ") + ")"
}
