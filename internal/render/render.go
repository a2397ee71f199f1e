// Package render turns log rows into output lines.
//
// Backlog lines are IRC PRIVMSGs replayed to the client as if they came
// from the bouncer; search lines are plain module output.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/backlog/internal/store"
)

// Host part of the prefix on replayed lines.
const replayHost = "znc@znc.in"

const (
	serverTimeLayout = "2006-01-02T15:04:05.000Z"
	localTimeLayout  = "2006-01-02 15:04:05"
)

// Viewer describes the client a backlog is replayed to.
type Viewer struct {
	Nick        string // the user's current nick
	SelfMessage bool   // client understands its own messages echoed back
	ServerTime  bool   // client understands the server-time tag
	Loc         *time.Location
}

func (v Viewer) location() *time.Location {
	if v.Loc == nil {
		return time.Local
	}
	return v.Loc
}

// IsChannel reports whether target names a channel rather than a nick.
func IsChannel(target string) bool {
	return target != "" && strings.ContainsRune("#&!+", rune(target[0]))
}

// Backlog renders one row as a PRIVMSG line for target.
//
// target is echoed as requested, not as stored, so the client files the
// line under the buffer it asked about.
func Backlog(target string, row store.Row, v Viewer) string {
	who := row.Who.Nick()
	message := row.Message

	if row.Who.IsOwn() {
		if v.SelfMessage || IsChannel(target) {
			who = v.Nick
		} else {
			// A client without self-message would show our line as theirs;
			// attribute it to the peer and mark who really said it.
			message = fmt.Sprintf("<%s>: %s", v.Nick, message)
			who = target
		}
	}

	tag := ""
	if v.ServerTime {
		tag = "@time=" + row.Time.UTC().Format(serverTimeLayout) + " "
	} else {
		message = "[" + row.Time.In(v.location()).Format(localTimeLayout) + "] " + message
	}

	if row.Type != "" {
		message = "\x01" + row.Type + " " + message + "\x01"
	}

	return fmt.Sprintf("%s:%s!%s PRIVMSG %s :%s", tag, who, replayHost, target, message)
}

// Search renders one search hit as "<where> [<local time>] <<who>>: <message>".
func Search(row store.Row, self string) string {
	return SearchIn(row, self, time.Local)
}

// SearchIn is Search with an explicit time zone.
func SearchIn(row store.Row, self string, loc *time.Location) string {
	return fmt.Sprintf("%s [%s] <%s>: %s",
		row.Where,
		row.Time.In(loc).Format(localTimeLayout),
		row.Who.Resolve(self),
		row.Message,
	)
}
