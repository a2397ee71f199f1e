package command

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCommand is returned by Split for a blank line.
var ErrNoCommand = errors.New("no command")

// Args is a module command line split into its parts:
//
//	name arg (parenthesised arg) ... -- key value key=value ...
type Args struct {
	Name       string
	Positional []string
	Keywords   []Keyword
}

// Keyword is one name/value pair after the "--" marker.
type Keyword struct {
	Name  string
	Value string
}

// SyntaxError reports a command line that cannot be split.
type SyntaxError struct {
	Line   string
	Offset int
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Reason, e.Offset)
}

// Split breaks a command line into name, positional arguments and keywords.
//
// An argument is either a run of non-space characters not starting with
// "--", or a "( ... )" group in which a backslash escapes the next
// character. The first "--" switches to keyword arguments; each keyword
// may repeat the marker and may separate name and value with "=".
func Split(line string) (Args, error) {
	s := &splitter{src: line}
	var args Args

	s.skipSpace()
	if s.eof() {
		return args, ErrNoCommand
	}
	args.Name = s.letters()
	if args.Name == "" {
		return args, s.errorf("expected command name")
	}

	for {
		s.skipSpace()
		if s.eof() {
			return args, nil
		}
		if s.marker() {
			break
		}
		v, err := s.argument()
		if err != nil {
			return args, err
		}
		args.Positional = append(args.Positional, v)
	}

	for {
		s.skipSpace()
		if s.eof() {
			return args, nil
		}
		if s.marker() {
			s.pos += 2
			continue
		}

		name := s.letters()
		if name == "" {
			return args, s.errorf("expected keyword name")
		}
		s.skipSpace()
		if s.peek() == '=' {
			s.pos++
			s.skipSpace()
		}
		if s.eof() || s.marker() {
			return args, s.errorf(fmt.Sprintf("expected value for %s", name))
		}
		v, err := s.argument()
		if err != nil {
			return args, err
		}
		args.Keywords = append(args.Keywords, Keyword{Name: name, Value: v})
	}
}

type splitter struct {
	src string
	pos int
}

func (s *splitter) eof() bool {
	return s.pos >= len(s.src)
}

func (s *splitter) peek() byte {
	if s.eof() {
		return 0
	}
	return s.src[s.pos]
}

func (s *splitter) marker() bool {
	return strings.HasPrefix(s.src[s.pos:], "--")
}

func (s *splitter) skipSpace() {
	for !s.eof() && isSpace(s.src[s.pos]) {
		s.pos++
	}
}

func (s *splitter) letters() string {
	start := s.pos
	for !s.eof() && isLetter(s.src[s.pos]) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func (s *splitter) argument() (string, error) {
	if s.peek() != '(' {
		start := s.pos
		for !s.eof() && !isSpace(s.src[s.pos]) {
			s.pos++
		}
		return s.src[start:s.pos], nil
	}

	open := s.pos
	s.pos++
	var b strings.Builder
	for !s.eof() {
		c := s.src[s.pos]
		switch {
		case c == '\\' && s.pos+1 < len(s.src):
			b.WriteByte(s.src[s.pos+1])
			s.pos += 2
		case c == ')':
			s.pos++
			return b.String(), nil
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
	return "", &SyntaxError{Line: s.src, Offset: open, Reason: "unterminated ("}
}

func (s *splitter) errorf(reason string) error {
	return &SyntaxError{Line: s.src, Offset: s.pos, Reason: reason}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func isLetter(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}
