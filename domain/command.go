package domain

import "strings"

// Command is a parsed instruction typed by a UI client.
// The set of variants is closed: CreateCommand, JoinCommand, InfoCommand, UnknownCommand.
type Command interface {
	Verb() string
	isCommand()
}

type CreateCommand struct{}

// JoinCommand carries the topic key, empty when the client omitted it.
type JoinCommand struct {
	Key string
}

type InfoCommand struct{}

type UnknownCommand struct {
	Name string
	Raw  string
}

func (CreateCommand) Verb() string    { return "create" }
func (JoinCommand) Verb() string      { return "join" }
func (InfoCommand) Verb() string      { return "info" }
func (c UnknownCommand) Verb() string { return c.Name }

func (CreateCommand) isCommand()  {}
func (JoinCommand) isCommand()    {}
func (InfoCommand) isCommand()    {}
func (UnknownCommand) isCommand() {}

// ParseCommand reads the first whitespace-delimited token, case-insensitive,
// the remaining tokens being its arguments.
func ParseCommand(line string) Command {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return UnknownCommand{Raw: line}
	}
	name := strings.ToLower(parts[0])
	args := parts[1:]

	switch name {
	case "create":
		return CreateCommand{}
	case "join":
		if len(args) == 0 {
			return JoinCommand{}
		}
		return JoinCommand{Key: args[0]}
	case "info":
		return InfoCommand{}
	default:
		return UnknownCommand{Name: name, Raw: line}
	}
}
