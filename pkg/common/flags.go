package common

import "github.com/alecthomas/kingpin/v2"

// FlagHolder is satisfied by *kingpin.Application and *kingpin.CmdClause, so
// configuration can be bound globally or to a single command.
type FlagHolder interface {
	Flag(name, help string) *kingpin.FlagClause
}

var (
	_ FlagHolder = (*kingpin.Application)(nil)
	_ FlagHolder = (*kingpin.CmdClause)(nil)
)
