// Package shell implements the interactive pattern host console.
//
// The shell reads commands with github.com/chzyer/readline (history, tab
// completion of command names and pattern ids) and drives a running host:
//
//	enable <id>         declare a pattern
//	disable <id>        withdraw a pattern
//	param <key> <value> change a parameter for every active pattern
//	style <url>         switch the map style
//	reload              reload the current style
//	status              show patterns, layers and counters
//	patterns            list the registered patterns
//	events [n]          show the most recent lifecycle events
//	help                list commands
//	quit                leave the shell
//
// Commands are dispatched through Execute, which is independent of the
// terminal so it can be driven from tests.
package shell
