package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samvad-hq/hero-records/internal/domain"
	"github.com/spf13/pflag"
)

// Supported commands.
const (
	CmdList          = "list"
	CmdGet           = "get"
	CmdSearch        = "search"
	CmdCreate        = "create"
	CmdUpdate        = "update"
	CmdDelete        = "delete"
	CmdMessages      = "messages"
	CmdClearMessages = "clear-messages"
)

// Usage describes the command line.
const Usage = `usage: heroes <command> [flags] [args]

commands:
  list                                     list all heroes
  get <id>                                 fetch one hero
  search <term>                            search heroes by name
  create --name N [--extra k=v,...]        create a hero (id assigned by the backend)
  update --id I --name N [--extra k=v,...] replace a hero
  delete <id>                              delete a hero
  messages [--limit N]                     show recorded messages
  clear-messages                           drop recorded messages
`

// ErrUsage is returned for malformed command lines.
var ErrUsage = errors.New("invalid usage")

// Command is a parsed command line.
type Command struct {
	Name  string
	ID    int
	Term  string
	Hero  domain.Hero
	Limit int
}

// ParseCommand parses args (without the program name) into a Command.
func ParseCommand(args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, fmt.Errorf("%w: missing command", ErrUsage)
	}

	cmd := Command{Name: strings.ToLower(strings.TrimSpace(args[0]))}
	fs := pflag.NewFlagSet(cmd.Name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		id    = fs.Int("id", 0, "hero id")
		name  = fs.String("name", "", "hero name")
		extra = fs.StringToString("extra", nil, "additional hero fields as key=value")
		limit = fs.Int("limit", 20, "number of messages to show (0 for all)")
	)
	if err := fs.Parse(args[1:]); err != nil {
		return Command{}, fmt.Errorf("%w: %s: %v", ErrUsage, cmd.Name, err)
	}
	rest := fs.Args()

	switch cmd.Name {
	case CmdList, CmdClearMessages:
	case CmdMessages:
		cmd.Limit = *limit
	case CmdGet, CmdDelete:
		if len(rest) != 1 {
			return Command{}, fmt.Errorf("%w: %s requires exactly one id", ErrUsage, cmd.Name)
		}
		n, err := strconv.Atoi(rest[0])
		if err != nil {
			return Command{}, fmt.Errorf("%w: invalid id %q", ErrUsage, rest[0])
		}
		cmd.ID = n
	case CmdSearch:
		cmd.Term = strings.Join(rest, " ")
	case CmdCreate, CmdUpdate:
		if strings.TrimSpace(*name) == "" {
			return Command{}, fmt.Errorf("%w: %s requires --name", ErrUsage, cmd.Name)
		}
		if cmd.Name == CmdUpdate && *id == 0 {
			return Command{}, fmt.Errorf("%w: update requires --id", ErrUsage)
		}
		cmd.Hero = domain.Hero{ID: *id, Name: *name, Extra: extraFields(*extra)}
	default:
		return Command{}, fmt.Errorf("%w: unknown command %q", ErrUsage, cmd.Name)
	}
	return cmd, nil
}

// extraFields keeps values that are valid JSON as-is and quotes the rest.
func extraFields(kv map[string]string) map[string]json.RawMessage {
	if len(kv) == 0 {
		return nil
	}
	out := make(map[string]json.RawMessage, len(kv))
	for k, v := range kv {
		if json.Valid([]byte(v)) {
			out[k] = json.RawMessage(v)
			continue
		}
		quoted, _ := json.Marshal(v)
		out[k] = quoted
	}
	return out
}
