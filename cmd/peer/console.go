package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dkeye/lobbyrelay/internal/domain"
)

const kindText uint16 = 1

var errUsage = errors.New("usage")

type command struct {
	name string
	vis  domain.Visibility
	max  int
	peer domain.PeerID
	id   domain.LobbyID
	text string
}

// parseCommand reads one console line. Lines not starting with a slash
// broadcast their text to the lobby.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{name: "say", text: line}, nil
	}
	name, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	cmd := command{name: name}
	switch name {
	case "create":
		cmd.vis, cmd.max = domain.Public, 8
		fields := strings.Fields(rest)
		if len(fields) > 0 {
			vis, err := domain.ParseVisibility(fields[0])
			if err != nil {
				return command{}, err
			}
			cmd.vis = vis
		}
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return command{}, fmt.Errorf("%w: /create [visibility] [max]", errUsage)
			}
			cmd.max = n
		}
	case "join":
		id, err := domain.ParseLobbyID(rest)
		if err != nil {
			return command{}, fmt.Errorf("%w: /join <lobby>", errUsage)
		}
		cmd.id = id
	case "invite", "msg":
		who, text, _ := strings.Cut(rest, " ")
		peer, err := domain.ParsePeerID(who)
		if err != nil {
			return command{}, fmt.Errorf("%w: /%s <peer>", errUsage, name)
		}
		cmd.peer, cmd.text = peer, strings.TrimSpace(text)
	case "chat":
		cmd.text = rest
	case "leave", "members", "list", "quit":
	default:
		return command{}, fmt.Errorf("unknown command /%s", name)
	}
	return cmd, nil
}

// restBase turns the websocket endpoint into the REST base url.
func restBase(wsURL string) string {
	base := strings.TrimSuffix(wsURL, "/api/ws")
	switch {
	case strings.HasPrefix(base, "wss://"):
		return "https://" + strings.TrimPrefix(base, "wss://")
	case strings.HasPrefix(base, "ws://"):
		return "http://" + strings.TrimPrefix(base, "ws://")
	}
	return base
}
