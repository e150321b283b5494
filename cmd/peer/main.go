package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/lobbyrelay/internal/adapters/lobbyclient"
	"github.com/dkeye/lobbyrelay/internal/adapters/rtc"
	"github.com/dkeye/lobbyrelay/internal/app"
	"github.com/dkeye/lobbyrelay/internal/app/orch"
	"github.com/dkeye/lobbyrelay/internal/codec"
	"github.com/dkeye/lobbyrelay/internal/config"
	"github.com/dkeye/lobbyrelay/internal/domain"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	flags := pflag.NewFlagSet("peer", pflag.ExitOnError)
	flags.String("server", "", "lobbyd websocket url")
	flags.String("token", "", "peer identity; empty lets the server pick one")
	flags.Duration("tick-rate", 0, "interval between orchestrator ticks")
	flags.Duration("request-timeout", 0, "give up on create/join after this long")
	flags.String("accept-policy", "", "members_only or accept_all")
	flags.String("log-level", "", "log level")
	create := flags.String("create", "", "create a lobby with this visibility on start")
	maxMembers := flags.Int("max", 8, "member limit for --create")
	join := flags.String("join", "", "join this lobby on start")
	list := flags.Bool("list", false, "print the public lobbies and exit")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	pc := cfg.Peer
	if pc.TickRate <= 0 {
		pc.TickRate = 50 * time.Millisecond
	}
	if lvl, err := zerolog.ParseLevel(pc.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	if *list {
		if err := printLobbies(ctx, os.Stdout, restBase(pc.ServerURL)); err != nil {
			log.Fatal().Err(err).Msg("list lobbies")
		}
		return
	}

	policy, err := app.PolicyByName(pc.AcceptPolicy)
	if err != nil {
		log.Fatal().Err(err).Msg("bad accept policy")
	}

	client, err := lobbyclient.Dial(ctx, pc.ServerURL, lobbyclient.Options{Token: pc.Token})
	if err != nil {
		log.Fatal().Err(err).Msg("dial lobbyd")
	}
	tr := rtc.New(client.LocalPeer(), client, rtc.Options{Config: rtc.ConfigWithICEServers(pc.ICEServers)})
	o := orch.New(client, tr, orch.Options{
		RequestTimeout: pc.RequestTimeout,
		Policy:         policy,
		ChatBufferSize: pc.ChatBufferSize,
	})
	fmt.Printf("connected as %s\n", client.LocalPeer())

	con := &console{o: o, out: os.Stdout, base: restBase(pc.ServerURL), quit: cancel}
	switch {
	case *create != "":
		con.exec(ctx, "/create "+*create+" "+fmt.Sprint(*maxMembers))
	case *join != "":
		con.exec(ctx, "/join "+*join)
	}

	lines := make(chan string)
	go readLines(os.Stdin, lines)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return client.Run(gctx) })
	g.Go(func() error {
		defer tr.Close()
		defer o.Close()
		ticker := time.NewTicker(pc.TickRate)
		defer ticker.Stop()
		con.run(gctx, lines, ticker.C)
		return nil
	})
	if err := g.Wait(); err != nil && !errors.Is(err, lobbyclient.ErrClosed) {
		log.Error().Err(err).Msg("peer stopped")
		os.Exit(1)
	}
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		out <- sc.Text()
	}
}

func printLobbies(ctx context.Context, w io.Writer, base string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	lobbies, err := lobbyclient.FetchLobbies(ctx, &http.Client{}, base)
	if err != nil {
		return err
	}
	for _, l := range lobbies {
		fmt.Fprintf(w, "%s\t%d/%d\towner %s\n", l.ID, l.MemberCount, l.MaxMembers, l.Owner)
	}
	return nil
}

// console runs commands and prints the orchestrator's output. It is only
// used from the tick goroutine.
type console struct {
	o    *orch.Orchestrator
	out  io.Writer
	base string
	quit func()
	seq  uint32
}

// run serves console lines and ticks until ctx ends. End of input calls
// quit once.
func (c *console) run(ctx context.Context, lines <-chan string, ticks <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				c.quit()
				lines = nil
				continue
			}
			c.exec(ctx, line)
		case <-ticks:
			c.tick()
		}
	}
}

func (c *console) payload(text string) codec.Payload {
	c.seq++
	return codec.Payload{Kind: kindText, Seq: c.seq, Body: []byte(text)}
}

func (c *console) exec(ctx context.Context, line string) {
	cmd, err := parseCommand(line)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	switch cmd.name {
	case "say":
		if cmd.text == "" {
			return
		}
		var res app.PublishResult
		res, err = c.o.Broadcast(c.payload(cmd.text), domain.Reliable)
		for _, p := range res.Dropped {
			fmt.Fprintf(c.out, "not delivered to %s\n", p)
		}
	case "msg":
		err = c.o.SendTo(cmd.peer, c.payload(cmd.text), domain.Reliable)
	case "chat":
		err = c.o.SendChat(c.payload(cmd.text))
	case "create":
		err = c.o.CreateLobby(cmd.vis, cmd.max)
	case "join":
		err = c.o.JoinLobby(cmd.id)
	case "invite":
		err = c.o.Invite(cmd.peer)
	case "leave":
		err = c.o.Leave()
	case "members":
		st := c.o.State()
		fmt.Fprintf(c.out, "%s %s %v\n", st.Phase, st.Lobby, st.Members)
	case "list":
		err = printLobbies(ctx, c.out, c.base)
	case "quit":
		c.quit()
	}
	if err != nil {
		fmt.Fprintln(c.out, "error:", err)
	}
}

func (c *console) tick() {
	for _, n := range c.o.Tick() {
		switch n.Kind {
		case orch.NoticeChat:
			fmt.Fprintf(c.out, "[chat] %s: %s\n", n.Peer, n.Chat.Payload.Body)
		case orch.NoticeLobbyEntered:
			fmt.Fprintf(c.out, "entered lobby %s\n", n.Lobby)
		default:
			if n.Err != nil {
				fmt.Fprintf(c.out, "%s %s: %v\n", n.Kind, n.Peer, n.Err)
			} else {
				fmt.Fprintf(c.out, "%s %s %s\n", n.Kind, n.Lobby, n.Peer)
			}
		}
	}
	for from, p := range c.o.ReceivePending() {
		fmt.Fprintf(c.out, "%s: %s\n", from, p.Body)
	}
}
