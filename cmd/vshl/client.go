package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	vshl "github.com/casualjim/vshl"
	"github.com/casualjim/vshl/internal/capability"
	"github.com/casualjim/vshl/internal/config"
	"github.com/casualjim/vshl/internal/voiceagent"
	"github.com/casualjim/vshl/pkg/natsx"
	"github.com/fatih/color"
	json "github.com/goccy/go-json"
	"github.com/k0kubun/pp/v3"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// client issues verbs against a running daemon.
type client struct {
	nc      *nats.Conn
	prefix  string
	timeout time.Duration
}

func connect(s *config.Settings) (*client, error) {
	nc, err := natsx.NewClient(s.NATS.URL, nats.Name(s.NATS.Name+"-cli"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &client{nc: nc, prefix: strings.TrimSuffix(s.Subjects.Verbs, "."), timeout: s.RPCTimeout}, nil
}

func (c *client) Close() {
	c.nc.Close()
}

// call sends a verb and returns the "response" member of a successful reply.
func (c *client) call(ctx context.Context, verb string, args []byte) (gjson.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.nc.RequestWithContext(ctx, c.prefix+"."+verb, args)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s: %w", verb, err)
	}
	reply := gjson.ParseBytes(msg.Data)
	if reply.Get("status").String() != "success" {
		return gjson.Result{}, fmt.Errorf("%s failed (%s): %s", verb, reply.Get("code").String(), reply.Get("info").String())
	}
	return reply.Get("response"), nil
}

func withClient(fn func(ctx context.Context, c *client, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		c, err := connect(settings)
		if err != nil {
			return err
		}
		defer c.Close()
		return fn(cmd.Context(), c, args)
	}
}

func agentsCmd() *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the registered voice agents",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, c *client, _ []string) error {
			resp, err := c.call(ctx, "enumerateVoiceAgents", nil)
			if err != nil {
				return err
			}
			var enum vshl.Enumeration
			if err := json.Unmarshal([]byte(resp.Raw), &enum); err != nil {
				return err
			}
			if dump {
				pp.Println(enum)
				return nil
			}
			printAgents(os.Stdout, enum)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "pretty print the raw enumeration")
	return cmd
}

func printAgents(w io.Writer, enum vshl.Enumeration) {
	if len(enum.Agents) == 0 {
		fmt.Fprintln(w, "no voice agents registered")
		return
	}
	for _, agent := range enum.Agents {
		marker := "  "
		if agent.ID == enum.Default {
			marker = color.GreenString("* ")
		}
		state := color.RedString("inactive")
		if agent.Active {
			state = color.GreenString("active")
		}
		fmt.Fprintf(w, "%s%s %s (%s, %s) %s\n", marker, color.CyanString(agent.ID), agent.Name, agent.Vendor, agent.API, state)
		fmt.Fprintf(w, "    wakeword: %s %s\n", color.YellowString(agent.ActiveWakeword), color.HiBlackString("[%s]", strings.Join(agent.Wakewords, ", ")))
	}
}

func loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load FILE",
		Short: "Register the voice agents of a JSON or YAML file and select their default",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(ctx context.Context, c *client, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			switch strings.ToLower(filepath.Ext(args[0])) {
			case ".yaml", ".yml":
				if data, err = config.YAMLToJSON(data); err != nil {
					return err
				}
			}
			if _, err := config.ParseAgents(ctx, data); err != nil {
				return err
			}
			if _, err := c.call(ctx, "loadVoiceAgentsConfig", data); err != nil {
				return err
			}
			fmt.Println("voice agents loaded")
			return nil
		}),
	}
}

func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Start a listening request on the default voice agent",
		Args:  cobra.NoArgs,
		RunE: withClient(func(ctx context.Context, c *client, _ []string) error {
			resp, err := c.call(ctx, "startListening", nil)
			if err != nil {
				return err
			}
			fmt.Println(resp.Get("request_id").String())
			return nil
		}),
	}
}

func defaultCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "default ID",
		Short: "Make a voice agent the default",
		Args:  cobra.ExactArgs(1),
		RunE: withClient(func(ctx context.Context, c *client, args []string) error {
			req, _ := sjson.SetBytes(nil, "id", args[0])
			_, err := c.call(ctx, "setDefaultVoiceAgent", req)
			return err
		}),
	}
}

func eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events VA_ID [EVENT...]",
		Short: "Print the state events of a voice agent until interrupted",
		Args:  cobra.MinimumNArgs(1),
		RunE: withClient(func(ctx context.Context, c *client, args []string) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			events := args[1:]
			if len(events) == 0 {
				events = voiceagent.EventNames()
			}
			w, err := c.watch(ctx, "subscribe", map[string]any{"va_id": args[0], "events": events})
			if err != nil {
				return err
			}
			defer w.Close()
			return w.print(ctx, os.Stdout)
		}),
	}
}

func publishCmd() *cobra.Command {
	var watch []string
	cmd := &cobra.Command{
		Use:   "publish CAPABILITY ACTION PAYLOAD",
		Short: "Publish a capability message",
		Args:  cobra.ExactArgs(3),
		RunE: withClient(func(ctx context.Context, c *client, args []string) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.publish(ctx, os.Stdout, args[0], args[1], args[2], watch)
		}),
	}
	cmd.Flags().StringSliceVar(&watch, "watch", nil, "actions to print, including the published message, until interrupted")
	return cmd
}

// publish sends a capability message. With watch actions the inbox is
// subscribed before publishing, which also creates the capability's channel.
func (c *client) publish(ctx context.Context, out io.Writer, name, action, payload string, watch []string) error {
	kind, err := capability.ParseKind(name)
	if err != nil {
		return err
	}

	var w *watcher
	if len(watch) > 0 {
		if w, err = c.watch(ctx, kind.String()+"Subscribe", map[string]any{"actions": watch}); err != nil {
			return err
		}
		defer w.Close()
	}

	req, _ := sjson.SetBytes(nil, "action", action)
	req, _ = sjson.SetBytes(req, "payload", payload)
	if _, err := c.call(ctx, kind.String()+"Publish", req); err != nil {
		return err
	}
	if w == nil {
		return nil
	}
	return w.print(ctx, out)
}

// watcher is an inbox the daemon delivers subscribed events to.
type watcher struct {
	client *client
	inbox  string
	sub    *nats.Subscription
	msgs   chan *nats.Msg
}

// watch subscribes a fresh inbox with verb.
func (c *client) watch(ctx context.Context, verb string, args map[string]any) (*watcher, error) {
	w := &watcher{
		client: c,
		inbox:  c.nc.NewRespInbox(),
		msgs:   make(chan *nats.Msg, 64),
	}
	var err error
	if w.sub, err = c.nc.ChanSubscribe(w.inbox, w.msgs); err != nil {
		return nil, err
	}

	args["inbox"] = w.inbox
	req, err := json.Marshal(args)
	if err == nil {
		_, err = c.call(ctx, verb, req)
	}
	if err != nil {
		_ = w.sub.Unsubscribe()
		return nil, err
	}
	return w, nil
}

// Close drops the daemon side subscriptions and the inbox.
func (w *watcher) Close() {
	unsub, _ := sjson.SetBytes(nil, "inbox", w.inbox)
	_, _ = w.client.call(context.Background(), "unsubscribe", unsub)
	_ = w.sub.Unsubscribe()
}

// print writes events as they arrive until ctx is done.
func (w *watcher) print(ctx context.Context, out io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case msg := <-w.msgs:
			event := gjson.ParseBytes(msg.Data)
			fmt.Fprintf(out, "%s %s %s\n",
				color.HiBlackString(event.Get("timestamp").String()),
				color.MagentaString(event.Get("event").String()),
				event.Get("data").Raw,
			)
		}
	}
}
