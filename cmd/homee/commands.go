package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zberg/go-homee/pkg/homee"
)

func init() {
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(nodesCmd)
	rootCmd.AddCommand(homeegramsCmd)
	rootCmd.AddCommand(homeegramCmd("play", "Play a homeegram", (*homee.Homee).PlayHomeegram))
	rootCmd.AddCommand(homeegramCmd("enable", "Enable a homeegram", (*homee.Homee).EnableHomeegram))
	rootCmd.AddCommand(homeegramCmd("disable", "Disable a homeegram", (*homee.Homee).DisableHomeegram))
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(watchCmd)
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Discover homee hubs on the local network",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("Discovering hubs...")
		results, err := homee.Discover(cmd.Context(), settings.port)
		if err != nil {
			return fmt.Errorf("discover: %w", err)
		}

		if len(results) == 0 {
			fmt.Println("No hubs found.")
			return nil
		}

		for _, res := range results {
			fmt.Printf("Found hub at: %s\n", res.Addr())
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Request an access token and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		token, err := client.GetToken(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List the nodes paired with the hub",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHomee(cmd.Context())
		if err != nil {
			return err
		}
		defer h.Close()

		nodes, err := h.GetNodes(cmd.Context())
		if err != nil {
			return err
		}
		for _, n := range nodes {
			avail := "unavailable"
			if n.Available == 1 {
				avail = "available"
			}
			fmt.Printf("Node %d: %s (%s)\n", n.ID, displayName(n.Name), avail)
		}
		return nil
	},
}

var homeegramsCmd = &cobra.Command{
	Use:   "homeegrams",
	Short: "List homeegrams",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := openHomee(cmd.Context())
		if err != nil {
			return err
		}
		defer h.Close()

		grams, err := h.GetHomeegrams(cmd.Context())
		if err != nil {
			return err
		}
		for _, g := range grams {
			active := "disabled"
			if g.Active == 1 {
				active = "enabled"
			}
			fmt.Printf("Homeegram %d: %s (%s, state=%d)\n", g.ID, displayName(g.Name), active, g.State)
		}
		return nil
	},
}

func homeegramCmd(use, short string, action func(*homee.Homee, context.Context, int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [homeegram-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid homeegram id '%s': must be a number", args[0])
			}

			h, err := openHomee(cmd.Context())
			if err != nil {
				return err
			}
			defer h.Close()

			if err := action(h, cmd.Context(), id); err != nil {
				return err
			}
			fmt.Println("Command sent successfully.")
			return nil
		},
	}
}

var sendCmd = &cobra.Command{
	Use:   "send [command]",
	Short: "Send a raw command, e.g. get:relationships",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := connectClient(cmd.Context())
		if err != nil {
			return err
		}
		defer client.Close()

		if err := client.SendCommand(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Println("Command sent successfully.")
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay connected and print the cached state on every update",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		updates := make(chan []string, 16)
		client, err := connectClient(ctx, homee.WithUpdateHandler(func(keys []string) {
			select {
			case updates <- keys:
			default:
			}
		}))
		if err != nil {
			return err
		}
		defer client.Close()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-client.Done():
				return fmt.Errorf("connection lost: %w", client.Err())
			case keys := <-updates:
				s := client.Snapshot()
				fmt.Printf("updated %v: nodes=%d attributes=%d groups=%d homeegrams=%d user=%t\n",
					keys, len(s.Nodes), len(s.Attributes), len(s.Groups), len(s.Homeegrams), s.User != nil)
			}
		}
	},
}

func newClient(opts ...homee.ClientOption) (*homee.Client, error) {
	s, err := settings.resolve()
	if err != nil {
		return nil, err
	}
	return homee.NewClient(s.host, s.user, s.password, append(s.options(), opts...)...)
}

// authorize obtains a token when the token flow is selected.
func authorize(ctx context.Context, client *homee.Client) error {
	if settings.auth != "token" {
		return nil
	}
	_, err := client.GetToken(ctx)
	return err
}

func connectClient(ctx context.Context, opts ...homee.ClientOption) (*homee.Client, error) {
	client, err := newClient(opts...)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, client); err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

func openHomee(ctx context.Context) (*homee.Homee, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, client); err != nil {
		return nil, err
	}
	conn, err := client.Dial(ctx)
	if err != nil {
		return nil, err
	}
	s, _ := settings.resolve()
	h, err := homee.NewHomee(conn, s.options()...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return h, nil
}

// displayName decodes the URL encoded names the hub stores.
func displayName(name string) string {
	if decoded, err := url.QueryUnescape(name); err == nil {
		return decoded
	}
	return name
}
