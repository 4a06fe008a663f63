// Command miniredis-cli is a compatibility-testing client for the
// server's wire protocol (§6's "Client CLI surface"): ping, get, set,
// publish, subscribe.
package main

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/coregx/miniredis/client"
)

func main() {
	var hostname string
	var port uint16

	addr := func() string { return net.JoinHostPort(hostname, strconv.FormatUint(uint64(port), 10)) }

	root := &cobra.Command{Use: "miniredis-cli"}
	root.PersistentFlags().StringVar(&hostname, "hostname", "127.0.0.1", "server hostname")
	root.PersistentFlags().Uint16Var(&port, "port", 6379, "server port")

	root.AddCommand(
		pingCmd(&addr),
		getCmd(&addr),
		setCmd(&addr),
		publishCmd(&addr),
		subscribeCmd(&addr),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func pingCmd(addr *func() string) *cobra.Command {
	return &cobra.Command{
		Use:  "ping [msg]",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Dial((*addr)())
			if err != nil {
				return err
			}
			defer c.Close()

			msg := ""
			if len(args) == 1 {
				msg = args[0]
			}
			reply, err := c.Ping(msg)
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}
}

func getCmd(addr *func() string) *cobra.Command {
	return &cobra.Command{
		Use:  "get <key>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Dial((*addr)())
			if err != nil {
				return err
			}
			defer c.Close()

			v, ok, err := c.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("(nil)")
				return nil
			}
			fmt.Println(string(v))
			return nil
		},
	}
}

func setCmd(addr *func() string) *cobra.Command {
	return &cobra.Command{
		Use:  "set <key> <value> [ms]",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Dial((*addr)())
			if err != nil {
				return err
			}
			defer c.Close()

			var ttl time.Duration
			if len(args) == 3 {
				ms, err := strconv.ParseUint(args[2], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid ms argument %q: %w", args[2], err)
				}
				ttl = time.Duration(ms) * time.Millisecond
			}
			if err := c.Set(args[0], []byte(args[1]), ttl); err != nil {
				return err
			}
			fmt.Println("OK")
			return nil
		},
	}
}

func publishCmd(addr *func() string) *cobra.Command {
	return &cobra.Command{
		Use:  "publish <channel> <message>",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Dial((*addr)())
			if err != nil {
				return err
			}
			defer c.Close()

			n, err := c.Publish(args[0], []byte(args[1]))
			if err != nil {
				return err
			}
			fmt.Println(n)
			return nil
		},
	}
}

func subscribeCmd(addr *func() string) *cobra.Command {
	return &cobra.Command{
		Use:  "subscribe <channels...>",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.Dial((*addr)())
			if err != nil {
				return err
			}
			defer c.Close()

			if err := c.Subscribe(args...); err != nil {
				return err
			}
			for {
				frame, err := c.Next()
				if err != nil {
					return err
				}
				if frame == nil {
					return nil
				}
				fmt.Println(frame.String())
			}
		},
	}
}
