// Command quickft is the QuickFT client CLI: send, receive, and delete
// subcommands over a cobra command surface, each a thin wrapper around the
// client package's blocking calls.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/m-lab/go/rtx"
	"github.com/spf13/cobra"

	"github.com/quickft/quickft/client"
	"github.com/quickft/quickft/config"
	"github.com/quickft/quickft/result"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	addr   string
	port   uint16
	tframe time.Duration
	tack   time.Duration
)

func main() {
	root := &cobra.Command{
		Use:   "quickft",
		Short: "QuickFT file-transfer client",
	}
	root.PersistentFlags().StringVar(&addr, "addr", "127.0.0.1", "server address")
	root.PersistentFlags().Uint16Var(&port, "port", config.DefaultPort, "server port")
	root.PersistentFlags().DurationVar(&tframe, "tframe", config.DefaultTframe, "per-frame I/O deadline")
	root.PersistentFlags().DurationVar(&tack, "tack", config.DefaultTack, "per-ACK deadline")

	root.AddCommand(sendCmd(), receiveCmd(), deleteCmd())

	rtx.Must(root.Execute(), "quickft failed")
}

func options() client.Options {
	return client.Options{Addr: addr, Port: port, Tframe: tframe, Tack: tack}
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <local-path> <remote-path>",
		Short: "Upload a local file to the server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := client.Send(context.Background(), args[0], args[1], options())
			return exitOn(code)
		},
	}
}

func receiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receive <remote-path> <local-path>",
		Short: "Download a remote file from the server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := client.Receive(context.Background(), args[0], args[1], options())
			return exitOn(code)
		},
	}
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <remote-path>",
		Short: "Delete a remote file on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code := client.Delete(context.Background(), args[0], options())
			return exitOn(code)
		},
	}
}

func exitOn(code result.Code) error {
	if !code.IsSuccess() {
		fmt.Fprintln(os.Stderr, code)
		os.Exit(1)
	}
	return nil
}
