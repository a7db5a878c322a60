package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// A very simple CLI tool for the administration of lightspeed-rooms servers.
// It talks to the HTTP API of a running instance.

var (
	serverUrl = pflag.String("server", "http://localhost:8000", "base URL of the lightspeed-rooms server")

	httpClient = &http.Client{Timeout: 10 * time.Second}
)

func main() {
	log.SetFlags(0)

	var cmdShow = &cobra.Command{
		Use:   "show",
		Short: "Show rooms",
		Args:  cobra.MinimumNArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
		},
	}
	var cmdShowRooms = &cobra.Command{
		Use:   "rooms",
		Short: "Show all active rooms",
		Args:  cobra.MinimumNArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			call(http.MethodGet, "/rooms")
		},
	}
	var cmdShowRoom = &cobra.Command{
		Use:   "room [room id]",
		Short: "Show one room",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			call(http.MethodGet, "/rooms/"+args[0])
		},
	}
	var cmdShowMessages = &cobra.Command{
		Use:   "messages [room id]",
		Short: "Show the recent message history of one room",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			call(http.MethodGet, "/rooms/"+args[0]+"/messages")
		},
	}
	var cmdRm = &cobra.Command{
		Use:   "rm",
		Short: "Remove rooms",
		Args:  cobra.MinimumNArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
		},
	}
	var cmdRmRoom = &cobra.Command{
		Use:   "room [room id]",
		Short: "Remove one room, its message history is discarded",
		Args:  cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			call(http.MethodDelete, "/rooms/"+args[0])
		},
	}
	var cmdSweep = &cobra.Command{
		Use:   "sweep",
		Short: "Sweep expired sessions",
		Args:  cobra.MinimumNArgs(0),
		Run: func(cmd *cobra.Command, args []string) {
			call(http.MethodPost, "/sessions/sweep")
		},
	}

	var rootCmd = &cobra.Command{Use: "lightspeed-rooms-admin"}
	rootCmd.PersistentFlags().AddFlagSet(pflag.CommandLine)
	cmdShow.AddCommand(cmdShowRooms, cmdShowRoom, cmdShowMessages)
	cmdRm.AddCommand(cmdRmRoom)
	rootCmd.AddCommand(cmdShow, cmdRm, cmdSweep)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func call(method, path string) {
	req, err := http.NewRequest(method, *serverUrl+path, nil)
	if err != nil {
		log.Fatalf("error: could not build request: %s", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		log.Fatalf("error: request failed: %s", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("error: could not read response: %s", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		fmt.Println(string(body))
		return
	}
	pretty, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(pretty))
	if resp.StatusCode >= http.StatusBadRequest {
		os.Exit(1)
	}
}
