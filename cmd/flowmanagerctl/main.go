package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"flowmanager/pkg/flow"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var (
	serverAddr string
	dpidFlag   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "flowmanagerctl",
		Short: "Flow manager command-line interface",
		Long: `flowmanagerctl is the CLI tool for installing, listing, and removing
flows through a running flow manager server's admin API.`,
	}

	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:8181", "flow manager server address")
	rootCmd.PersistentFlags().StringVar(&dpidFlag, "dpid", "", "target switch datapath id (all switches if omitted)")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(flowsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("flowmanagerctl %s\n", Version)
			fmt.Printf("  Build Time: %s\n", BuildTime)
			fmt.Printf("  Git Commit: %s\n", GitCommit)
		},
	}
}

func flowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flows",
		Short: "Manage switch flows",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List flows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listFlows()
		},
	}
	cmd.AddCommand(listCmd)

	addCmd := &cobra.Command{
		Use:   "add <file.json>",
		Short: "Add flows from a JSON flows document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitFlows("POST", "/v2/flows", args[0])
		},
	}
	cmd.AddCommand(addCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <file.json>",
		Short: "Delete flows matching a JSON flows document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return submitFlows("DELETE", "/v2/flows", args[0])
		},
	}
	cmd.AddCommand(deleteCmd)

	return cmd
}

func flowsPath(base string) string {
	if dpidFlag == "" {
		return base
	}
	return base + "/" + dpidFlag
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func listFlows() error {
	resp, err := httpClient().Get(serverAddr + flowsPath("/v2/flows"))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return printEnvelopeError(resp)
	}

	var result map[flow.DPID][]flow.Description
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DPID\tTABLE\tPRIORITY\tCOOKIE\tACTIONS")
	for dpid, flows := range result {
		for _, f := range flows {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d actions\n",
				dpid, f.TableIDValue(), valueOrZero(f.Priority), f.CookieValue(), len(f.Actions))
		}
	}
	return w.Flush()
}

func submitFlows(method, path, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	req, err := http.NewRequest(method, serverAddr+flowsPath(path), bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return printEnvelopeError(resp)
	}

	body, _ := io.ReadAll(resp.Body)
	fmt.Println(string(body))
	return nil
}

func printEnvelopeError(resp *http.Response) error {
	var env struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return fmt.Errorf("server returned %s: %s", resp.Status, env.Response)
}

func valueOrZero(p *uint16) uint16 {
	if p == nil {
		return 0
	}
	return *p
}
