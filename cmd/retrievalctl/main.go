package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"retrieval-engine/internal/usecase"
	"retrieval-engine/internal/usecase/retrieval"
)

var (
	version = "dev"

	// Global flags
	serverURL string

	// Query command flags
	sessionID     string
	topK          int
	disableFilter bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "retrievalctl",
	Short:   "Inspect and exercise the retrieval pipeline",
	Version: version,
}

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Run one retrieval against a running server",
	Long: `Run one retrieval against a running server and print the ranked passages.

Examples:
  # Plain question
  retrievalctl query "How do I migrate from Box to SharePoint?"

  # Follow-up question with conversation context
  retrievalctl query --session abc123 "What about its permissions?"

  # Bypass the branch filter
  retrievalctl query --disable-filter "SharePoint pricing tiers"`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

var intentCmd = &cobra.Command{
	Use:   "intent [question]",
	Short: "Probe the local heuristic intent classifier",
	Args:  cobra.ExactArgs(1),
	RunE:  probeIntent,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the default pipeline configuration as JSON",
	RunE:  dumpConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9020", "retrieval server URL")

	queryCmd.Flags().StringVar(&sessionID, "session", "", "conversation session ID")
	queryCmd.Flags().IntVar(&topK, "k", 0, "result size override")
	queryCmd.Flags().BoolVar(&disableFilter, "disable-filter", false, "bypass the branch filter")

	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(intentCmd)
	rootCmd.AddCommand(configCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	payload := map[string]interface{}{
		"question": args[0],
	}
	if sessionID != "" {
		payload["session_id"] = sessionID
	}
	if topK > 0 {
		payload["k"] = topK
	}
	if disableFilter {
		payload["disable_filter"] = true
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Post(serverURL+"/v1/retrieve", "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func probeIntent(cmd *cobra.Command, args []string) error {
	intent, confidence := retrieval.HeuristicIntent(args[0])
	fmt.Printf("intent: %s (confidence %.2f)\n", intent, confidence)
	return nil
}

func dumpConfig(cmd *cobra.Command, args []string) error {
	cfg := usecase.DefaultPipelineConfig()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
