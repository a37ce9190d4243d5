package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ghalamif/AquaFlow"
	"github.com/ghalamif/AquaFlow/internal/ports"
)

const banner = `   _                    ___ _
  /_\  __ _ _  _ __ _  | __| |_____ __ __
 / _ \/ _' | || / _' | | _|| / _ \ V  V /
/_/ \_\__, |\_,_\__,_| |_| |_\___/\_/\_/
         |_|
`

func main() {
	fmt.Print(selectBanner())
	fmt.Println()
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	var err error

	switch cmd {
	case "run":
		err = runCommand(os.Args[2:])
	case "validate":
		err = validateCommand(os.Args[2:])
	case "stats":
		err = statsCommand(os.Args[2:])
	case "flow":
		err = flowCommand(os.Args[2:], os.Stdout)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("aquaflow %s: %v", cmd, err)
	}
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to runtime configuration file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	b, err := aquaflow.Conf(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return b.Run(ctx)
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfgPath := fs.String("config", "./data/config.yaml", "Path to configuration file to validate")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := aquaflow.LoadConfig(*cfgPath)
	if err != nil {
		return err
	}
	n, err := aquaflow.LoadNetwork(cfg.Network.SeedPath)
	if err != nil {
		return fmt.Errorf("network seed: %w", err)
	}
	if _, err := aquaflow.Evaluate(n); err != nil {
		return fmt.Errorf("network seed: %w", err)
	}
	fmt.Printf("config %s looks good: %d tanks, %d gates, %d pipelines\n",
		*cfgPath, len(n.Tanks), len(n.Gates), len(n.Pipelines))
	return nil
}

// flowCommand evaluates a network file offline and prints the results as JSON.
func flowCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("flow", flag.ContinueOnError)
	networkPath := fs.String("network", "./data/network.yaml", "Path to network file with records and initial samples")
	pipelineID := fs.String("pipeline", "", "Only print this pipeline")
	if err := fs.Parse(args); err != nil {
		return err
	}

	n, err := aquaflow.LoadNetwork(*networkPath)
	if err != nil {
		return err
	}
	results, err := aquaflow.Evaluate(n)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if *pipelineID == "" {
		return enc.Encode(results)
	}
	for _, r := range results {
		if r.PipelineID == *pipelineID {
			return enc.Encode(r)
		}
	}
	return fmt.Errorf("pipeline %q: %w", *pipelineID, aquaflow.ErrNotFound)
}

func selectBanner() string {
	if os.Getenv("NO_COLOR") != "" {
		return banner
	}
	return "\x1b[36m" + banner + "\x1b[0m"
}

func statsCommand(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	url := fs.String("url", "http://localhost:9100/metrics", "Prometheus metrics endpoint")
	interval := fs.Duration("interval", 2*time.Second, "Refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	fmt.Printf("Streaming metrics from %s (Ctrl+C to stop)\n", *url)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := printMetricsSnapshot(*url, os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "stats error: %v\n", err)
			}
		}
	}
}

var statsMetrics = []string{
	ports.MetricReadingsIngested,
	ports.MetricReadingsRejected,
	ports.MetricQueueLength,
	ports.MetricWALSize,
	ports.MetricPipelinesFlowing,
	ports.MetricPipelines,
}

func printMetricsSnapshot(url string, out io.Writer) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	targets, err := scanMetrics(resp.Body, statsMetrics)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "[%s] readings=%.0f rejected=%.0f queue=%.0f wal_bytes=%.0f flowing=%.0f/%.0f\n",
		time.Now().Format(time.RFC3339),
		targets[ports.MetricReadingsIngested],
		targets[ports.MetricReadingsRejected],
		targets[ports.MetricQueueLength],
		targets[ports.MetricWALSize],
		targets[ports.MetricPipelinesFlowing],
		targets[ports.MetricPipelines],
	)
	return nil
}

// scanMetrics picks the unlabelled samples of names out of a Prometheus text exposition.
func scanMetrics(r io.Reader, names []string) (map[string]float64, error) {
	targets := make(map[string]float64, len(names))
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		for _, key := range names {
			if strings.HasPrefix(line, key+" ") {
				var value float64
				if _, err := fmt.Sscanf(line, key+" %g", &value); err == nil {
					targets[key] = value
				}
			}
		}
	}
	return targets, scanner.Err()
}

func printUsage() {
	fmt.Printf(`AquaFlow CLI

Usage:
  aquaflow <command> [flags]

Commands:
  run        Start the runtime using the provided config
  validate   Load and validate a config file and its network seed without starting the runtime
  stats      Poll the Prometheus metrics endpoint and print live counters
  flow       Evaluate a network file offline and print pipeline flow as JSON

Examples:
  aquaflow run -config ./data/config.yaml
  aquaflow validate -config ./data/config.yaml
  aquaflow stats -url http://localhost:9100/metrics -interval 1s
  aquaflow flow -network ./data/network.yaml -pipeline main-line
`)
}
