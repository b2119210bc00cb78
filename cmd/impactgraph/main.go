package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"impactgraph/config"
	"impactgraph/internal/engine"
	"impactgraph/internal/graph"
	inputredis "impactgraph/internal/input/redis"
	"impactgraph/internal/logger"
	"impactgraph/internal/output/predictionclickhouse"
	"impactgraph/internal/output/predictionhttp"
	"impactgraph/internal/output/predictionjson"
	"impactgraph/internal/pipeline"
	"impactgraph/internal/riskstate"
	"impactgraph/internal/scenarios"
	"impactgraph/pkg/models"
)

func findConfigFile(configArg string) string {
	if configArg != "" {
		path := configArg
		if _, err := os.Stat(path); err == nil {
			return path
		}
		log.Printf("Warning: config file not found at %s, trying default locations", path)
	}

	if _, err := os.Stat("impactgraph.yml"); err == nil {
		return "impactgraph.yml"
	}

	exePath, err := os.Executable()
	if err == nil {
		exeDir := filepath.Dir(exePath)
		path := filepath.Join(exeDir, "impactgraph.yml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return "impactgraph.yml"
}

func applyDefaults(cfg *config.Config) {
	if cfg.ImpactGraph.Input.Redis.Addr == "" {
		cfg.ImpactGraph.Input.Redis.Addr = "127.0.0.1:6379"
	}
	if cfg.ImpactGraph.Input.Redis.Key == "" {
		cfg.ImpactGraph.Input.Redis.Key = "impact_requests"
	}
	if cfg.ImpactGraph.Input.Redis.BlockTimeout == 0 {
		cfg.ImpactGraph.Input.Redis.BlockTimeout = 5 * time.Second
	}

	if cfg.ImpactGraph.Pipeline.Workers <= 0 {
		cfg.ImpactGraph.Pipeline.Workers = 4
	}
	if cfg.ImpactGraph.Pipeline.BatchSize <= 0 {
		cfg.ImpactGraph.Pipeline.BatchSize = 100
	}
	if cfg.ImpactGraph.Pipeline.FlushInterval <= 0 {
		cfg.ImpactGraph.Pipeline.FlushInterval = 2 * time.Second
	}

	if cfg.ImpactGraph.Output.Mode == "" {
		cfg.ImpactGraph.Output.Mode = "file"
	}
	if cfg.ImpactGraph.Output.File.Path == "" {
		cfg.ImpactGraph.Output.File.Path = "output/predictions.jsonl"
	}
	if cfg.ImpactGraph.Output.ClickHouse.Database == "" {
		cfg.ImpactGraph.Output.ClickHouse.Database = "impactgraph"
	}
	if cfg.ImpactGraph.Output.ClickHouse.Table == "" {
		cfg.ImpactGraph.Output.ClickHouse.Table = "impact_predictions"
	}

	if cfg.ImpactGraph.Metrics.Addr == "" {
		cfg.ImpactGraph.Metrics.Addr = "127.0.0.1:9130"
	}

	if cfg.ImpactGraph.Logging.Level == "" {
		cfg.ImpactGraph.Logging.Level = "info"
	}
}

func loadCatalog(path string) *scenarios.Catalog {
	if strings.TrimSpace(path) == "" {
		return scenarios.Default()
	}
	catalog, err := scenarios.Load(path)
	if err != nil {
		logger.Errorf("Failed to load scenario catalog from %s: %v", path, err)
		log.Fatalf("Failed to load scenario catalog: %v", err)
	}
	logger.Infof("Scenario catalog loaded: %s (%d scenarios)", path, len(catalog.List()))
	return catalog
}

func runServe(args []string) {
	configArg := ""
	if len(args) > 0 {
		configArg = args[0]
	}

	configPath := findConfigFile(configArg)

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyDefaults(cfg)

	if err := logger.Init(cfg.ImpactGraph.Logging.Enabled, cfg.ImpactGraph.Logging.Level, cfg.ImpactGraph.Logging.File, cfg.ImpactGraph.Logging.Console); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	logger.Infof("ImpactGraph starting")
	logger.Infof("Config loaded from: %s", configPath)

	consumer, err := inputredis.NewConsumer(inputredis.Config{
		Addr:         cfg.ImpactGraph.Input.Redis.Addr,
		Password:     cfg.ImpactGraph.Input.Redis.Password,
		DB:           cfg.ImpactGraph.Input.Redis.DB,
		Key:          cfg.ImpactGraph.Input.Redis.Key,
		BlockTimeout: cfg.ImpactGraph.Input.Redis.BlockTimeout,
	})
	if err != nil {
		logger.Errorf("Failed to create Redis consumer: %v", err)
		log.Fatalf("Failed to create Redis consumer: %v", err)
	}

	catalog := loadCatalog(cfg.ImpactGraph.Scenarios.Path)
	eng := engine.New(catalog, engine.Options{
		MaxDepth:       cfg.ImpactGraph.Engine.MaxDepth,
		DecayFactor:    cfg.ImpactGraph.Engine.DecayFactor,
		MinProbability: cfg.ImpactGraph.Engine.MinProbability,
	})

	var writer pipeline.PredictionWriter
	switch cfg.ImpactGraph.Output.Mode {
	case "file":
		w, err := predictionjson.NewWriter(cfg.ImpactGraph.Output.File.Path)
		if err != nil {
			logger.Errorf("Failed to create prediction file writer: %v", err)
			log.Fatalf("Failed to create prediction file writer: %v", err)
		}
		writer = w
		logger.Infof("Output mode: file (%s)", cfg.ImpactGraph.Output.File.Path)
	case "http":
		w, err := predictionhttp.NewWriter(predictionhttp.Config{
			URL:     cfg.ImpactGraph.Output.HTTP.URL,
			Timeout: cfg.ImpactGraph.Output.HTTP.Timeout,
			Headers: cfg.ImpactGraph.Output.HTTP.Headers,
		})
		if err != nil {
			logger.Errorf("Failed to create prediction HTTP writer: %v", err)
			log.Fatalf("Failed to create prediction HTTP writer: %v", err)
		}
		writer = w
		logger.Infof("Output mode: http (%s)", cfg.ImpactGraph.Output.HTTP.URL)
	case "clickhouse":
		w, err := predictionclickhouse.NewWriter(predictionclickhouse.Config{
			URL:      cfg.ImpactGraph.Output.ClickHouse.URL,
			Database: cfg.ImpactGraph.Output.ClickHouse.Database,
			Table:    cfg.ImpactGraph.Output.ClickHouse.Table,
			Username: cfg.ImpactGraph.Output.ClickHouse.Username,
			Password: cfg.ImpactGraph.Output.ClickHouse.Password,
			Timeout:  cfg.ImpactGraph.Output.ClickHouse.Timeout,
			Headers:  cfg.ImpactGraph.Output.ClickHouse.Headers,
		})
		if err != nil {
			logger.Errorf("Failed to create ClickHouse writer: %v", err)
			log.Fatalf("Failed to create ClickHouse writer: %v", err)
		}
		writer = w
		logger.Infof("Output mode: clickhouse (%s/%s.%s)", cfg.ImpactGraph.Output.ClickHouse.URL, cfg.ImpactGraph.Output.ClickHouse.Database, cfg.ImpactGraph.Output.ClickHouse.Table)
	default:
		log.Fatalf("Unknown output mode: %s", cfg.ImpactGraph.Output.Mode)
	}

	var riskRecorder pipeline.RiskRecorder
	if cfg.ImpactGraph.RiskState.Enabled {
		store, err := riskstate.NewRedisStore(riskstate.RedisConfig{
			Addr:      cfg.ImpactGraph.RiskState.Addr,
			Password:  cfg.ImpactGraph.RiskState.Password,
			DB:        cfg.ImpactGraph.RiskState.DB,
			KeyPrefix: cfg.ImpactGraph.RiskState.KeyPrefix,
		})
		if err != nil {
			logger.Errorf("Failed to create risk-state store: %v", err)
			log.Fatalf("Failed to create risk-state store: %v", err)
		}
		riskRecorder = store
		logger.Infof("Risk-state persistence enabled (%s)", cfg.ImpactGraph.RiskState.Addr)
	}

	if cfg.ImpactGraph.Metrics.Enabled {
		addr := cfg.ImpactGraph.Metrics.Addr
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			logger.Infof("Metrics listener on %s", addr)
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Errorf("Metrics listener failed: %v", err)
			}
		}()
	}

	pipe := pipeline.NewRedisRequestPipeline(
		consumer,
		eng,
		writer,
		riskRecorder,
		cfg.ImpactGraph.Pipeline.Workers,
		cfg.ImpactGraph.Pipeline.BatchSize,
		cfg.ImpactGraph.Pipeline.FlushInterval,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := pipe.Run(ctx); err != nil && err != context.Canceled {
			logger.Errorf("Pipeline error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("Shutting down")
	cancel()
	time.Sleep(1 * time.Second)

	if err := pipe.Close(); err != nil {
		logger.Errorf("Error closing pipeline: %v", err)
	}

	logger.Infof("ImpactGraph stopped")
}

func runAnalyze(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	snapshotPath := fs.String("snapshot", "", "Infrastructure snapshot JSON input path")
	output := fs.String("output", "output/predictions.jsonl", "Prediction JSONL output path")
	reportOutput := fs.String("report", "", "Optional what-if report JSON output path")
	vulnOutput := fs.String("vulnerability-output", "", "Optional vulnerability ranking JSONL output path")
	catalogFile := fs.String("scenarios-file", "", "YAML file that defines the failure-scenario catalog")
	nodeID := fs.String("node", "", "Predict a single failure at this node id")
	failureType := fs.String("failure", "supply_cut", "Failure type for single-node prediction")
	severityArg := fs.String("severity", "", "Severity override (low|medium|high|critical)")
	maxDepth := fs.Int("max-depth", 0, "Maximum propagation hop depth")
	decay := fs.Float64("decay", 0, "Per-hop probability decay factor in (0,1)")
	minProb := fs.Float64("min-probability", 0, "Probability floor in percent")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if strings.TrimSpace(*snapshotPath) == "" {
		fmt.Fprintln(os.Stderr, "analyze requires -snapshot")
		return 2
	}

	data, err := os.ReadFile(*snapshotPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read snapshot: %v\n", err)
		return 1
	}
	snap, parseDiags, err := graph.ParseSnapshot(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse snapshot: %v\n", err)
		return 1
	}

	catalog := scenarios.Default()
	if strings.TrimSpace(*catalogFile) != "" {
		catalog, err = scenarios.Load(*catalogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load scenario catalog: %v\n", err)
			return 1
		}
	}

	eng := engine.New(catalog, engine.Options{
		MaxDepth:       *maxDepth,
		DecayFactor:    *decay,
		MinProbability: *minProb,
	})
	res := eng.Initialize(snap)
	for _, d := range append(parseDiags, res.Diagnostics...) {
		fmt.Fprintf(os.Stderr, "diagnostic: %s\n", d)
	}

	if *nodeID != "" {
		pred, err := eng.PredictImpact(*nodeID, *failureType, models.Severity(*severityArg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "prediction failed: %v\n", err)
			return 1
		}
		if err := writeJSONLines(*output, []*models.ImpactPrediction{pred}); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write prediction: %v\n", err)
			return 1
		}
		fmt.Printf("predicted node=%s failure=%s affected=%d risk=%s output=%s\n",
			*nodeID, *failureType, pred.TotalAffected, pred.OverallAssessment.RiskLevel, *output)
	} else {
		// Sensitivity sweep: fail every node under every applicable
		// catalog scenario and rank the damage.
		report, err := eng.RunWhatIf(sweepScenarios(eng, catalog))
		if err != nil {
			fmt.Fprintf(os.Stderr, "what-if sweep failed: %v\n", err)
			return 1
		}

		var preds []*models.ImpactPrediction
		for _, r := range report.Results {
			if r.Prediction != nil {
				preds = append(preds, r.Prediction)
			}
		}
		if err := writeJSONLines(*output, preds); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write predictions: %v\n", err)
			return 1
		}
		if strings.TrimSpace(*reportOutput) != "" {
			if err := writeJSON(*reportOutput, report); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write report: %v\n", err)
				return 1
			}
		}

		fmt.Printf("analyzed nodes=%d scenarios=%d successful=%d unique_affected=%d output=%s\n",
			res.NodeCount, report.CombinedRisk.TotalScenarios, report.CombinedRisk.SuccessfulAnalyses,
			report.CombinedRisk.TotalUniqueNodesAffected, *output)
		if hi := report.CombinedRisk.HighestImpact; hi != nil {
			fmt.Printf("highest impact: node=%s failure=%s affected=%d\n", hi.NodeID, hi.FailureType, hi.AffectedCount)
		}
	}

	if strings.TrimSpace(*vulnOutput) != "" {
		ranking, err := eng.RankVulnerability()
		if err != nil {
			fmt.Fprintf(os.Stderr, "vulnerability ranking failed: %v\n", err)
			return 1
		}
		if err := writeJSONLines(*vulnOutput, ranking.Nodes); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write vulnerability ranking: %v\n", err)
			return 1
		}
		fmt.Printf("ranked nodes=%d high=%d medium=%d low=%d output=%s\n",
			ranking.Summary.TotalNodes, ranking.Summary.HighRisk, ranking.Summary.MediumRisk,
			ranking.Summary.LowRisk, *vulnOutput)
	}

	return 0
}

// sweepScenarios builds one what-if scenario per (node, applicable catalog
// scenario) pair, in node order.
func runRisks(args []string) int {
	fs := flag.NewFlagSet("risks", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:6379", "Redis address of the risk-state store")
	password := fs.String("password", "", "Redis password")
	db := fs.Int("db", 0, "Redis database")
	prefix := fs.String("prefix", "", "Risk-state key prefix")
	limit := fs.Int64("limit", 20, "Maximum nodes to list")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	store, err := riskstate.NewRedisStore(riskstate.RedisConfig{
		Addr:      *addr,
		Password:  *password,
		DB:        *db,
		KeyPrefix: *prefix,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open risk-state store: %v\n", err)
		return 1
	}
	defer store.Close()

	risks, err := store.FetchTopRisks(*limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to fetch risks: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	for _, r := range risks {
		if err := enc.Encode(r); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode risk: %v\n", err)
			return 1
		}
	}
	return 0
}

func sweepScenarios(eng *engine.Engine, catalog *scenarios.Catalog) []models.WhatIfScenario {
	nodes, err := eng.GraphNodes()
	if err != nil {
		return nil
	}
	var out []models.WhatIfScenario
	for _, node := range nodes {
		for _, sc := range catalog.List() {
			if !sc.AppliesToType(node.Type) {
				continue
			}
			out = append(out, models.WhatIfScenario{
				NodeID:      node.ID,
				FailureType: sc.ID,
				Label:       fmt.Sprintf("%s: %s", sc.Label, node.Name),
			})
		}
	}
	return out
}

func writeJSONLines[T any](path string, rows []T) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, item := range rows {
		if err := enc.Encode(item); err != nil {
			return fmt.Errorf("encode row: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "analyze":
			os.Exit(runAnalyze(os.Args[2:]))
		case "risks":
			os.Exit(runRisks(os.Args[2:]))
		default:
			// Backward-compatible mode: first arg is config path.
			runServe(os.Args[1:])
			return
		}
	}

	runServe(nil)
}
