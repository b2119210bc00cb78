package predictionclickhouse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"impactgraph/pkg/models"
)

// Config configures the ClickHouse HTTP writer.
type Config struct {
	URL      string
	Database string
	Table    string
	Username string
	Password string
	Timeout  time.Duration
	Headers  map[string]string
}

// Writer sends flattened affected-node rows to ClickHouse via HTTP
// JSONEachRow. One prediction becomes one row per affected node, which is the
// shape dashboards aggregate over.
type Writer struct {
	endpoint string
	headers  map[string]string
	client   *http.Client
}

// row is the flattened JSONEachRow record.
type row struct {
	PredictionID      string  `json:"prediction_id"`
	GeneratedAt       string  `json:"generated_at"`
	SourceNodeID      string  `json:"source_node_id"`
	FailureType       string  `json:"failure_type"`
	SourceSeverity    string  `json:"source_severity"`
	NodeID            string  `json:"node_id"`
	NodeType          string  `json:"node_type"`
	Severity          string  `json:"severity"`
	Probability       float64 `json:"probability"`
	TimeToImpactHours float64 `json:"time_to_impact_hours"`
	Depth             int     `json:"depth"`
}

// NewWriter creates a ClickHouse HTTP writer.
func NewWriter(cfg Config) (*Writer, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("clickhouse URL is empty")
	}
	if cfg.Database == "" {
		cfg.Database = "default"
	}
	if cfg.Table == "" {
		cfg.Table = "impact_predictions"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	q := fmt.Sprintf("INSERT INTO %s.%s FORMAT JSONEachRow", quoteIdent(cfg.Database), quoteIdent(cfg.Table))
	base := strings.TrimRight(cfg.URL, "/")
	endpoint := base + "/?query=" + url.QueryEscape(q)

	headers := map[string]string{}
	for k, v := range cfg.Headers {
		headers[k] = v
	}
	if cfg.Username != "" {
		headers["X-ClickHouse-User"] = cfg.Username
	}
	if cfg.Password != "" {
		headers["X-ClickHouse-Key"] = cfg.Password
	}

	return &Writer{
		endpoint: endpoint,
		headers:  headers,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// WritePredictions sends a batch of predictions as flattened rows.
func (w *Writer) WritePredictions(preds []*models.ImpactPrediction) error {
	if len(preds) == 0 {
		return nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, pred := range preds {
		generated := pred.GeneratedAt.UTC().Format(time.RFC3339)
		for _, an := range pred.AffectedNodes {
			r := row{
				PredictionID:      pred.PredictionID,
				GeneratedAt:       generated,
				SourceNodeID:      pred.SourceFailure.NodeID,
				FailureType:       pred.SourceFailure.FailureType,
				SourceSeverity:    string(pred.SourceFailure.Severity),
				NodeID:            an.NodeID,
				NodeType:          string(an.NodeType),
				Severity:          string(an.Severity),
				Probability:       an.Probability,
				TimeToImpactHours: an.TimeToImpactHours,
				Depth:             an.Depth,
			}
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("failed to marshal prediction row: %w", err)
			}
		}
	}
	if body.Len() == 0 {
		return nil
	}

	req, err := http.NewRequest(http.MethodPost, w.endpoint, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("clickhouse request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("clickhouse request failed with status %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Close releases resources.
func (w *Writer) Close() error {
	return nil
}

func quoteIdent(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "`", "")
	return "`" + v + "`"
}
