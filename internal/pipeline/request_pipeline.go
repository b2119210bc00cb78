package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"impactgraph/internal/engine"
	"impactgraph/internal/graph"
	inputredis "impactgraph/internal/input/redis"
	"impactgraph/internal/logger"
	"impactgraph/pkg/models"
)

// Request is one queued analysis message.
type Request struct {
	Type        string                  `json:"type"` // snapshot|predict|what_if
	Snapshot    json.RawMessage         `json:"snapshot,omitempty"`
	NodeID      string                  `json:"node_id,omitempty"`
	FailureType string                  `json:"failure_type,omitempty"`
	Severity    models.Severity         `json:"severity,omitempty"`
	Scenarios   []models.WhatIfScenario `json:"scenarios,omitempty"`
}

// RedisRequestPipeline consumes analysis requests from Redis and writes
// finished predictions to the configured sinks.
type RedisRequestPipeline struct {
	consumer      *inputredis.Consumer
	engine        *engine.Engine
	writer        PredictionWriter
	riskRecorder  RiskRecorder
	workers       int
	batchSize     int
	flushInterval time.Duration
}

type workItem struct {
	preds []*models.ImpactPrediction
}

// NewRedisRequestPipeline creates a pipeline for Redis-driven analysis.
func NewRedisRequestPipeline(consumer *inputredis.Consumer, eng *engine.Engine, writer PredictionWriter, riskRecorder RiskRecorder, workers, batchSize int, flushInterval time.Duration) *RedisRequestPipeline {
	return &RedisRequestPipeline{
		consumer:      consumer,
		engine:        eng,
		writer:        writer,
		riskRecorder:  riskRecorder,
		workers:       workers,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Run starts the pipeline loop.
func (p *RedisRequestPipeline) Run(ctx context.Context) error {
	logger.Infof("Redis request pipeline started")

	if p.workers <= 0 {
		p.workers = 4
	}
	if p.batchSize <= 0 {
		p.batchSize = 100
	}
	if p.flushInterval <= 0 {
		p.flushInterval = 2 * time.Second
	}

	msgCh := make(chan []byte, p.workers*4)
	workCh := make(chan workItem, p.workers*4)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.readLoop(ctx, msgCh)
		close(msgCh)
	}()

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.workerLoop(msgCh, workCh)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.writeLoop(ctx, workCh)
	}()

	<-ctx.Done()
	close(workCh)
	wg.Wait()
	return ctx.Err()
}

// Close releases pipeline resources.
func (p *RedisRequestPipeline) Close() error {
	if p.riskRecorder != nil {
		if err := p.riskRecorder.Close(); err != nil {
			logger.Errorf("Failed to close risk recorder: %v", err)
		}
	}
	if p.writer != nil {
		if err := p.writer.Close(); err != nil {
			logger.Errorf("Failed to close prediction writer: %v", err)
		}
	}
	if p.consumer != nil {
		return p.consumer.Close()
	}
	return nil
}

func (p *RedisRequestPipeline) readLoop(ctx context.Context, out chan<- []byte) {
	for {
		payload, err := p.consumer.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Failed to pop redis message: %v", err)
			time.Sleep(500 * time.Millisecond)
			continue
		}
		if payload == nil {
			continue
		}
		out <- payload
	}
}

func (p *RedisRequestPipeline) workerLoop(in <-chan []byte, out chan<- workItem) {
	for payload := range in {
		var req Request
		if err := json.Unmarshal(payload, &req); err != nil {
			logger.Warnf("Failed to parse request message: %v", err)
			continue
		}

		preds := p.handle(&req)
		if len(preds) > 0 {
			out <- workItem{preds: preds}
		}
	}
}

// handle executes one request against the engine. Request-level failures are
// logged and dropped; the queue is fire-and-forget.
func (p *RedisRequestPipeline) handle(req *Request) []*models.ImpactPrediction {
	switch req.Type {
	case "snapshot":
		snap, diags, err := graph.ParseSnapshot(req.Snapshot)
		if err != nil {
			logger.Warnf("Rejected snapshot message: %v", err)
			return nil
		}
		for _, d := range diags {
			logger.Warnf("Snapshot diagnostic: %s", d)
		}
		res := p.engine.Initialize(snap)
		for _, d := range res.Diagnostics {
			logger.Warnf("Build diagnostic: %s", d)
		}
		return nil

	case "predict":
		pred, err := p.engine.PredictImpact(req.NodeID, req.FailureType, req.Severity)
		if err != nil {
			logger.Warnf("Prediction failed for node %q: %v", req.NodeID, err)
			return nil
		}
		return []*models.ImpactPrediction{pred}

	case "what_if":
		report, err := p.engine.RunWhatIf(req.Scenarios)
		if err != nil {
			logger.Warnf("What-if batch failed: %v", err)
			return nil
		}
		var preds []*models.ImpactPrediction
		for _, r := range report.Results {
			if r.Error != "" {
				logger.Warnf("What-if scenario node=%q failure=%q: %s", r.Scenario.NodeID, r.Scenario.FailureType, r.Error)
				continue
			}
			preds = append(preds, r.Prediction)
		}
		return preds

	default:
		logger.Warnf("Unknown request type %q; message dropped", req.Type)
		return nil
	}
}

func (p *RedisRequestPipeline) writeLoop(ctx context.Context, in <-chan workItem) {
	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	var batch []*models.ImpactPrediction

	flush := func() {
		if len(batch) == 0 {
			return
		}
		for {
			if err := p.writer.WritePredictions(batch); err != nil {
				logger.Errorf("Failed to write predictions: %v", err)
				select {
				case <-ctx.Done():
					return
				case <-time.After(1 * time.Second):
				}
				continue
			}
			break
		}
		if p.riskRecorder != nil {
			if err := p.riskRecorder.RecordPredictions(batch); err != nil {
				logger.Errorf("Failed to record risk state: %v", err)
			}
		}
		batch = nil
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-ticker.C:
			flush()
		case item, ok := <-in:
			if !ok {
				flush()
				return
			}
			batch = append(batch, item.preds...)
			if len(batch) >= p.batchSize {
				flush()
			}
		}
	}
}
