package riskstate

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"impactgraph/pkg/models"
)

// RedisConfig configures Redis access for cumulative risk persistence.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NodeRisk is the cumulative impact record for one node across predictions,
// kept for dashboard consumption.
type NodeRisk struct {
	NodeID        string    `json:"node_id"`
	NodeType      string    `json:"node_type,omitempty"`
	NodeName      string    `json:"node_name,omitempty"`
	TimesAffected int64     `json:"times_affected"`
	WorstSeverity string    `json:"worst_severity,omitempty"`
	LastSeverity  string    `json:"last_severity,omitempty"`
	LastSeenAt    time.Time `json:"last_seen_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

// RedisStore manages writer/reader operations over node-risk keys.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore constructs a Redis-backed risk-state store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "impactgraph:risk_state"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis risk-state: %w", err)
	}

	return &RedisStore{client: client, prefix: strings.TrimSpace(cfg.KeyPrefix)}, nil
}

// RecordPredictions updates per-node counters from prediction results. The
// worst-severity set only moves upward (GT), so a later low-severity run
// never erases an earlier critical finding.
func (s *RedisStore) RecordPredictions(preds []*models.ImpactPrediction) error {
	if len(preds) == 0 {
		return nil
	}
	ctx := context.Background()
	pipe := s.client.Pipeline()

	nowUnix := time.Now().Unix()
	for _, pred := range preds {
		if pred == nil {
			continue
		}
		for _, an := range pred.AffectedNodes {
			if an.NodeID == "" {
				continue
			}
			key := s.nodeKey(an.NodeID)
			pipe.HSet(ctx, key,
				"node_id", an.NodeID,
				"node_type", string(an.NodeType),
				"node_name", an.NodeName,
				"last_severity", string(an.Severity),
				"updated_at", strconv.FormatInt(nowUnix, 10),
			)
			pipe.HIncrBy(ctx, key, "times_affected", 1)

			rank := float64(an.Severity.Rank())
			pipe.ZAddArgs(ctx, s.worstSetKey(), redis.ZAddArgs{GT: true, Members: []redis.Z{{Score: rank, Member: an.NodeID}}})
			pipe.ZAddArgs(ctx, s.lastSetKey(), redis.ZAddArgs{GT: true, Members: []redis.Z{{Score: float64(nowUnix), Member: an.NodeID}}})
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update risk-state redis keys: %w", err)
	}
	return nil
}

// FetchTopRisks returns node risks ordered by worst observed severity.
func (s *RedisStore) FetchTopRisks(limit int64) ([]NodeRisk, error) {
	if limit <= 0 {
		limit = 100
	}
	ctx := context.Background()
	members, err := s.client.ZRevRangeWithScores(ctx, s.worstSetKey(), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read risk-state members: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	risks := make([]NodeRisk, 0, len(members))
	for _, z := range members {
		nodeID, ok := z.Member.(string)
		if !ok || nodeID == "" {
			continue
		}

		hash, err := s.client.HGetAll(ctx, s.nodeKey(nodeID)).Result()
		if err != nil || len(hash) == 0 {
			continue
		}

		times, _ := strconv.ParseInt(hash["times_affected"], 10, 64)
		updatedUnix, _ := strconv.ParseInt(hash["updated_at"], 10, 64)
		lastSeen, _ := s.client.ZScore(ctx, s.lastSetKey(), nodeID).Result()

		risk := NodeRisk{
			NodeID:        nodeID,
			NodeType:      hash["node_type"],
			NodeName:      hash["node_name"],
			TimesAffected: times,
			WorstSeverity: string(models.SeverityFromRank(int(z.Score))),
			LastSeverity:  hash["last_severity"],
		}
		if updatedUnix > 0 {
			risk.UpdatedAt = time.Unix(updatedUnix, 0).UTC()
		}
		if lastSeen > 0 {
			risk.LastSeenAt = time.Unix(int64(lastSeen), 0).UTC()
		}
		risks = append(risks, risk)
	}

	return risks, nil
}

// Close closes Redis resources.
func (s *RedisStore) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *RedisStore) nodeKey(nodeID string) string {
	return s.prefix + ":node:" + nodeID
}

func (s *RedisStore) worstSetKey() string {
	return s.prefix + ":worst"
}

func (s *RedisStore) lastSetKey() string {
	return s.prefix + ":last"
}
