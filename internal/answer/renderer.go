package answer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sangeethasanthiralingam/DB-Report-chat-app/internal/store/redisstore"
)

const ChartKeyPrefix = "chart_"

// SpecRenderer stores chart and diagram descriptions as JSON specs behind a
// uuid handle; clients fetch the spec from /charts/:id and draw it
// themselves. No pixels are produced server-side.
type SpecRenderer struct {
	redis *redisstore.Store
	ttl   time.Duration
}

func NewSpecRenderer(redis *redisstore.Store, ttl time.Duration) *SpecRenderer {
	return &SpecRenderer{redis: redis, ttl: ttl}
}

func (r *SpecRenderer) RenderChart(ctx context.Context, kind ChartKind, title string, points []ChartPoint) (string, error) {
	type point struct {
		X      string  `json:"x"`
		Series string  `json:"series"`
		Value  float64 `json:"value"`
	}
	pts := make([]point, len(points))
	for i, p := range points {
		pts[i] = point{X: p.X, Series: p.Series, Value: p.Value}
	}
	return r.store(ctx, map[string]any{
		"kind":   string(kind),
		"title":  title,
		"points": pts,
	})
}

func (r *SpecRenderer) RenderDiagram(ctx context.Context, g Graph) (string, error) {
	return r.store(ctx, map[string]any{
		"kind":  "diagram",
		"title": g.Title,
		"nodes": g.Nodes,
		"edges": g.Edges,
	})
}

func (r *SpecRenderer) store(ctx context.Context, spec map[string]any) (string, error) {
	if r == nil || r.redis == nil {
		return "", fmt.Errorf("chart store not configured")
	}
	body, err := json.Marshal(spec)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	r.redis.Set(ctx, ChartKeyPrefix+id, string(body), r.ttl)
	if r.redis.Get(ctx, ChartKeyPrefix+id) == "" {
		return "", fmt.Errorf("chart store unavailable")
	}
	return "charts/" + id, nil
}
