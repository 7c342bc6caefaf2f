package feast

import (
	"context"
	"errors"
	"testing"
)

// fakeClient 按预置向量表响应在线特征请求，测试用。
type fakeClient struct {
	vectors  map[string][]float64
	requests int
	maxBatch int
	err      error
}

func (c *fakeClient) GetOnlineFeatures(_ context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.requests++
	if len(req.EntityRows) > c.maxBatch {
		c.maxBatch = len(req.EntityRows)
	}

	feature := req.Features[0]
	out := make([]FeatureVector, len(req.EntityRows))
	for i, row := range req.EntityRows {
		values := map[string]any{}
		id, _ := row["product_id"].(string)
		if vec, ok := c.vectors[id]; ok {
			values[feature] = vec
		}
		out[i] = FeatureVector{Values: values, EntityRow: row}
	}
	return &GetOnlineFeaturesResponse{FeatureVectors: out}, nil
}

func (c *fakeClient) Close() error { return nil }

func TestVectorHydrator(t *testing.T) {
	client := &fakeClient{vectors: map[string][]float64{
		"A1": {0.1, 0.2},
		"A2": {0.3, 0.4},
		"A3": {0.5, 0.6},
	}}
	h := &VectorHydrator{
		Client:    client,
		Feature:   "product_embeddings:vector",
		EntityKey: "product_id",
		BatchSize: 2,
	}

	table, err := h.Hydrate(context.Background(), []string{"A1", "A2", "A3"})
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}

	if table.Len() != 3 {
		t.Errorf("Len() = %d, want 3", table.Len())
	}
	if table.Dim() != 2 {
		t.Errorf("Dim() = %d, want 2", table.Dim())
	}
	vec, ok := table.Vector("A2")
	if !ok || vec[0] != 0.3 || vec[1] != 0.4 {
		t.Errorf("Vector(A2) = %v, %v, want [0.3 0.4], true", vec, ok)
	}

	if client.requests != 2 {
		t.Errorf("client saw %d requests, want 2 batches", client.requests)
	}
	if client.maxBatch != 2 {
		t.Errorf("largest batch = %d, want 2", client.maxBatch)
	}
}

func TestVectorHydratorSkipsMissing(t *testing.T) {
	client := &fakeClient{vectors: map[string][]float64{
		"A1": {0.1, 0.2},
	}}
	h := &VectorHydrator{
		Client:    client,
		Feature:   "product_embeddings:vector",
		EntityKey: "product_id",
	}

	table, err := h.Hydrate(context.Background(), []string{"A1", "A9"})
	if err != nil {
		t.Fatalf("Hydrate() error = %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Len() = %d, want 1: entity without embedding is skipped", table.Len())
	}
	if _, ok := table.Vector("A9"); ok {
		t.Error("Vector(A9) present, want missing")
	}
}

func TestVectorHydratorDimensionConflict(t *testing.T) {
	client := &fakeClient{vectors: map[string][]float64{
		"A1": {0.1, 0.2},
		"A2": {0.3},
	}}
	h := &VectorHydrator{
		Client:    client,
		Feature:   "product_embeddings:vector",
		EntityKey: "product_id",
	}

	if _, err := h.Hydrate(context.Background(), []string{"A1", "A2"}); err == nil {
		t.Error("Hydrate() error = nil, want dimension error")
	}
}

func TestVectorHydratorClientError(t *testing.T) {
	boom := errors.New("feast offline")
	h := &VectorHydrator{
		Client:    &fakeClient{err: boom},
		Feature:   "product_embeddings:vector",
		EntityKey: "product_id",
	}

	if _, err := h.Hydrate(context.Background(), []string{"A1"}); !errors.Is(err, boom) {
		t.Errorf("Hydrate() error = %v, want %v", err, boom)
	}
}

func TestVectorHydratorConfig(t *testing.T) {
	if _, err := (&VectorHydrator{}).Hydrate(context.Background(), []string{"A1"}); err == nil {
		t.Error("Hydrate() error = nil, want config error without client")
	}
	h := &VectorHydrator{Client: &fakeClient{}}
	if _, err := h.Hydrate(context.Background(), []string{"A1"}); err == nil {
		t.Error("Hydrate() error = nil, want config error without feature")
	}
}
