package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/recserve/core"
)

// fakeNode 把自己的名字追加为一个候选，fail 时报错。
type fakeNode struct {
	name string
	fail bool
}

func (n *fakeNode) Name() string { return n.name }
func (n *fakeNode) Kind() Kind   { return KindFilter }

func (n *fakeNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.fail {
		return nil, fmt.Errorf("node %s failed", n.name)
	}
	return append(items, core.NewItem(n.name)), nil
}

func TestPipelineRunChainsNodes(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&fakeNode{name: "first"},
		&fakeNode{name: "second"},
	}}

	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"first", "second"}
	if len(out) != len(want) {
		t.Fatalf("Run() produced %d items, want %d", len(out), len(want))
	}
	for i, it := range out {
		if it.ID != want[i] {
			t.Errorf("Run()[%d] = %s, want %s", i, it.ID, want[i])
		}
	}
}

func TestPipelineRunAbortsOnError(t *testing.T) {
	p := &Pipeline{Nodes: []Node{
		&fakeNode{name: "first"},
		&fakeNode{name: "boom", fail: true},
		&fakeNode{name: "after"},
	}}

	out, err := p.Run(context.Background(), nil, nil)
	if err == nil {
		t.Fatal("Run() expected error, got nil")
	}
	if out != nil {
		t.Errorf("Run() items = %v, want nil on error", out)
	}
}

func TestLoadFromYAMLAndBuild(t *testing.T) {
	yaml := `
pipeline:
  name: test
  nodes:
    - type: fake
      config:
        label: one
    - type: fake
      config:
        label: two
`
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	if cfg.Pipeline.Name != "test" {
		t.Errorf("Name = %s, want test", cfg.Pipeline.Name)
	}
	if len(cfg.Pipeline.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(cfg.Pipeline.Nodes))
	}

	factory := NewNodeFactory()
	factory.Register("fake", func(conf map[string]interface{}) (Node, error) {
		label, _ := conf["label"].(string)
		return &fakeNode{name: label}, nil
	})

	p, err := cfg.BuildPipeline(factory)
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	out, err := p.Run(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(out) != 2 || out[0].ID != "one" || out[1].ID != "two" {
		t.Errorf("Run() kept %d items, want [one two]", len(out))
	}
}

func TestBuildPipelineUnknownType(t *testing.T) {
	cfg := &Config{}
	cfg.Pipeline.Nodes = []NodeConfig{{Type: "no.such.node"}}

	if _, err := cfg.BuildPipeline(NewNodeFactory()); err == nil {
		t.Fatal("BuildPipeline() expected error for unknown node type")
	}
}
