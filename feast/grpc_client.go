package feast

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"
)

// GrpcClient 是基于官方 Feast Go SDK 的 gRPC 客户端实现。
//
// 使用场景：
//   - 快照构建时批量拉取商品/客户 embedding（配合 VectorHydrator）
//   - 实时特征获取
type GrpcClient struct {
	client *feastsdk.GrpcClient

	// Project 项目名称
	Project string

	// Endpoint 服务端点（用于信息展示）
	Endpoint string
}

// NewGrpcClient 创建一个基于官方 SDK 的 Feast gRPC 客户端。
// port 为 0 时取默认端口 6565。
func NewGrpcClient(host string, port int, project string, opts ...ClientOption) (*GrpcClient, error) {
	if port == 0 {
		port = 6565
	}

	config := &ClientConfig{
		Endpoint: fmt.Sprintf("%s:%d", host, port),
		Project:  project,
		Timeout:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(config)
	}

	var client *feastsdk.GrpcClient
	var err error

	if config.Auth != nil && config.Auth.Type == "static" && config.Auth.Token != "" {
		credential := feastsdk.NewStaticCredential(config.Auth.Token)
		security := feastsdk.SecurityConfig{
			EnableTLS:  false,
			Credential: credential,
		}
		client, err = feastsdk.NewSecureGrpcClient(host, port, security)
	} else {
		client, err = feastsdk.NewGrpcClient(host, port)
	}
	if err != nil {
		return nil, fmt.Errorf("feast: create grpc client: %w", err)
	}

	return &GrpcClient{
		client:   client,
		Project:  project,
		Endpoint: config.Endpoint,
	}, nil
}

// GetOnlineFeatures 获取在线特征（实现 Client 接口）。
func (c *GrpcClient) GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	if len(req.Features) == 0 {
		return nil, fmt.Errorf("feast: features are required")
	}
	if len(req.EntityRows) == 0 {
		return nil, fmt.Errorf("feast: entity rows are required")
	}

	project := req.Project
	if project == "" {
		project = c.Project
	}
	if project == "" {
		return nil, fmt.Errorf("feast: project is required")
	}

	entityRows := make([]feastsdk.Row, len(req.EntityRows))
	for i, row := range req.EntityRows {
		entityRow := make(feastsdk.Row, len(row))
		for k, v := range row {
			entityRow[k] = toProtoValue(v)
		}
		entityRows[i] = entityRow
	}

	sdkReq := &feastsdk.OnlineFeaturesRequest{
		Features: req.Features,
		Entities: entityRows,
		Project:  project,
	}

	sdkResp, err := c.client.GetOnlineFeatures(ctx, sdkReq)
	if err != nil {
		return nil, fmt.Errorf("feast: get online features: %w", err)
	}

	rows := sdkResp.Rows()
	if len(rows) != len(req.EntityRows) {
		return nil, fmt.Errorf("feast: response row count mismatch: expected %d, got %d", len(req.EntityRows), len(rows))
	}

	featureVectors := make([]FeatureVector, len(rows))
	for i, row := range rows {
		values := make(map[string]any, len(req.Features))
		for _, featureName := range req.Features {
			if val, exists := row[featureName]; exists {
				if converted := fromProtoValue(val); converted != nil {
					values[featureName] = converted
				}
			}
		}
		featureVectors[i] = FeatureVector{
			Values:    values,
			EntityRow: req.EntityRows[i],
		}
	}

	return &GetOnlineFeaturesResponse{FeatureVectors: featureVectors}, nil
}

// Close 关闭客户端连接（实现 Client 接口）。
// 官方 SDK 未暴露显式的 Close，连接由 gRPC 库管理。
func (c *GrpcClient) Close() error {
	c.client = nil
	return nil
}

// toProtoValue 把 Go 值转换为 Feast 的 proto Value。
// 未覆盖的类型按字符串兜底。
func toProtoValue(v any) *feasttypes.Value {
	switch val := v.(type) {
	case string:
		return feastsdk.StrVal(val)
	case int:
		return feastsdk.Int64Val(int64(val))
	case int64:
		return feastsdk.Int64Val(val)
	case int32:
		return feastsdk.Int64Val(int64(val))
	case float64:
		return feastsdk.DoubleVal(val)
	case float32:
		return feastsdk.FloatVal(val)
	case bool:
		return feastsdk.BoolVal(val)
	case []byte:
		return feastsdk.BytesVal(val)
	default:
		return feastsdk.StrVal(fmt.Sprintf("%v", val))
	}
}

// fromProtoValue 把 Feast 的 proto Value 转换为 Go 值。
// 数值统一成 float64，浮点列表统一成 []float64（embedding 的两种常见存法）。
func fromProtoValue(v *feasttypes.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Val.(type) {
	case *feasttypes.Value_StringVal:
		return val.StringVal
	case *feasttypes.Value_Int32Val:
		return float64(val.Int32Val)
	case *feasttypes.Value_Int64Val:
		return float64(val.Int64Val)
	case *feasttypes.Value_DoubleVal:
		return val.DoubleVal
	case *feasttypes.Value_FloatVal:
		return float64(val.FloatVal)
	case *feasttypes.Value_BoolVal:
		return val.BoolVal
	case *feasttypes.Value_BytesVal:
		return val.BytesVal
	case *feasttypes.Value_StringListVal:
		if val.StringListVal == nil {
			return nil
		}
		return val.StringListVal.Val
	case *feasttypes.Value_DoubleListVal:
		if val.DoubleListVal == nil {
			return nil
		}
		return val.DoubleListVal.Val
	case *feasttypes.Value_FloatListVal:
		if val.FloatListVal == nil {
			return nil
		}
		out := make([]float64, len(val.FloatListVal.Val))
		for i, f := range val.FloatListVal.Val {
			out[i] = float64(f)
		}
		return out
	case *feasttypes.Value_Int64ListVal:
		if val.Int64ListVal == nil {
			return nil
		}
		out := make([]float64, len(val.Int64ListVal.Val))
		for i, n := range val.Int64ListVal.Val {
			out[i] = float64(n)
		}
		return out
	case *feasttypes.Value_Int32ListVal:
		if val.Int32ListVal == nil {
			return nil
		}
		out := make([]float64, len(val.Int32ListVal.Val))
		for i, n := range val.Int32ListVal.Val {
			out[i] = float64(n)
		}
		return out
	default:
		return nil
	}
}

var _ Client = (*GrpcClient)(nil)
