package feast

import (
	"strconv"
	"strings"
)

// NewClient 按端点地址创建客户端。
//
// 示例：
//
//	client, err := feast.NewClient("localhost:6565", "my_project")
//	client, err := feast.NewClient("grpc://feast.prod:6565", "my_project",
//	    feast.WithAuth(&feast.AuthConfig{Type: "static", Token: token}))
func NewClient(endpoint, project string, opts ...ClientOption) (Client, error) {
	host, port := parseEndpoint(endpoint)
	return NewGrpcClient(host, port, project, opts...)
}

// parseEndpoint 解析端点地址，返回 host 和 port。
// 无端口时 port 返回 0，由客户端取默认端口。
func parseEndpoint(endpoint string) (string, int) {
	endpoint = strings.TrimPrefix(endpoint, "grpc://")

	parts := strings.Split(endpoint, ":")
	if len(parts) == 2 {
		port, err := strconv.Atoi(parts[1])
		if err == nil {
			return parts[0], port
		}
	}

	return endpoint, 0
}
