package stream

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// GRPCTransport holds a gRPC connection to a stream service. It does not
// implement Provider itself: gRPC stream services use generated clients, so
// callers take the connection via Conn() and wrap it. The transport owns
// dialing, TLS selection and the readiness probe.
type GRPCTransport struct {
	name     string
	endpoint string
	conn     *grpc.ClientConn
}

// NewGRPCTransport dials a gRPC stream service endpoint.
func NewGRPCTransport(ctx context.Context, name, endpoint string) (*GRPCTransport, error) {
	target := endpoint
	var opts []grpc.DialOption

	if strings.HasPrefix(endpoint, "https://") || strings.HasSuffix(endpoint, ":443") {
		creds := credentials.NewTLS(&tls.Config{})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial grpc endpoint %s: %w", target, err)
	}

	return &GRPCTransport{name: name, endpoint: endpoint, conn: conn}, nil
}

// Conn returns the underlying gRPC connection for generated clients.
func (t *GRPCTransport) Conn() *grpc.ClientConn {
	return t.conn
}

// GetName returns the transport's name.
func (t *GRPCTransport) GetName() string {
	return t.name
}

// Ready probes the service's health endpoint. Errors come back as gRPC
// status errors, which the classifier handles on its typed path.
func (t *GRPCTransport) Ready(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := grpc_health_v1.NewHealthClient(t.conn).Check(probeCtx, &grpc_health_v1.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("health probe failed: %w", err)
	}
	if resp.Status != grpc_health_v1.HealthCheckResponse_SERVING {
		return fmt.Errorf("stream service not serving: %s", resp.Status)
	}
	return nil
}

// Close cleans up resources.
func (t *GRPCTransport) Close() error {
	return t.conn.Close()
}
