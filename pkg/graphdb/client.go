// Package graphdb wires the Neo4j driver used for the graph facts: events,
// sections, videos, cities, styles, tags and team membership.
package graphdb

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Client wraps the Neo4j driver with the target database name.
type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
}

// NewClient connects to Neo4j and verifies connectivity.
func NewClient(ctx context.Context, uri, user, password, database string, logger *zap.Logger) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	logger.Info("Neo4j driver connected", zap.String("uri", uri))
	return &Client{Driver: driver, Database: database}, nil
}

// Close releases the driver.
func (c *Client) Close(ctx context.Context) error {
	return c.Driver.Close(ctx)
}
