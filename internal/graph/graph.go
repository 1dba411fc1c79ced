// Package graph is the query layer over Neo4j for membership and tagging
// facts. Every operation is a single parameterized Cypher statement; the
// store's own atomicity is the only concurrency control (no cross-statement
// transactions).
package graph

import (
	"context"
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/cypherhub/backend/pkg/graphdb"
)

var (
	// ErrAlreadyTagged: the (user, target, role) triple already exists.
	ErrAlreadyTagged = errors.New("already tagged")
	// ErrTagNotFound: no such tag to remove.
	ErrTagNotFound = errors.New("tag not found")
	// ErrTargetNotFound: the target entity (or user node) does not exist.
	ErrTargetNotFound = errors.New("target not found")
)

// Store issues graph reads and writes.
type Store struct {
	client *graphdb.Client
}

// NewStore creates a graph store over a connected client.
func NewStore(client *graphdb.Client) *Store {
	return &Store{client: client}
}

func (s *Store) readSession(ctx context.Context) neo4j.SessionWithContext {
	return s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.client.Database,
	})
}

func (s *Store) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.client.Database,
	})
}

// readBool runs a read statement expected to return a single boolean column.
func (s *Store) readBool(ctx context.Context, cypher string, params map[string]any) (bool, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return false, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return false, err
		}
		val, _ := record.Values[0].(bool)
		return val, nil
	})
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

// readString runs a read statement returning one string; ErrTargetNotFound
// when no row comes back.
func (s *Store) readString(ctx context.Context, cypher string, params map[string]any) (string, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return "", err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return "", err
		}
		if len(records) == 0 {
			return "", ErrTargetNotFound
		}
		val, _ := records[0].Values[0].(string)
		return val, nil
	})
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// readStrings runs a read statement returning one string column per row.
func (s *Store) readStrings(ctx context.Context, cypher string, params map[string]any) ([]string, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		list := make([]string, 0, len(records))
		for _, r := range records {
			if v, ok := r.Values[0].(string); ok {
				list = append(list, v)
			}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}

// write runs a write statement and returns the collected records.
func (s *Store) write(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := s.writeSession(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]*neo4j.Record), nil
}
