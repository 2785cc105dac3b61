package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog/log"
)

// Neighbor is a unit one reference away from the queried unit.
type Neighbor struct {
	ID       string `json:"id"`
	Class    string `json:"class"`
	Key      string `json:"key"`
	Outgoing bool   `json:"outgoing"`
}

// Querier reads exported save graphs.
type Querier struct {
	driver neo4j.DriverWithContext
}

// NewQuerier creates a new graph querier.
func NewQuerier(driver neo4j.DriverWithContext) *Querier {
	return &Querier{driver: driver}
}

// Neighbors returns the units id refers to and the units referring to it.
func (q *Querier) Neighbors(ctx context.Context, save, id string) ([]Neighbor, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:Unit {save: $save, id: $id})-[r:REFERS]->(n:Unit)
		RETURN n.id AS id, n.class AS class, r.key AS key, true AS outgoing
		UNION
		MATCH (n:Unit)-[r:REFERS]->(u:Unit {save: $save, id: $id})
		RETURN n.id AS id, n.class AS class, r.key AS key, false AS outgoing
	`, map[string]any{"save": save, "id": id})
	if err != nil {
		return nil, fmt.Errorf("query neighbors of %s: %w", id, err)
	}

	var out []Neighbor
	for result.Next(ctx) {
		record := result.Record()
		nid, _ := record.Get("id")
		class, _ := record.Get("class")
		key, _ := record.Get("key")
		outgoing, _ := record.Get("outgoing")

		n := Neighbor{
			ID:    fmt.Sprintf("%v", nid),
			Class: fmt.Sprintf("%v", class),
			Key:   fmt.Sprintf("%v", key),
		}
		n.Outgoing, _ = outgoing.(bool)
		out = append(out, n)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("read neighbors of %s: %w", id, err)
	}

	log.Debug().Str("unit", id).Int("neighbors", len(out)).Msg("Graph query complete")
	return out, nil
}

// ClassCounts returns how many units of each class a save holds.
func (q *Querier) ClassCounts(ctx context.Context, save string) (map[string]int64, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, `
		MATCH (u:Unit {save: $save})
		RETURN u.class AS class, count(u) AS n
	`, map[string]any{"save": save})
	if err != nil {
		return nil, fmt.Errorf("count units: %w", err)
	}

	counts := make(map[string]int64)
	for result.Next(ctx) {
		record := result.Record()
		class, _ := record.Get("class")
		n, _ := record.Get("n")
		counts[fmt.Sprintf("%v", class)], _ = n.(int64)
	}
	return counts, result.Err()
}
