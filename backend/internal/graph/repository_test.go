package graph

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHelpers(t *testing.T) {
	when := time.UnixMilli(1700000000123)
	record := &neo4j.Record{
		Keys:   []string{"s", "i", "n", "t", "f"},
		Values: []any{"alice", int64(42), nil, when, 3.5},
	}

	assert.Equal(t, "alice", getStringFromRecord(record, "s"))
	assert.Equal(t, "", getStringFromRecord(record, "i"))
	assert.Equal(t, "42", getIDFromRecord(record, "i"))
	assert.Equal(t, "", getIDFromRecord(record, "n"))
	assert.Equal(t, int64(1700000000123), getInt64FromRecord(record, "t"))
	assert.Equal(t, int64(3), getInt64FromRecord(record, "f"))
	assert.Equal(t, "", getStringFromRecord(record, "absent"))
}

// TestRepository_Fetch requires a running Neo4j instance
// Set NEO4J_URI, NEO4J_USER, NEO4J_PASSWORD environment variables
func TestRepository_Fetch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	driver, err := createTestDriver()
	if err != nil {
		t.Skipf("Neo4j not reachable: %v", err)
	}
	defer driver.Close(ctx)

	suffix := time.Now().Format("20060102150405")
	a, b := "test-a-"+suffix, "test-b-"+suffix

	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)
	_, err = session.Run(ctx, `
		CREATE (a:Account {id: $a, ens: "a.eth"})
		CREATE (b:Account {id: $b, address: "0x1234567890abcdef1234567890abcdef12345678"})
		CREATE (a)-[:VOUCHED_FOR {timestamp: 1}]->(b)
	`, map[string]interface{}{"a": a, "b": b})
	require.NoError(t, err)

	defer func() {
		_, _ = session.Run(ctx, "MATCH (n:Account) WHERE n.id IN [$a, $b] DETACH DELETE n", map[string]interface{}{"a": a, "b": b})
	}()

	repo := NewRepository(driver)
	data, err := repo.Fetch(ctx)
	require.NoError(t, err)

	m := Normalize(data, nil)
	node, ok := m.NodeByID(a)
	require.True(t, ok)
	assert.Equal(t, "a.eth", node.NamingServiceName)

	found := false
	for _, l := range m.Links {
		if l.Source == a && l.Target == b {
			found = true
		}
	}
	assert.True(t, found, "vouch between test accounts not returned")
}

func createTestDriver() (neo4j.DriverWithContext, error) {
	uri := envOr("NEO4J_URI", "bolt://localhost:7687")
	user := envOr("NEO4J_USER", "neo4j")
	password := envOr("NEO4J_PASSWORD", "password")

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, err
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, err
	}

	return driver, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
