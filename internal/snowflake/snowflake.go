package snowflake

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

// DefaultNodeID is used when NextID runs before Init, as in tests.
const DefaultNodeID = 1

var (
	mu   sync.Mutex
	node *snowflake.Node
)

// Init sets the generator node. Node ID must be unique across all instances
// writing to the same store (0-1023).
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// NextID generates a new entry id.
func NextID() int64 {
	mu.Lock()
	if node == nil {
		node, _ = snowflake.NewNode(DefaultNodeID)
	}
	n := node
	mu.Unlock()
	return n.Generate().Int64()
}
