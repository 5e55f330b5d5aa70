package common

import (
	"os"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cast"
)

const (
	ENABLED  = "enabled"
	DISABLED = "disabled"
)

var (
	snowflakeNode *snowflake.Node
	snowflakeOnce sync.Once
)

// UUIDint64 returns a cluster-unique int64 identifier.
// The node id can be set through the CATALOGD_NODE_ID environment
// variable when multiple instances share one database.
func UUIDint64() int64 {
	snowflakeOnce.Do(func() {
		nodeID := cast.ToInt64(os.Getenv("CATALOGD_NODE_ID"))
		node, err := snowflake.NewNode(nodeID)
		if err != nil {
			// invalid node id from the environment, fall back to node 0
			node, _ = snowflake.NewNode(0)
		}
		snowflakeNode = node
	})
	return snowflakeNode.Generate().Int64()
}

// FileExists reports whether path exists and is not a directory.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
