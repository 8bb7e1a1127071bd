// Package idgen 提供基于雪花算法的 ID 生成器
package idgen

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// Generator 雪花 ID 生成器
type Generator struct {
	node *snowflake.Node
}

// New 创建 ID 生成器，nodeID 取值范围 [0, 1023]
func New(nodeID int64) (*Generator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node: %w", err)
	}
	return &Generator{node: node}, nil
}

// NextID 生成下一个 ID
func (g *Generator) NextID() int64 {
	return g.node.Generate().Int64()
}

// NextIDString 生成下一个 ID 的字符串形式
func (g *Generator) NextIDString() string {
	return g.node.Generate().String()
}
