package ecs

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultChunkSize 未配置分块大小时使用的默认值
const DefaultChunkSize = 64

// Chunk 是并行遍历中的一个分块
type Chunk struct {
	// Index 分块序号（从 0 开始，与实体顺序一致）
	Index int
	// Base 分块第一个实体在整个遍历中的位置
	Base int
	// Entities 分块内的实体
	Entities []EntityID
}

// TraversalOptions 并行遍历参数
type TraversalOptions struct {
	ChunkSize int // <= 0 时使用 DefaultChunkSize
	Workers   int // <= 0 时使用 runtime.GOMAXPROCS(0)
}

// ForEachChunk 把实体切成固定大小的分块并行处理
//
// 分块之间不共享可变状态；fn 返回的第一个错误会在所有分块结束后返回。
// 实体顺序和分块边界只取决于 ids 与 ChunkSize，与 Workers 无关。
func ForEachChunk(ids []EntityID, opts TraversalOptions, fn func(chunk Chunk) error) error {
	if len(ids) == 0 {
		return nil
	}

	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for index, base := 0, 0; base < len(ids); index, base = index+1, base+size {
		chunk := Chunk{
			Index:    index,
			Base:     base,
			Entities: ids[base:min(base+size, len(ids))],
		}
		g.Go(func() error {
			return fn(chunk)
		})
	}

	return g.Wait()
}
