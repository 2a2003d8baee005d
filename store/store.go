// Package store 实现 core.Store：目录快照的共享二级缓存。
//
// MemoryStore 用于单实例与测试；RedisStore 让多个实例共享同一份快照，
// 避免每个实例在刷新时都全量扫描目录库。
package store
