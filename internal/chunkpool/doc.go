// Package chunkpool runs detail lookup chunks on a bounded set of workers
// and hands back results in chunk order.
package chunkpool
