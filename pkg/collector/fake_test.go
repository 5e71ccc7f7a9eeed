package collector

import (
	"context"
	"sync"

	"xfollowers/pkg/supplier"
)

// fakeSupplier answers pages and detail lookups from functions and records
// every call it receives.
type fakeSupplier struct {
	mu         sync.Mutex
	cursors    []string
	chunks     [][]string
	pageFunc   func(cursor string, call int) (*supplier.FollowPage, error)
	detailFunc func(ids []string, call int) ([]*supplier.UserDetail, error)
	onPage     func(call int)
}

func (f *fakeSupplier) FetchFollowPage(ctx context.Context, request supplier.Request, username string, count int, cursor string) (*supplier.FollowPage, error) {
	f.mu.Lock()
	f.cursors = append(f.cursors, cursor)
	call := len(f.cursors)
	f.mu.Unlock()

	if f.onPage != nil {
		f.onPage(call)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.pageFunc(cursor, call)
}

func (f *fakeSupplier) FetchUsersByIDs(ctx context.Context, ids []string) ([]*supplier.UserDetail, error) {
	f.mu.Lock()
	f.chunks = append(f.chunks, append([]string(nil), ids...))
	call := len(f.chunks)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.detailFunc == nil {
		return verifiedDetails(ids, nil), nil
	}
	return f.detailFunc(ids, call)
}

func (f *fakeSupplier) pageCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cursors...)
}

func (f *fakeSupplier) detailCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.chunks...)
}

// pages serves a fixed sequence: cursor "" is the first page and each page
// links to the next by its index.
func pages(batches ...[]supplier.RawAccount) func(string, int) (*supplier.FollowPage, error) {
	return func(cursor string, _ int) (*supplier.FollowPage, error) {
		index := 0
		if cursor != "" {
			for i := range batches {
				if cursorFor(i) == cursor {
					index = i
				}
			}
		}
		next := supplier.EndCursor
		if index+1 < len(batches) {
			next = cursorFor(index + 1)
		}
		return &supplier.FollowPage{Accounts: batches[index], NextCursor: next}, nil
	}
}

func cursorFor(i int) string {
	if i == 0 {
		return ""
	}
	return "c" + string(rune('0'+i))
}

func account(id, screenName string) supplier.RawAccount {
	return supplier.RawAccount{ID: id, ScreenName: screenName, Name: screenName}
}

func protected(id, screenName string) supplier.RawAccount {
	acc := account(id, screenName)
	acc.Protected = true
	return acc
}

// verifiedDetails returns one detail per id; ids in verified get true
func verifiedDetails(ids []string, verified map[string]bool) []*supplier.UserDetail {
	out := make([]*supplier.UserDetail, len(ids))
	for i, id := range ids {
		flag := verified[id]
		out[i] = &supplier.UserDetail{RestID: id, IsBlueVerified: &flag}
	}
	return out
}
