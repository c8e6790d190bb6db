package platform

import (
	"context"
	"fmt"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultProbeCacheSize bounds the number of memoized probe results.
const DefaultProbeCacheSize = 256

// CachingRunner memoizes successful Cacheable commands. The key includes the
// binary's size and modification time, so a replaced binary is probed again.
// A checkup examined before and after remediation reuses the first answer.
type CachingRunner struct {
	next  Runner
	cache *lru.Cache[string, Result]
}

func NewCachingRunner(next Runner, size int) (*CachingRunner, error) {
	if size <= 0 {
		size = DefaultProbeCacheSize
	}
	cache, err := lru.New[string, Result](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create probe cache: %w", err)
	}
	return &CachingRunner{next: next, cache: cache}, nil
}

func (c *CachingRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	key, ok := cacheKey(cmd)
	if !ok {
		return c.next.Run(ctx, cmd)
	}

	if cached, hit := c.cache.Get(key); hit {
		res := cached
		return &res, nil
	}

	res, err := c.next.Run(ctx, cmd)
	if err == nil && res.Success() {
		c.cache.Add(key, *res)
	}
	return res, err
}

// Len returns the number of memoized results.
func (c *CachingRunner) Len() int {
	return c.cache.Len()
}

func cacheKey(cmd Command) (string, bool) {
	if !cmd.Cacheable || cmd.Stdin != "" || len(cmd.Env) > 0 {
		return "", false
	}
	info, err := os.Stat(cmd.Path)
	if err != nil || info.IsDir() {
		return "", false
	}
	return fmt.Sprintf("%s\x00%s\x00%s\x00%d\x00%d",
		cmd.Path, strings.Join(cmd.Args, "\x00"), cmd.Dir, info.Size(), info.ModTime().UnixNano()), true
}
