package domain

import (
	"crypto/rand"
	"io"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

const (
	orderIDPrefix = "PUI"
	orderIDChunk  = 4
)

// 36^4, the number of distinct values in one id chunk.
var chunkSpace = big.NewInt(36 * 36 * 36 * 36)

// OrderIDGenerator produces ids of the form PUI-XXXX-YYYY where XXXX is taken
// from a millisecond clock and YYYY is random. The clock part never repeats
// between consecutive calls: when two ids fall into the same millisecond the
// generator advances its own clock by one.
type OrderIDGenerator struct {
	mu     sync.Mutex
	last   int64
	now    func() time.Time
	random io.Reader
}

func NewOrderIDGenerator() *OrderIDGenerator {
	return &OrderIDGenerator{now: time.Now, random: rand.Reader}
}

// WithClock replaces the time source, used by tests.
func (g *OrderIDGenerator) WithClock(now func() time.Time) *OrderIDGenerator {
	g.now = now
	return g
}

func (g *OrderIDGenerator) Next() (string, error) {
	g.mu.Lock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	n, err := rand.Int(g.random, chunkSpace)
	if err != nil {
		return "", errors.Wrap(err, "read random order id chunk")
	}

	stamp := new(big.Int).Mod(big.NewInt(ms), chunkSpace).Int64()
	return strings.ToUpper(orderIDPrefix + "-" + chunk(stamp) + "-" + chunk(n.Int64())), nil
}

func chunk(v int64) string {
	s := strconv.FormatInt(v, 36)
	if len(s) < orderIDChunk {
		s = strings.Repeat("0", orderIDChunk-len(s)) + s
	}
	return s[len(s)-orderIDChunk:]
}
