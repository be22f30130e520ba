package budget

import (
	"context"
	"fmt"
	"time"

	"musafir/internal/domain/models"
	"musafir/internal/utils"

	"github.com/redis/go-redis/v9"
)

// Gate mirrors the remaining count and value of each discount budget in Redis
// so that callers racing for an exhausted budget are turned away before they
// open a database transaction. The SQL counter stays authoritative: a Gate
// admission only means the reservation may be attempted.
//
// A nil *Gate admits everything.
type Gate struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewGate(rdb *redis.Client, ttl time.Duration) *Gate {
	if rdb == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Gate{rdb: rdb, ttl: ttl, prefix: "musafir:budget"}
}

// Loader reads the current budget from the authoritative store.
type Loader func(ctx context.Context) (models.DiscountBudget, error)

// Ticket is the result of TryTake. Give must be called with it when the
// reservation it admitted did not happen or was released later.
type Ticket struct {
	Admitted bool
	tracked  bool
	key      string
	count    int64
	amount   int64
}

var takeScript = redis.NewScript(`
	local key = KEYS[1]
	local count = tonumber(ARGV[1])
	local amount = tonumber(ARGV[2])

	if redis.call('EXISTS', key) == 0 then
		return -1
	end
	local state = redis.call('HMGET', key, 'count', 'value')
	local rc = tonumber(state[1]) or 0
	local rv = tonumber(state[2]) or 0
	if rc < count or rv < amount then
		return 0
	end
	redis.call('HINCRBY', key, 'count', -count)
	redis.call('HINCRBY', key, 'value', -amount)
	return 1
`)

var seedScript = redis.NewScript(`
	local key = KEYS[1]
	if redis.call('EXISTS', key) == 1 then
		return 0
	end
	redis.call('HSET', key, 'count', ARGV[1], 'value', ARGV[2])
	redis.call('EXPIRE', key, tonumber(ARGV[3]))
	return 1
`)

var giveScript = redis.NewScript(`
	local key = KEYS[1]
	if redis.call('EXISTS', key) == 0 then
		return 0
	end
	redis.call('HINCRBY', key, 'count', tonumber(ARGV[1]))
	redis.call('HINCRBY', key, 'value', tonumber(ARGV[2]))
	return 1
`)

func (g *Gate) key(tripID int64, kind models.DiscountKind) string {
	return fmt.Sprintf("%s:%d:%s", g.prefix, tripID, kind)
}

// TryTake asks for count units worth amount. When the mirror is cold it is
// seeded from load. Redis failures admit the caller untracked.
func (g *Gate) TryTake(ctx context.Context, tripID int64, kind models.DiscountKind, count, amount int64, load Loader) (Ticket, error) {
	if g == nil {
		return Ticket{Admitted: true}, nil
	}
	key := g.key(tripID, kind)
	for attempt := 0; attempt < 2; attempt++ {
		res, err := takeScript.Run(ctx, g.rdb, []string{key}, count, amount).Int64()
		if err != nil {
			utils.LogEvent("", "budget_gate", "take_error", err.Error())
			return Ticket{Admitted: true}, nil
		}
		switch res {
		case 1:
			return Ticket{Admitted: true, tracked: true, key: key, count: count, amount: amount}, nil
		case 0:
			return Ticket{Admitted: false}, nil
		}
		b, err := load(ctx)
		if err != nil {
			return Ticket{}, err
		}
		if err := seedScript.Run(ctx, g.rdb, []string{key}, b.RemainingCount(), b.RemainingValue(), int64(g.ttl/time.Second)).Err(); err != nil {
			utils.LogEvent("", "budget_gate", "seed_error", err.Error())
			return Ticket{Admitted: true}, nil
		}
	}
	return Ticket{Admitted: true}, nil
}

// Give returns what t took. Safe to call on untracked or refused tickets.
func (g *Gate) Give(ctx context.Context, t Ticket) {
	if g == nil || !t.tracked {
		return
	}
	g.giveKey(ctx, t.key, t.count, t.amount)
}

// Restore gives back units released outside of a ticket, such as a released reservation.
func (g *Gate) Restore(ctx context.Context, tripID int64, kind models.DiscountKind, count, amount int64) {
	if g == nil {
		return
	}
	g.giveKey(ctx, g.key(tripID, kind), count, amount)
}

func (g *Gate) giveKey(ctx context.Context, key string, count, amount int64) {
	if err := giveScript.Run(ctx, g.rdb, []string{key}, count, amount).Err(); err != nil {
		utils.LogEvent("", "budget_gate", "give_error", err.Error())
		g.drop(ctx, key)
	}
}

// Invalidate drops the mirror so the next TryTake reseeds from SQL.
func (g *Gate) Invalidate(ctx context.Context, tripID int64, kind models.DiscountKind) {
	if g == nil {
		return
	}
	g.drop(ctx, g.key(tripID, kind))
}

func (g *Gate) drop(ctx context.Context, key string) {
	if err := g.rdb.Del(ctx, key).Err(); err != nil {
		utils.LogEvent("", "budget_gate", "invalidate_error", err.Error())
	}
}
