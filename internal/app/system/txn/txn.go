// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports one, and falls back to sequential writes otherwise.
package txn

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes returned when transactions are unavailable.
const (
	codeIllegalOperation     = 20
	codeNoReplicationEnabled = 51
	codeOperationNotAllowed  = 263
)

var fallbackLogged atomic.Bool

// IsNotSupported reports whether err means the server cannot run
// transactions (standalone mongod or an unsupported session state).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case codeIllegalOperation, codeNoReplicationEnabled, codeOperationNotAllowed:
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	has := func(a, b string) bool { return strings.Contains(msg, a) && strings.Contains(msg, b) }
	return has("transaction", "replica set") ||
		has("session", "not supported") ||
		has("transaction", "session") ||
		has("illegal", "operation")
}

// InTransaction reports whether ctx carries a session started by Run.
func InTransaction(ctx context.Context) bool {
	return mongo.SessionFromContext(ctx) != nil
}

// Run executes fn inside a transaction. If the server rejects
// transactions, fn is called again with the plain ctx; callers use
// InTransaction to decide whether compensating writes are needed.
func Run(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return runDirect(ctx, fn, err)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return runDirect(ctx, fn, err)
	}
	return err
}

func runDirect(ctx context.Context, fn func(ctx context.Context) error, cause error) error {
	if fallbackLogged.CompareAndSwap(false, true) {
		zap.L().Warn("transactions unavailable; using sequential writes", zap.Error(cause))
	}
	return fn(ctx)
}

// Runner executes fn atomically where the server allows it. Services take
// a Runner so tests can substitute a direct call.
type Runner func(ctx context.Context, fn func(ctx context.Context) error) error

// ClientRunner returns a Runner backed by Run on client.
func ClientRunner(client *mongo.Client) Runner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return Run(ctx, client, fn)
	}
}
