package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nextlevel/order-desk/internal/core/ports"
)

var _ ports.Transactor = (*Transactor)(nil)

// Transactor runs order writes and their audit entries in one multi-document
// transaction. Standalone servers cannot do that; there fn runs directly.
type Transactor struct {
	client    *mongo.Client
	supported bool
}

// NewTransactor asks the server whether it is a replica set member or a
// mongos, the deployments that accept transactions.
func NewTransactor(ctx context.Context, db *mongo.Database) (*Transactor, error) {
	var hello struct {
		SetName string `bson:"setName"`
		Msg     string `bson:"msg"`
	}
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		return nil, fmt.Errorf("mongo hello: %w", err)
	}
	return &Transactor{
		client:    db.Client(),
		supported: hello.SetName != "" || hello.Msg == "isdbgrid",
	}, nil
}

// Supported reports whether InTransaction uses real transactions.
func (t *Transactor) Supported() bool { return t.supported }

// InTransaction runs fn inside a session transaction. Repositories pick the
// session up from the context fn receives. The driver retries fn on
// transient transaction errors.
func (t *Transactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !t.supported {
		return fn(ctx)
	}

	sess, err := t.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo start session: %w", err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}
