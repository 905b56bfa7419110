package reply

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"forum/pkg/common"
)

type Repo struct {
	coll  IMongoCollection
	clock clockwork.Clock
}

func NewRepo(coll IMongoCollection, clock clockwork.Clock) *Repo {
	return &Repo{coll: coll, clock: clock}
}

// GetThread returns the thread of the post, empty when nobody replied yet.
func (r *Repo) GetThread(ctx context.Context, postID int64) (*Thread, error) {
	t := &Thread{PostID: postID, Replies: []Reply{}}
	err := r.coll.FindOne(ctx, bson.M{"_id": postID}).Decode(t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return t, nil
	}
	if err != nil {
		return nil, common.StoreErr(fmt.Sprintf("reply/repo: can't load thread of post %d", postID), err)
	}
	return t, nil
}

// AddReply appends a reply under parent (NoParent for top level) and
// returns its index together with the updated thread.
func (r *Repo) AddReply(ctx context.Context, postID int64, parent int, author, body string) (int, *Thread, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return 0, nil, common.Userf(common.ErrValidation, "reply can't be empty")
	}

	current, err := r.GetThread(ctx, postID)
	if err != nil {
		return 0, nil, err
	}
	if !current.valid(parent) {
		return 0, nil, common.Userf(common.ErrNotFound, "parent reply not found")
	}

	reply := Reply{
		ID:      uuid.NewString(),
		Parent:  parent,
		Depth:   current.depthUnder(parent),
		Author:  author,
		Body:    body,
		Created: r.clock.Now().UTC(),
	}

	// The parent slot must still exist when the push lands.
	filter := bson.M{"_id": postID}
	if parent != NoParent {
		filter[fmt.Sprintf("replies.%d", parent)] = bson.M{"$exists": true}
	}
	update := bson.M{"$push": bson.M{"replies": reply}}
	opts := options.FindOneAndUpdate().
		SetUpsert(parent == NoParent).
		SetReturnDocument(options.After)

	updated := &Thread{}
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil, common.Userf(common.ErrNotFound, "parent reply not found")
	}
	if err != nil {
		return 0, nil, common.StoreErr(fmt.Sprintf("reply/repo: can't push reply to post %d", postID), err)
	}

	idx := updated.indexOf(reply.ID)
	if idx < 0 {
		return 0, nil, fmt.Errorf("reply/repo: pushed reply %s missing from post %d", reply.ID, postID)
	}
	return idx, updated, nil
}

// Count returns how many posts have threads. Used by the seeder.
func (r *Repo) Count(ctx context.Context) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, common.StoreErr("reply/repo: can't count threads", err)
	}
	return n, nil
}
