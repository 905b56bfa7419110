package post

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v4/stdlib"

	"forum/pkg/common"
	"forum/pkg/voting"
)

const selectPosts = `SELECT p.id, c.name, p.author, p.created_at, p.title, p.content, COALESCE(p.tag, ''), p.score, p.comment_count
	FROM posts p JOIN communities c ON c.id = p.community_id`

// Newest first is the store default order.
const defaultOrder = ` ORDER BY p.created_at DESC, p.id DESC`

// Repo is the authoritative post store: posts, votes, communities and
// memberships live in Postgres.
type Repo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) FetchAll(ctx context.Context) ([]*Post, error) {
	return r.query(ctx, selectPosts+defaultOrder)
}

// FetchByMembership returns the posts of the communities userId has joined.
func (r *Repo) FetchByMembership(ctx context.Context, userId string) ([]*Post, error) {
	return r.query(ctx, selectPosts+
		` JOIN memberships m ON m.community_id = p.community_id WHERE m.user_id = $1`+defaultOrder, userId)
}

func (r *Repo) FetchAllByScore(ctx context.Context) ([]*Post, error) {
	return r.query(ctx, selectPosts+` ORDER BY p.score DESC, p.created_at DESC`)
}

func (r *Repo) GetById(ctx context.Context, id PostId) (*Post, error) {
	posts, err := r.query(ctx, selectPosts+` WHERE p.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, fmt.Errorf("post/repo: post %d: %w", id, common.ErrNotFound)
	}
	return posts[0], nil
}

func (r *Repo) query(ctx context.Context, q string, args ...interface{}) ([]*Post, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, common.StoreErr("post/repo: failed querying posts", err)
	}
	defer rows.Close()

	posts := []*Post{}
	for rows.Next() {
		p := new(Post)
		err := rows.Scan(&p.Id, &p.Community, &p.Author, &p.Created, &p.Title, &p.Content, &p.Tag, &p.Score, &p.Comments)
		if err != nil {
			return nil, common.StoreErr("post/repo: could not scan row", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StoreErr("post/repo: failed iterating rows", err)
	}
	return posts, nil
}

// RecordUpvote toggles or replaces the upvote of userId on postId.
// It reports whether a vote is present afterwards.
func (r *Repo) RecordUpvote(ctx context.Context, postId PostId, userId string) (bool, error) {
	return r.record(ctx, postId, userId, voting.ScoreUp)
}

// RecordDownvote toggles or replaces the downvote of userId on postId.
func (r *Repo) RecordDownvote(ctx context.Context, postId PostId, userId string) (bool, error) {
	return r.record(ctx, postId, userId, voting.ScoreDown)
}

// record applies one state machine transition in a single transaction. The
// post row is locked first so votes on one post, including a first vote with
// no row to lock yet, run one after another. The vote row is then inserted,
// deleted or replaced in place and the score moves by the transition delta.
func (r *Repo) record(ctx context.Context, postId PostId, userId string, vote voting.Direction) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, common.StoreErr("post/repo: failed starting vote transaction", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = $1 FOR UPDATE`, postId).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("post/repo: post %d: %w", postId, common.ErrNotFound)
	}
	if err != nil {
		return false, common.StoreErr("post/repo: failed looking up post", err)
	}

	prev := voting.ScoreDiscard
	err = tx.QueryRowContext(ctx,
		`SELECT direction FROM votes WHERE post_id = $1 AND user_id = $2 FOR UPDATE`, postId, userId).
		Scan(&prev)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, common.StoreErr("post/repo: failed reading vote", err)
	}

	next, delta := voting.Transition(prev, vote)
	switch {
	case prev == voting.ScoreDiscard:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO votes (post_id, user_id, direction) VALUES ($1, $2, $3)`, postId, userId, next)
	case next == voting.ScoreDiscard:
		_, err = tx.ExecContext(ctx,
			`DELETE FROM votes WHERE post_id = $1 AND user_id = $2`, postId, userId)
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE votes SET direction = $3 WHERE post_id = $1 AND user_id = $2`, postId, userId, next)
	}
	if err != nil {
		return false, common.StoreErr("post/repo: failed writing vote", err)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE posts SET score = score + $1 WHERE id = $2`, delta, postId); err != nil {
		return false, common.StoreErr("post/repo: failed updating score", err)
	}

	if err := tx.Commit(); err != nil {
		return false, common.StoreErr("post/repo: failed committing vote", err)
	}
	return next != voting.ScoreDiscard, nil
}

// CurrentVote returns -1, 0 or 1.
func (r *Repo) CurrentVote(ctx context.Context, postId PostId, userId string) (voting.VotingScore, error) {
	score := voting.ScoreDiscard
	err := r.db.QueryRowContext(ctx,
		`SELECT direction FROM votes WHERE post_id = $1 AND user_id = $2`, postId, userId).Scan(&score)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return voting.ScoreDiscard, common.StoreErr("post/repo: failed reading vote", err)
	}
	return score, nil
}

// VoteCount is the committed vote sum of a post.
func (r *Repo) VoteCount(ctx context.Context, postId PostId) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(direction), 0) FROM votes WHERE post_id = $1`, postId).Scan(&count)
	if err != nil {
		return 0, common.StoreErr("post/repo: failed counting votes", err)
	}
	return count, nil
}

func (r *Repo) ListCommunities(ctx context.Context) ([]*Community, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM communities ORDER BY name`)
	if err != nil {
		return nil, common.StoreErr("post/repo: failed querying communities", err)
	}
	defer rows.Close()

	communities := []*Community{}
	for rows.Next() {
		c := new(Community)
		if err := rows.Scan(&c.Id, &c.Name); err != nil {
			return nil, common.StoreErr("post/repo: could not scan row", err)
		}
		communities = append(communities, c)
	}
	return communities, nil
}

func (r *Repo) ListTags(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT tag FROM posts WHERE tag IS NOT NULL AND tag <> '' ORDER BY tag`)
	if err != nil {
		return nil, common.StoreErr("post/repo: failed querying tags", err)
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, common.StoreErr("post/repo: could not scan row", err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func (r *Repo) AddCommunity(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO communities (name) VALUES ($1) ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name RETURNING id`,
		name).Scan(&id)
	if err != nil {
		return 0, common.StoreErr("post/repo: failed inserting community", err)
	}
	return id, nil
}

func (r *Repo) JoinCommunities(ctx context.Context, userId string, communityIds []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.StoreErr("post/repo: failed starting join transaction", err)
	}
	defer tx.Rollback()

	for _, id := range communityIds {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO memberships (community_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, userId)
		if err != nil {
			return common.StoreErr("post/repo: failed joining community", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return common.StoreErr("post/repo: failed committing memberships", err)
	}
	return nil
}

// Add inserts a post into the community named p.Community and sets p.Id.
func (r *Repo) Add(ctx context.Context, p *Post) (PostId, error) {
	var tag interface{}
	if p.Tag != "" {
		tag = p.Tag
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO posts (community_id, author, created_at, title, content, tag)
		SELECT id, $2, $3, $4, $5, $6 FROM communities WHERE name = $1 RETURNING id`,
		p.Community, p.Author, p.Created, p.Title, p.Content, tag).Scan(&p.Id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("post/repo: community %q: %w", p.Community, common.ErrNotFound)
	}
	if err != nil {
		return 0, common.StoreErr("post/repo: failed inserting a post", err)
	}
	return p.Id, nil
}

func (r *Repo) IncCommentCount(ctx context.Context, id PostId) error {
	res, err := r.db.ExecContext(ctx, `UPDATE posts SET comment_count = comment_count + 1 WHERE id = $1`, id)
	if err != nil {
		return common.StoreErr("post/repo: failed updating comment count", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("post/repo: post %d: %w", id, common.ErrNotFound)
	}
	return nil
}
