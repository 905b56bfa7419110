package main

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jaswdr/faker"

	. "forum/pkg/common"
	"forum/pkg/logger"
	"forum/pkg/post"
	"forum/pkg/reply"
	"forum/pkg/user"
)

var (
	f             = faker.New()
	onePassForAll = HashPass("sdfsdfsdf", RandStringRunes(8)) // salt must have len of 8
	communities   = []string{"Programming", "Music", "Movies", "Books", "News", "Fashion"}
	tags          = []string{"question", "discussion", "showcase", "help", ""}
)

type (
	IUserRepo interface {
		Add(context.Context, *user.User) (string, error)
		GetAll(context.Context) ([]*user.User, error)
	}
	ISeedPostRepo interface {
		AddCommunity(context.Context, string) (int64, error)
		JoinCommunities(context.Context, string, []int64) error
		Add(context.Context, *post.Post) (post.PostId, error)
		RecordUpvote(context.Context, post.PostId, string) (bool, error)
		RecordDownvote(context.Context, post.PostId, string) (bool, error)
		IncCommentCount(context.Context, post.PostId) error
	}
	IReplyRepo interface {
		AddReply(ctx context.Context, postID int64, parent int, author, body string) (int, *reply.Thread, error)
		Count(ctx context.Context) (int64, error)
	}
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

// seed fills an empty database. It does nothing when users already exist.
func seed(ctx context.Context, userRepo IUserRepo, postRepo ISeedPostRepo, replyRepo IReplyRepo) {
	log := logger.Log(ctx)

	authors, err := userRepo.GetAll(ctx)
	if err != nil {
		log.Fatalf("seed: can't get all authors: %v", err)
	}
	if len(authors) > 0 {
		log.Infof("seed: %d users found, skipping", len(authors))
		return
	}

	// Threads are keyed by post id, leftovers from an earlier database
	// would collide with the new posts.
	threads, err := replyRepo.Count(ctx)
	if err != nil {
		log.Fatalf("seed: can't count threads: %v", err)
	}

	communityIds := make([]int64, 0, len(communities))
	for _, name := range communities {
		id, err := postRepo.AddCommunity(ctx, name)
		if err != nil {
			log.Fatalf("seed: can't add community %q: %v", name, err)
		}
		communityIds = append(communityIds, id)
	}

	authors = createAuthors(ctx, userRepo)
	for _, a := range authors {
		if err := postRepo.JoinCommunities(ctx, a.Id, pickCommunities(communityIds)); err != nil {
			log.Fatalf("seed: can't join communities for %s: %v", a.Username, err)
		}
	}

	for i := 0; i < 30; i++ {
		p := genPost(authors)
		if _, err := postRepo.Add(ctx, p); err != nil {
			log.Fatalf("seed: can't add post: %v", err)
		}
		genVotes(ctx, postRepo, p.Id, authors)
		if threads == 0 {
			genReplies(ctx, replyRepo, postRepo, p.Id, authors)
		}
	}
	log.Infof("seed: added %d users and 30 posts", len(authors))
}

func createAuthors(ctx context.Context, userRepo IUserRepo) []*user.User {
	// User for experiments (not random)
	users := []*user.User{{
		Username: "pike",
		Email:    "pike@example.com",
		Password: onePassForAll,
	}}
	for i := 1; i <= 5; i++ {
		users = append(users, genUser(i))
	}

	for _, u := range users {
		id, err := userRepo.Add(ctx, u)
		if err != nil {
			logger.Log(ctx).Fatalf("seed: can't add user %s: %v", u.Username, err)
		}
		u.Id = id
	}
	return users
}

func genUser(n int) *user.User {
	// The suffix keeps usernames and emails unique when faker repeats a name.
	username := fmt.Sprintf("%s%d", strings.ToLower(f.Person().FirstName()), n)
	return &user.User{
		Username: username,
		Email:    username + "@" + f.Internet().Domain(),
		Password: onePassForAll,
	}
}

func pickCommunities(ids []int64) []int64 {
	picked := []int64{}
	for _, id := range ids {
		if rand.Intn(2) == 0 {
			picked = append(picked, id)
		}
	}
	return picked
}

func genTitle() string {
	return strings.Join(f.Lorem().Words(rand.Intn(5)+3), " ")
}

func genText() string {
	return f.Lorem().Paragraph(rand.Intn(3) + 2)
}

func genPost(users []*user.User) *post.Post {
	return &post.Post{
		Community: communities[rand.Intn(len(communities))],
		Author:    randUser(users).Username,
		Created:   f.Time().Time(time.Now()),
		Title:     genTitle(),
		Content:   genText(),
		Tag:       tags[rand.Intn(len(tags))],
	}
}

func genVotes(ctx context.Context, postRepo ISeedPostRepo, id post.PostId, users []*user.User) {
	for _, u := range users {
		var err error
		switch rand.Intn(3) {
		case 0:
			_, err = postRepo.RecordUpvote(ctx, id, u.Id)
		case 1:
			_, err = postRepo.RecordDownvote(ctx, id, u.Id)
		}
		if err != nil {
			logger.Log(ctx).Fatalf("seed: can't vote on post %d: %v", id, err)
		}
	}
}

func genReplies(ctx context.Context, replyRepo IReplyRepo, postRepo ISeedPostRepo, id post.PostId, users []*user.User) {
	n := rand.Intn(6)
	for i := 0; i < n; i++ {
		// Either a new root or an answer to an earlier reply.
		parent := reply.NoParent
		if i > 0 && rand.Intn(2) == 0 {
			parent = rand.Intn(i)
		}
		if _, _, err := replyRepo.AddReply(ctx, int64(id), parent, randUser(users).Username, genText()); err != nil {
			logger.Log(ctx).Fatalf("seed: can't add reply to post %d: %v", id, err)
		}
		if err := postRepo.IncCommentCount(ctx, id); err != nil {
			logger.Log(ctx).Fatalf("seed: can't count reply on post %d: %v", id, err)
		}
	}
}

func randUser(users []*user.User) *user.User {
	idx := rand.Intn(len(users))
	return users[idx]
}
