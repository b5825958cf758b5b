package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoArmGo/BlogApp/internal/auth"
	"github.com/GoArmGo/BlogApp/internal/database/memstore"
	"github.com/GoArmGo/BlogApp/internal/domain"
	"github.com/GoArmGo/BlogApp/internal/logger"
	"github.com/GoArmGo/BlogApp/internal/messaging/payloads"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type postFixture struct {
	uc       PostUseCase
	store    *memstore.Store
	files    *memstore.Files
	queue    *memstore.Queue
	alice    auth.Identity
	bob      auth.Identity
	category uuid.UUID
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	ctx := context.Background()
	f := &postFixture{
		store: memstore.New(),
		files: memstore.NewFiles(),
		queue: &memstore.Queue{},
	}
	f.uc = NewPostUseCase(f.store, f.files, f.queue, 1024, logger.Discard())
	f.alice = addUser(t, f.store, "alice")
	f.bob = addUser(t, f.store, "bob")

	f.category = uuid.New()
	require.NoError(t, f.store.CreateCategory(ctx, &domain.Category{ID: f.category, Name: "Go", CreatedAt: time.Now()}))
	return f
}

func addUser(t *testing.T, store *memstore.Store, name string) auth.Identity {
	t.Helper()
	u := &domain.User{ID: uuid.New(), Username: name, PasswordHash: "x", CreatedAt: time.Now()}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return auth.Identity{UserID: u.ID, Username: name}
}

func (f *postFixture) createPost(t *testing.T, author auth.Identity, title string) *domain.Post {
	t.Helper()
	post, err := f.uc.CreatePost(context.Background(), author, CreatePostInput{
		Title:    title,
		Content:  "body of " + title,
		Category: f.category.String(),
	})
	require.NoError(t, err)
	return post
}

func pngUpload() *ImageUpload {
	return &ImageUpload{Reader: bytes.NewReader(pngHeader), Size: int64(len(pngHeader)), Filename: "a.png"}
}

func strPtr(s string) *string { return &s }

func TestCreateThenGetJoinsAuthorAndCategory(t *testing.T) {
	f := newPostFixture(t)

	created := f.createPost(t, f.alice, "Hi")
	assert.Equal(t, f.alice.UserID, created.AuthorID)

	got, err := f.uc.GetPost(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hi", got.Title)
	assert.Equal(t, f.alice.UserID, got.AuthorID)
	require.NotNil(t, got.Author)
	assert.Equal(t, "alice", got.Author.Username)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Go", got.Category.Name)
	assert.Nil(t, got.Image)
}

func TestCreateWithUnknownCategoryLeavesJoinEmpty(t *testing.T) {
	f := newPostFixture(t)

	post, err := f.uc.CreatePost(context.Background(), f.alice, CreatePostInput{
		Title: "t", Content: "c", Category: uuid.NewString(),
	})
	require.NoError(t, err)
	assert.Nil(t, post.Category)
	require.NotNil(t, post.Author)
}

func TestCreatePostValidation(t *testing.T) {
	f := newPostFixture(t)

	_, err := f.uc.CreatePost(context.Background(), f.alice, CreatePostInput{Title: " ", Content: "", Category: "nope"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	fields := map[string]string{}
	for _, fe := range verr.Fields {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "is required", fields["title"])
	assert.Equal(t, "is required", fields["content"])
	assert.Equal(t, "must be a valid id", fields["category"])

	count, err := f.store.CountPosts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreatePostStoresImage(t *testing.T) {
	f := newPostFixture(t)

	post, err := f.uc.CreatePost(context.Background(), f.alice, CreatePostInput{
		Title: "pic", Content: "c", Category: f.category.String(), Image: pngUpload(),
	})
	require.NoError(t, err)
	require.NotNil(t, post.Image)
	assert.True(t, strings.HasSuffix(*post.Image, ".png"))

	obj, ok := f.files.Get(*post.Image)
	require.True(t, ok)
	assert.Equal(t, "image/png", obj.ContentType)
	assert.Equal(t, pngHeader, obj.Data)

	rc, err := f.uc.OpenImage(context.Background(), *post.Image)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestCreatePostRejectsBadImages(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	text := []byte("just some text")
	_, err := f.uc.CreatePost(ctx, f.alice, CreatePostInput{
		Title: "t", Content: "c", Category: f.category.String(),
		Image: &ImageUpload{Reader: bytes.NewReader(text), Size: int64(len(text))},
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.CreatePost(ctx, f.alice, CreatePostInput{
		Title: "t", Content: "c", Category: f.category.String(),
		Image: &ImageUpload{Reader: bytes.NewReader(pngHeader), Size: 4096},
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`)
	_, err = f.uc.CreatePost(ctx, f.alice, CreatePostInput{
		Title: "t", Content: "c", Category: f.category.String(),
		Image: &ImageUpload{Reader: bytes.NewReader(svg), Size: int64(len(svg))},
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	assert.Zero(t, f.files.Len())
}

func TestUpdatePostAuthorization(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice, "Hi")

	_, err := f.uc.UpdatePost(ctx, post.ID, f.bob, UpdatePostInput{Title: strPtr("hacked")})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.UpdatePost(ctx, uuid.New(), f.alice, UpdatePostInput{Title: strPtr("x")})
	require.ErrorIs(t, err, domain.ErrNotFound)

	got, err := f.uc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hi", got.Title)
}

func TestUpdatePostNotFoundBeforeForbiddenBeforeValidation(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice, "Hi")

	_, err := f.uc.UpdatePost(ctx, uuid.New(), f.bob, UpdatePostInput{Title: strPtr("")})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.UpdatePost(ctx, post.ID, f.bob, UpdatePostInput{Title: strPtr("")})
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.uc.UpdatePost(ctx, post.ID, f.alice, UpdatePostInput{Title: strPtr(""), Content: strPtr("  ")})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdatePostAppliesOnlyPresentFields(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice, "Hi")

	updated, err := f.uc.UpdatePost(ctx, post.ID, f.alice, UpdatePostInput{Content: strPtr("new body")})
	require.NoError(t, err)
	assert.Equal(t, "Hi", updated.Title)
	assert.Equal(t, "new body", updated.Content)
	assert.Equal(t, f.category, updated.CategoryID)
	assert.Equal(t, f.alice.UserID, updated.AuthorID)

	same, err := f.uc.UpdatePost(ctx, post.ID, f.alice, UpdatePostInput{})
	require.NoError(t, err)
	assert.Equal(t, "new body", same.Content)
}

func TestUpdatePostReplacingImageQueuesCleanup(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.uc.CreatePost(ctx, f.alice, CreatePostInput{
		Title: "pic", Content: "c", Category: f.category.String(), Image: pngUpload(),
	})
	require.NoError(t, err)
	oldKey := *post.Image

	updated, err := f.uc.UpdatePost(ctx, post.ID, f.alice, UpdatePostInput{Image: pngUpload()})
	require.NoError(t, err)
	require.NotNil(t, updated.Image)
	assert.NotEqual(t, oldKey, *updated.Image)

	published := f.queue.Published()
	require.Len(t, published, 1)
	assert.Equal(t, payloads.ImageCleanupPayload{
		ObjectKey: oldKey, PostID: post.ID.String(), Reason: payloads.ReasonImageReplaced,
	}, published[0])
}

func TestDeletePost(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	post, err := f.uc.CreatePost(ctx, f.alice, CreatePostInput{
		Title: "pic", Content: "c", Category: f.category.String(), Image: pngUpload(),
	})
	require.NoError(t, err)
	_, err = f.uc.AddComment(ctx, post.ID, f.bob, CommentInput{Content: "nice"})
	require.NoError(t, err)

	err = f.uc.DeletePost(ctx, post.ID, f.bob)
	require.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.uc.DeletePost(ctx, post.ID, f.alice))

	_, err = f.uc.GetPost(ctx, post.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.ListComments(ctx, post.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	err = f.uc.DeletePost(ctx, post.ID, f.alice)
	require.ErrorIs(t, err, domain.ErrNotFound)

	published := f.queue.Published()
	require.Len(t, published, 1)
	assert.Equal(t, payloads.ReasonPostDeleted, published[0].Reason)
	assert.Equal(t, *post.Image, published[0].ObjectKey)

	require.NoError(t, f.uc.PurgeImage(ctx, published[0]))
	assert.Zero(t, f.files.Len())
}

func TestDeletePostSurvivesQueueFailure(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	f.queue.FailPublish = errors.New("broker down")

	post, err := f.uc.CreatePost(ctx, f.alice, CreatePostInput{
		Title: "pic", Content: "c", Category: f.category.String(), Image: pngUpload(),
	})
	require.NoError(t, err)
	require.NoError(t, f.uc.DeletePost(ctx, post.ID, f.alice))
}

func TestComments(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice, "Hi")

	_, err := f.uc.AddComment(ctx, uuid.New(), f.bob, CommentInput{Content: "hello"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.uc.AddComment(ctx, post.ID, f.bob, CommentInput{Content: "   "})
	require.ErrorIs(t, err, domain.ErrValidation)

	first, err := f.uc.AddComment(ctx, post.ID, f.bob, CommentInput{Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, f.bob.UserID, first.AuthorID)
	_, err = f.uc.AddComment(ctx, post.ID, f.alice, CommentInput{Content: "second"})
	require.NoError(t, err)

	comments, err := f.uc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)
	require.NotNil(t, comments[0].Author)
	assert.Equal(t, "bob", comments[0].Author.Username)

	got, err := f.uc.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CommentCount)
}

func TestConcurrentCommentsAreAllKept(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()
	post := f.createPost(t, f.alice, "Hi")

	const n = 50
	authors := make([]auth.Identity, n)
	for i := range authors {
		authors[i] = addUser(t, f.store, fmt.Sprintf("user%d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.uc.AddComment(ctx, post.ID, authors[i], CommentInput{Content: fmt.Sprintf("c%d", i)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	comments, err := f.uc.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, n)

	seen := map[string]bool{}
	for i, c := range comments {
		seen[c.Content] = true
		if i > 0 {
			assert.Less(t, comments[i-1].Seq, c.Seq)
		}
	}
	assert.Len(t, seen, n)
}

func TestListPostsPagination(t *testing.T) {
	f := newPostFixture(t)
	ctx := context.Background()

	const total = 23
	for i := 0; i < total; i++ {
		f.createPost(t, f.alice, fmt.Sprintf("post %02d", i))
	}

	for _, limit := range []int{1, 5, 10, 23, 50} {
		seen := map[uuid.UUID]bool{}
		var titles []string
		pages := (total + limit - 1) / limit
		for page := 1; page <= pages+1; page++ {
			res, err := f.uc.ListPosts(ctx, page, limit)
			require.NoError(t, err)
			assert.EqualValues(t, total, res.Total)
			assert.Equal(t, pages, res.Pages)
			assert.LessOrEqual(t, len(res.Posts), limit)
			if page > pages {
				assert.Empty(t, res.Posts)
			}
			for _, p := range res.Posts {
				assert.False(t, seen[p.ID], "post repeated across pages")
				seen[p.ID] = true
				titles = append(titles, p.Title)
			}
		}
		assert.Len(t, seen, total, "limit=%d", limit)
		assert.Equal(t, "post 00", titles[0])
		assert.Equal(t, fmt.Sprintf("post %02d", total-1), titles[total-1])
	}

	_, err := f.uc.ListPosts(ctx, 0, 10)
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.uc.ListPosts(ctx, 1, 0)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestOpenImageRejectsForeignKeys(t *testing.T) {
	f := newPostFixture(t)

	_, err := f.uc.OpenImage(context.Background(), "../etc/passwd")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.uc.OpenImage(context.Background(), uuid.NewString()+".png")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
