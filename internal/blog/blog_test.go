package blog

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"socialnet/internal/models"
	"socialnet/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	posts    map[uuid.UUID]models.Post
	comments map[uuid.UUID]models.Comment
	likes    map[string]bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		posts:    make(map[uuid.UUID]models.Post),
		comments: make(map[uuid.UUID]models.Comment),
		likes:    make(map[string]bool),
	}
}

func likeKey(userID, postID uuid.UUID) string {
	return userID.String() + ":" + postID.String()
}

func (f *fakeStorage) SavePost(_ context.Context, post *models.Post) (uuid.UUID, error) {
	id := uuid.New()
	post.ID = id
	f.posts[id] = *post
	return id, nil
}

func (f *fakeStorage) PostByID(_ context.Context, id uuid.UUID) (models.Post, error) {
	p, ok := f.posts[id]
	if !ok || p.IsDeleted {
		return models.Post{}, storage.ErrPostNotFound
	}
	return p, nil
}

func (f *fakeStorage) ListPosts(_ context.Context, limit, offset int) ([]models.Post, error) {
	var out []models.Post
	for _, p := range f.posts {
		if !p.IsDeleted && !p.IsExpired() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStorage) UpdatePost(_ context.Context, id uuid.UUID, title, content string) error {
	p, ok := f.posts[id]
	if !ok {
		return storage.ErrPostNotFound
	}
	p.Title = title
	p.Content = content
	f.posts[id] = p
	return nil
}

func (f *fakeStorage) SoftDeletePost(_ context.Context, id uuid.UUID) error {
	p, ok := f.posts[id]
	if !ok {
		return storage.ErrPostNotFound
	}
	p.IsDeleted = true
	f.posts[id] = p
	return nil
}

func (f *fakeStorage) SaveComment(_ context.Context, comment *models.Comment) (uuid.UUID, error) {
	id := uuid.New()
	comment.ID = id
	f.comments[id] = *comment
	return id, nil
}

func (f *fakeStorage) CommentByID(_ context.Context, id uuid.UUID) (models.Comment, error) {
	c, ok := f.comments[id]
	if !ok || c.IsDeleted {
		return models.Comment{}, storage.ErrCommentNotFound
	}
	return c, nil
}

func (f *fakeStorage) CommentsByPost(_ context.Context, postID uuid.UUID) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range f.comments {
		if c.PostID == postID && !c.IsDeleted {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStorage) SoftDeleteComment(_ context.Context, id uuid.UUID) error {
	c, ok := f.comments[id]
	if !ok {
		return storage.ErrCommentNotFound
	}
	c.IsDeleted = true
	f.comments[id] = c
	return nil
}

func (f *fakeStorage) SoftDeleteCommentsByPost(_ context.Context, postID uuid.UUID) (int64, error) {
	var n int64
	for id, c := range f.comments {
		if c.PostID == postID && !c.IsDeleted {
			c.IsDeleted = true
			f.comments[id] = c
			n++
		}
	}
	return n, nil
}

func (f *fakeStorage) HasLike(_ context.Context, userID, postID uuid.UUID) (bool, error) {
	return f.likes[likeKey(userID, postID)], nil
}

func (f *fakeStorage) AddLike(_ context.Context, userID, postID uuid.UUID) error {
	f.likes[likeKey(userID, postID)] = true
	return nil
}

func (f *fakeStorage) RemoveLike(_ context.Context, userID, postID uuid.UUID) error {
	delete(f.likes, likeKey(userID, postID))
	return nil
}

type fakeVerifications struct {
	verified map[uuid.UUID]bool
}

func (f *fakeVerifications) VerificationByUser(_ context.Context, userID uuid.UUID) (models.EmailVerification, error) {
	verified, ok := f.verified[userID]
	if !ok {
		return models.EmailVerification{}, storage.ErrVerificationNotFound
	}
	return models.EmailVerification{UserID: userID, IsVerified: verified}, nil
}

func newTestService(store *fakeStorage, verified ...uuid.UUID) *Service {
	v := &fakeVerifications{verified: make(map[uuid.UUID]bool)}
	for _, id := range verified {
		v.verified[id] = true
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(log, store, v)
}

func TestCreatePost_RequiresVerifiedEmail(t *testing.T) {
	store := newFakeStorage()
	author := models.User{ID: uuid.New()}

	svc := newTestService(store)

	_, err := svc.CreatePost(context.Background(), author, "Title", "Content", nil)
	assert.ErrorIs(t, err, ErrNotVerified)

	svc = newTestService(store, author.ID)

	post, err := svc.CreatePost(context.Background(), author, "Title", "Content", nil)
	require.NoError(t, err)
	assert.Equal(t, author.ID, post.UserID)
}

func TestGetPost_Expired(t *testing.T) {
	store := newFakeStorage()
	author := models.User{ID: uuid.New()}
	svc := newTestService(store, author.ID)

	past := time.Now().Add(-time.Hour)
	post, err := svc.CreatePost(context.Background(), author, "Title", "Content", &past)
	require.NoError(t, err)

	_, err = svc.GetPost(context.Background(), post.ID)
	assert.ErrorIs(t, err, ErrPostGone)
}

func TestGetPost_NotFound(t *testing.T) {
	svc := newTestService(newFakeStorage())

	_, err := svc.GetPost(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestUpdatePost_OwnerOnly(t *testing.T) {
	store := newFakeStorage()
	owner := models.User{ID: uuid.New()}
	stranger := models.User{ID: uuid.New()}
	svc := newTestService(store, owner.ID)

	post, err := svc.CreatePost(context.Background(), owner, "Title", "Content", nil)
	require.NoError(t, err)

	_, err = svc.UpdatePost(context.Background(), stranger, post.ID, "New", "New")
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.UpdatePost(context.Background(), owner, post.ID, "New", "New")
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Title)
}

func TestDeletePost_OwnerOnly(t *testing.T) {
	store := newFakeStorage()
	owner := models.User{ID: uuid.New()}
	stranger := models.User{ID: uuid.New()}
	svc := newTestService(store, owner.ID)

	post, err := svc.CreatePost(context.Background(), owner, "Title", "Content", nil)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeletePost(context.Background(), stranger, post.ID), ErrForbidden)
	require.NoError(t, svc.DeletePost(context.Background(), owner, post.ID))

	_, err = svc.GetPost(context.Background(), post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeleteComment_Permissions(t *testing.T) {
	store := newFakeStorage()
	owner := models.User{ID: uuid.New()}
	commenter := models.User{ID: uuid.New()}
	stranger := models.User{ID: uuid.New()}
	svc := newTestService(store, owner.ID)

	ctx := context.Background()

	post, err := svc.CreatePost(ctx, owner, "Title", "Content", nil)
	require.NoError(t, err)

	first, err := svc.CreateComment(ctx, commenter, post.ID, "first")
	require.NoError(t, err)
	second, err := svc.CreateComment(ctx, commenter, post.ID, "second")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteComment(ctx, stranger, post.ID, first.ID), ErrForbidden)

	// the comment author may delete their own comment
	require.NoError(t, svc.DeleteComment(ctx, commenter, post.ID, first.ID))

	// the post owner may delete anyone's comment
	require.NoError(t, svc.DeleteComment(ctx, owner, post.ID, second.ID))
}

func TestDeleteAllComments_OwnerOnly(t *testing.T) {
	store := newFakeStorage()
	owner := models.User{ID: uuid.New()}
	commenter := models.User{ID: uuid.New()}
	svc := newTestService(store, owner.ID)

	ctx := context.Background()

	post, err := svc.CreatePost(ctx, owner, "Title", "Content", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.CreateComment(ctx, commenter, post.ID, "comment")
		require.NoError(t, err)
	}

	_, err = svc.DeleteAllComments(ctx, commenter, post.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	deleted, err := svc.DeleteAllComments(ctx, owner, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	comments, err := svc.Comments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestToggleLike(t *testing.T) {
	store := newFakeStorage()
	owner := models.User{ID: uuid.New()}
	reader := models.User{ID: uuid.New()}
	svc := newTestService(store, owner.ID)

	ctx := context.Background()

	post, err := svc.CreatePost(ctx, owner, "Title", "Content", nil)
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, reader, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.CheckLike(ctx, reader, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.ToggleLike(ctx, reader, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}
