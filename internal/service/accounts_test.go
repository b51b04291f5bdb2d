package service_test

import (
	"context"
	"testing"
	"time"

	"collabolab/internal/auth"
	"collabolab/internal/model"
	"collabolab/internal/push"
	"collabolab/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserAndLogin(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	id, err := h.accounts.CreateUser(ctx, service.SignUp{Name: "Ann", Email: "Ann@Example.com", Password: "pw123456", Phone: "555"})
	require.NoError(t, err)

	identity, ok := h.store.Identity(id)
	require.True(t, ok)
	assert.NotEqual(t, "pw123456", identity.HashedPassword)
	u, ok := h.store.User(id)
	require.True(t, ok)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.Empty(t, u.Projects)

	token, uid, err := h.accounts.Login(ctx, "ann@example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, id, uid)

	parsed, err := auth.NewTokenManager("test-secret", time.Hour).Parse(token)
	require.NoError(t, err)
	assert.Equal(t, id.String(), parsed)

	_, _, err = h.accounts.Login(ctx, "ann@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, _, err = h.accounts.Login(ctx, "nobody@example.com", "pw123456")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	in := service.SignUp{Name: "Ann", Email: "ann@example.com", Password: "pw"}

	_, err := h.accounts.CreateUser(ctx, in)
	require.NoError(t, err)

	in.Email = "ANN@example.com"
	_, err = h.accounts.CreateUser(ctx, in)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)
	assert.Len(t, h.store.AllUsers(), 1)
}

func TestCreateUser_MissingFields(t *testing.T) {
	h := newHarness(t, false)

	_, err := h.accounts.CreateUser(context.Background(), service.SignUp{Email: "a@b.c"})

	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestSearchUsers_ExcludesMembers(t *testing.T) {
	h := newHarness(t, false)
	ann, bob := h.user(t, "ann"), h.user(t, "bobby")
	h.user(t, "annabel")
	alpha := h.project(t, ann, "Alpha")
	h.join(t, alpha.ID, bob)

	users, err := h.accounts.SearchUsers(context.Background(), "ANN", alpha.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "annabel", users[0].Name)

	users, err = h.accounts.SearchUsers(context.Background(), "example.com", uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestRegisterDevice_ResubscribesProjects(t *testing.T) {
	h := newHarness(t, false)
	ann := h.user(t, "ann")
	alpha := h.project(t, ann, "Alpha")
	beta := h.project(t, ann, "Beta")

	require.NoError(t, h.accounts.RegisterDevice(context.Background(), ann.ID, "new-token"))

	for _, p := range []*model.Project{alpha, beta} {
		assert.True(t, h.pusher.Subscribed("new-token", p.Topic()))
		assert.False(t, h.pusher.Subscribed("token-ann", p.Topic()))
	}
	u, _ := h.store.User(ann.ID)
	assert.Equal(t, "new-token", u.DeviceToken)
}

func TestNotifyUser_PushFailureStillRecords(t *testing.T) {
	h := newHarness(t, false)
	ann := h.user(t, "ann")
	h.pusher.SendErr = assert.AnError

	err := h.notifier.NotifyUser(context.Background(), ann.ID, service.Notification{Title: "Hi", Description: "there"})

	require.NoError(t, err)
	assert.Equal(t, []string{"Hi"}, titles(h.store.UpdatesFor(ann.ID)))
}

func TestNotifyUser_OfflineDeviceStillRecords(t *testing.T) {
	h := newHarness(t, false)
	ann := h.user(t, "ann")
	h.pusher.SendErr = push.ErrNotConnected

	require.NoError(t, h.notifier.NotifyUser(context.Background(), ann.ID, service.Notification{Title: "Hi"}))
	assert.Len(t, h.store.UpdatesFor(ann.ID), 1)
}

func TestNotifyUser_NoTokenSkipsPush(t *testing.T) {
	h := newHarness(t, false)
	u := model.User{ID: uuid.New(), Name: "quiet", Email: "quiet@example.com"}
	h.store.PutUser(u)

	require.NoError(t, h.notifier.NotifyUser(context.Background(), u.ID, service.Notification{Title: "Hi"}))

	assert.Empty(t, h.pusher.SentTo(""))
	assert.Len(t, h.store.UpdatesFor(u.ID), 1)
}

func TestNotifyUser_PersistFailureReturned(t *testing.T) {
	h := newHarness(t, false)
	ann := h.user(t, "ann")
	h.store.FailOn("updates.append", assert.AnError)

	err := h.notifier.NotifyUser(context.Background(), ann.ID, service.Notification{Title: "Hi"})

	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, h.pusher.SentTo("token-ann"), 1)
}

func TestNotifyUser_UnknownUser(t *testing.T) {
	h := newHarness(t, false)

	err := h.notifier.NotifyUser(context.Background(), uuid.New(), service.Notification{Title: "Hi"})

	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestListUpdates_NewestFirst(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	ann := h.user(t, "ann")
	require.NoError(t, h.notifier.NotifyUser(ctx, ann.ID, service.Notification{Title: "first"}))
	require.NoError(t, h.notifier.NotifyUser(ctx, ann.ID, service.Notification{Title: "second"}))

	updates, err := h.accounts.ListUpdates(ctx, ann.ID)

	require.NoError(t, err)
	assert.Equal(t, []string{"second", "first"}, titles(updates))
}

func TestPostUserMessage(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	ann, outsider := h.user(t, "ann"), h.user(t, "out")
	alpha := h.project(t, ann, "Alpha")

	_, err := h.messenger.PostUserMessage(ctx, alpha.ID, outsider.ID, "out", "hi")
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	msg, err := h.messenger.PostUserMessage(ctx, alpha.ID, ann.ID, "", "hello")
	require.NoError(t, err)
	assert.Equal(t, "ann", msg.From)
	assert.False(t, msg.IsSystem())

	broadcasts := h.pusher.Broadcasts(alpha.Topic())
	require.Len(t, broadcasts, 1)
	assert.Equal(t, "New message in Alpha", broadcasts[0].Title)
	assert.Equal(t, "ann sent a new message", broadcasts[0].Body)

	msgs, err := h.messenger.ListMessages(ctx, alpha.ID, ann.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)

	_, err = h.messenger.ListMessages(ctx, alpha.ID, outsider.ID, 0)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

func TestSystemMessagesAreNotPushed(t *testing.T) {
	h := newHarness(t, false)
	ann := h.user(t, "ann")
	alpha := h.project(t, ann, "Alpha")

	require.NoError(t, h.messenger.PostSystemMessage(context.Background(), alpha.ID, "maintenance"))

	assert.Empty(t, h.pusher.Broadcasts(alpha.Topic()))
	assert.Equal(t, []string{"maintenance"}, h.store.ChatTexts(alpha.ID))
}

func TestVerifyDevice(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	ann, bob := h.user(t, "ann"), h.user(t, "bob")

	assert.NoError(t, h.accounts.VerifyDevice(ctx, ann.ID, "token-ann"))
	assert.ErrorIs(t, h.accounts.VerifyDevice(ctx, ann.ID, "token-bob"), service.ErrUnauthorized)
	assert.ErrorIs(t, h.accounts.VerifyDevice(ctx, bob.ID, ""), service.ErrInvalidInput)
	assert.ErrorIs(t, h.accounts.VerifyDevice(ctx, uuid.New(), "token-ann"), service.ErrNotFound)
}
