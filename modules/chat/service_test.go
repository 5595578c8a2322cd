package chat

import (
	"context"
	"testing"

	domain "github.com/example/realtime-chat/domain/chat"
	"github.com/example/realtime-chat/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&domain.Chat{}, &domain.Member{}, &domain.Message{}))
	return db
}

// fakeDirectory resolves a fixed set of users.
type fakeDirectory struct {
	users map[string]user.Profile
}

func newFakeDirectory(ids ...string) *fakeDirectory {
	d := &fakeDirectory{users: make(map[string]user.Profile)}
	for _, id := range ids {
		d.users[id] = user.Profile{ID: id, Name: "User " + id, Email: id + "@example.com", Pic: user.DefaultPic}
	}
	return d
}

func (d *fakeDirectory) GetUsers(_ context.Context, ids []string) ([]user.Profile, error) {
	seen := make(map[string]struct{})
	var out []user.Profile
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := d.users[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestService(t *testing.T, ids ...string) *ChatService {
	t.Helper()
	return NewChatService(NewChatRepository(setupTestDB(t)), newFakeDirectory(ids...))
}

func userIDs(view *domain.ChatView) []string {
	ids := make([]string, 0, len(view.Users))
	for _, u := range view.Users {
		ids = append(ids, u.ID)
	}
	return ids
}

func TestAccessChat(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "alice", "bob", "carol")

	first, err := svc.AccessChat(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, first.IsGroup)
	assert.Equal(t, domain.OneToOneChatName, first.Name)
	assert.Equal(t, []string{"alice", "bob"}, userIDs(first))
	assert.Nil(t, first.GroupAdmin)
	assert.Nil(t, first.LatestMessage)

	again, err := svc.AccessChat(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID, "repeated access must return the same chat")

	reversed, err := svc.AccessChat(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, reversed.ID, "either participant may initiate")

	other, err := svc.AccessChat(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestAccessChat_Errors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "alice")

	_, err := svc.AccessChat(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.AccessChat(ctx, "alice", "alice")
	assert.ErrorIs(t, err, ErrSelfChat)

	_, err = svc.AccessChat(ctx, "alice", "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAccessChat_IgnoresGroupWithSamePair(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "alice", "bob", "carol", "dave")

	group, err := svc.CreateGroup(ctx, "alice", "team", []string{"bob", "carol", "dave"})
	require.NoError(t, err)

	direct, err := svc.AccessChat(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.NotEqual(t, group.ID, direct.ID)
	assert.False(t, direct.IsGroup)
}

func TestCreateGroup(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "alice", "bob", "carol", "dave")

	tests := []struct {
		name    string
		title   string
		users   []string
		wantErr error
	}{
		{name: "missing name", title: "", users: []string{"bob", "carol", "dave"}, wantErr: ErrMissingFields},
		{name: "missing users", title: "team", users: nil, wantErr: ErrMissingFields},
		{name: "two invitees", title: "team", users: []string{"bob", "carol"}, wantErr: ErrGroupTooSmall},
		{name: "creator does not count", title: "team", users: []string{"alice", "bob", "carol"}, wantErr: ErrGroupTooSmall},
		{name: "duplicates do not count", title: "team", users: []string{"bob", "bob", "carol"}, wantErr: ErrGroupTooSmall},
		{name: "unknown invitee", title: "team", users: []string{"bob", "carol", "ghost"}, wantErr: ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateGroup(ctx, "alice", tt.title, tt.users)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	view, err := svc.CreateGroup(ctx, "alice", "team", []string{"bob", "carol", "dave"})
	require.NoError(t, err)
	assert.True(t, view.IsGroup)
	assert.Equal(t, "team", view.Name)
	assert.Equal(t, []string{"bob", "carol", "dave", "alice"}, userIDs(view))
	require.NotNil(t, view.GroupAdmin)
	assert.Equal(t, "alice", view.GroupAdmin.ID)
}

func TestRenameChat(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "alice", "bob", "carol", "dave", "eve")

	group, err := svc.CreateGroup(ctx, "alice", "team", []string{"bob", "carol", "dave"})
	require.NoError(t, err)

	renamed, err := svc.RenameChat(ctx, "bob", group.ID, "crew")
	require.NoError(t, err)
	assert.Equal(t, "crew", renamed.Name)
	assert.False(t, renamed.UpdatedAt.Before(group.UpdatedAt))

	_, err = svc.RenameChat(ctx, "eve", group.ID, "hijack")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.RenameChat(ctx, "alice", "missing", "crew")
	assert.ErrorIs(t, err, ErrChatNotFound)

	_, err = svc.RenameChat(ctx, "alice", group.ID, "   ")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestAddMember(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "alice", "bob", "carol", "dave", "eve")

	group, err := svc.CreateGroup(ctx, "alice", "team", []string{"bob", "carol", "dave"})
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, "bob", group.ID, "eve")
	assert.ErrorIs(t, err, ErrForbidden, "only the admin adds members")

	_, err = svc.AddMember(ctx, "alice", group.ID, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	view, err := svc.AddMember(ctx, "alice", group.ID, "eve")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol", "dave", "alice", "eve"}, userIDs(view))

	// Adding an existing member again keeps both rows.
	view, err = svc.AddMember(ctx, "alice", group.ID, "eve")
	require.NoError(t, err)
	assert.Len(t, view.Users, 6)

	direct, err := svc.AccessChat(ctx, "alice", "bob")
	require.NoError(t, err)
	_, err = svc.AddMember(ctx, "alice", direct.ID, "eve")
	assert.ErrorIs(t, err, ErrNotGroupChat)
}

func TestRemoveMember(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "alice", "bob", "carol", "dave")

	group, err := svc.CreateGroup(ctx, "alice", "team", []string{"bob", "carol", "dave"})
	require.NoError(t, err)

	_, err = svc.RemoveMember(ctx, "bob", group.ID, "carol")
	assert.ErrorIs(t, err, ErrForbidden, "a member cannot remove someone else")

	view, err := svc.RemoveMember(ctx, "bob", group.ID, "bob")
	require.NoError(t, err, "a member may leave")
	assert.Equal(t, []string{"carol", "dave", "alice"}, userIDs(view))

	view, err = svc.RemoveMember(ctx, "alice", group.ID, "carol")
	require.NoError(t, err, "the admin may remove anyone")
	assert.Equal(t, []string{"dave", "alice"}, userIDs(view))

	_, err = svc.RemoveMember(ctx, "alice", "missing", "dave")
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestSendMessage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "alice", "bob", "carol")

	direct, err := svc.AccessChat(ctx, "alice", "bob")
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, "alice", direct.ID, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, "alice", msg.Sender.ID)
	assert.Equal(t, "User alice", msg.Sender.Name)
	require.NotNil(t, msg.Chat)
	assert.Equal(t, direct.ID, msg.Chat.ID)
	assert.Equal(t, []string{"alice", "bob"}, userIDs(msg.Chat))

	chats, err := svc.ListChats(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, chats, 1)
	require.NotNil(t, chats[0].LatestMessage)
	assert.Equal(t, msg.ID, chats[0].LatestMessage.ID)
	assert.Equal(t, "alice", chats[0].LatestMessage.Sender.ID)

	_, err = svc.SendMessage(ctx, "carol", direct.ID, "intrusion")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SendMessage(ctx, "alice", direct.ID, "  ")
	assert.ErrorIs(t, err, ErrMissingFields)

	_, err = svc.SendMessage(ctx, "alice", "missing", "hello")
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestListChats_OrderedByActivity(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "alice", "bob", "carol")

	withBob, err := svc.AccessChat(ctx, "alice", "bob")
	require.NoError(t, err)
	withCarol, err := svc.AccessChat(ctx, "alice", "carol")
	require.NoError(t, err)

	chats, err := svc.ListChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, withCarol.ID, chats[0].ID)

	_, err = svc.SendMessage(ctx, "bob", withBob.ID, "ping")
	require.NoError(t, err)

	chats, err = svc.ListChats(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, chats, 2)
	assert.Equal(t, withBob.ID, chats[0].ID, "a new message moves the chat to the top")

	none, err := svc.ListChats(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListMessages(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, "alice", "bob", "carol")

	direct, err := svc.AccessChat(ctx, "alice", "bob")
	require.NoError(t, err)

	for _, content := range []string{"one", "two", "three"} {
		_, err := svc.SendMessage(ctx, "alice", direct.ID, content)
		require.NoError(t, err)
	}

	messages, err := svc.ListMessages(ctx, "bob", direct.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "one", messages[0].Content)
	assert.Equal(t, "three", messages[2].Content)
	assert.Equal(t, "alice", messages[0].Sender.ID)
	assert.Nil(t, messages[0].Chat)

	_, err = svc.ListMessages(ctx, "carol", direct.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestValidateMessage(t *testing.T) {
	long := make([]rune, MaxMessageLength+1)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "valid", content: "hi", wantErr: nil},
		{name: "blank", content: " \n", wantErr: ErrMissingFields},
		{name: "invalid utf8", content: "bad \xff", wantErr: ErrMessageInvalid},
		{name: "too long", content: string(long), wantErr: ErrMessageTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.content)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
