package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chathub/internal/dbmysql"
	"chathub/internal/preview"
)

func TestSendMessage_ExactlyOneDestination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	channel, err := env.channels.CreateChannel(ctx, alice.ID, "general", "")
	require.NoError(t, err)
	group, err := env.channels.CreateGroup(ctx, alice.ID, "g", []string{bob.ID})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   SendMessageInput
	}{
		{
			name: "no destination",
			in:   SendMessageInput{AuthorID: alice.ID, Content: "x"},
		},
		{
			name: "channel and group",
			in:   SendMessageInput{AuthorID: alice.ID, Content: "x", ChannelID: &channel.ID, GroupID: &group.ID},
		},
		{
			name: "channel and recipient",
			in:   SendMessageInput{AuthorID: alice.ID, Content: "x", ChannelID: &channel.ID, RecipientID: &bob.ID},
		},
		{
			name: "group and recipient",
			in:   SendMessageInput{AuthorID: alice.ID, Content: "x", GroupID: &group.ID, RecipientID: &bob.ID},
		},
		{
			name: "all three",
			in:   SendMessageInput{AuthorID: alice.ID, Content: "x", ChannelID: &channel.ID, GroupID: &group.ID, RecipientID: &bob.ID},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.messages.SendMessage(ctx, tc.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "exactly one destination")
		})
	}
}

func TestSendMessage_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	channel, err := env.channels.CreateChannel(ctx, alice.ID, "members-only", "")
	require.NoError(t, err)
	group, err := env.channels.CreateGroup(ctx, alice.ID, "g", nil)
	require.NoError(t, err)

	tests := []struct {
		name        string
		in          SendMessageInput
		errContains string
	}{
		{
			name:        "unknown author",
			in:          SendMessageInput{AuthorID: "ghost", Content: "x", RecipientID: &bob.ID},
			errContains: "author",
		},
		{
			name:        "not a channel member",
			in:          SendMessageInput{AuthorID: bob.ID, Content: "x", ChannelID: &channel.ID},
			errContains: "not a member",
		},
		{
			name:        "nonexistent channel looks like non-membership",
			in:          SendMessageInput{AuthorID: bob.ID, Content: "x", ChannelID: strptr("no-such-channel")},
			errContains: "not a member",
		},
		{
			name:        "not a group member",
			in:          SendMessageInput{AuthorID: bob.ID, Content: "x", GroupID: &group.ID},
			errContains: "not a member",
		},
		{
			name:        "unknown recipient",
			in:          SendMessageInput{AuthorID: alice.ID, Content: "x", RecipientID: strptr("no-such-user")},
			errContains: "recipient",
		},
		{
			name:        "bad message type",
			in:          SendMessageInput{AuthorID: alice.ID, Content: "x", RecipientID: &bob.ID, Type: "carrier-pigeon"},
			errContains: "message type",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.messages.SendMessage(ctx, tc.in)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errContains)

			var count int64
			require.NoError(t, env.db.Model(&dbmysql.Message{}).Count(&count).Error)
			assert.Zero(t, count, "a failed validation must not persist anything")
		})
	}
}

func TestSendMessage_ReplyTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	ch1, err := env.channels.CreateChannel(ctx, alice.ID, "one", "")
	require.NoError(t, err)
	ch2, err := env.channels.CreateChannel(ctx, alice.ID, "two", "")
	require.NoError(t, err)

	inCh1, err := env.messages.SendMessage(ctx, SendMessageInput{
		AuthorID: alice.ID, Content: "root", ChannelID: &ch1.ID,
	})
	require.NoError(t, err)

	// Replying across channels fails even though alice belongs to both.
	_, err = env.messages.SendMessage(ctx, SendMessageInput{
		AuthorID: alice.ID, Content: "cross", ChannelID: &ch2.ID, ReplyToID: &inCh1.ID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different conversation")

	// Same channel is fine and the target comes back resolved.
	reply, err := env.messages.SendMessage(ctx, SendMessageInput{
		AuthorID: alice.ID, Content: "same", ChannelID: &ch1.ID, ReplyToID: &inCh1.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyTo)
	assert.Equal(t, inCh1.ID, reply.ReplyTo.ID)

	// Unknown target.
	_, err = env.messages.SendMessage(ctx, SendMessageInput{
		AuthorID: alice.ID, Content: "x", ChannelID: &ch1.ID, ReplyToID: strptr("missing"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reply target")

	// A direct reply matches the pair in either direction.
	dm, err := env.messages.SendMessage(ctx, SendMessageInput{
		AuthorID: alice.ID, Content: "dm", RecipientID: &bob.ID,
	})
	require.NoError(t, err)
	back, err := env.messages.SendMessage(ctx, SendMessageInput{
		AuthorID: bob.ID, Content: "dm back", RecipientID: &alice.ID, ReplyToID: &dm.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, back.ReplyTo)

	// Replying to a channel message from a DM is cross-conversation.
	_, err = env.messages.SendMessage(ctx, SendMessageInput{
		AuthorID: bob.ID, Content: "x", RecipientID: &alice.ID, ReplyToID: &inCh1.ID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "different conversation")
}

// capturingFetcher returns a canned preview and records what it was asked.
type capturingFetcher struct {
	requested string
	result    *preview.Preview
}

func (f *capturingFetcher) Fetch(_ context.Context, rawURL string) *preview.Preview {
	f.requested = rawURL
	return f.result
}

func TestSendMessage_LinkPreview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	fetcher := &capturingFetcher{result: &preview.Preview{
		URL:   "https://example.com/post",
		Title: "Example Post",
	}}
	messages := NewMessageService(env.messageRepo, env.readRepo, env.channelRepo, env.groupRepo, env.userRepo, fetcher)

	sent, err := messages.SendMessage(ctx, SendMessageInput{
		AuthorID:    alice.ID,
		Content:     "look at https://example.com/post please",
		RecipientID: &bob.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/post", fetcher.requested)
	require.NotNil(t, sent.PreviewURL)
	assert.Equal(t, "https://example.com/post", *sent.PreviewURL)
	require.NotNil(t, sent.PreviewTitle)
	assert.Equal(t, "Example Post", *sent.PreviewTitle)

	// A failing fetcher degrades to no preview, never an error.
	fetcher.result = nil
	sent, err = messages.SendMessage(ctx, SendMessageInput{
		AuthorID:    alice.ID,
		Content:     "also https://dead.example.com",
		RecipientID: &bob.ID,
	})
	require.NoError(t, err)
	assert.Nil(t, sent.PreviewURL)

	// No URL in the content, no fetch at all.
	fetcher.requested = ""
	_, err = messages.SendMessage(ctx, SendMessageInput{
		AuthorID:    alice.ID,
		Content:     "plain text",
		RecipientID: &bob.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, fetcher.requested)
}

func TestMarkMessageRead_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	sent, err := env.messages.SendMessage(ctx, SendMessageInput{
		AuthorID: alice.ID, Content: "read me", RecipientID: &bob.ID,
	})
	require.NoError(t, err)

	first, err := env.messages.MarkMessageRead(ctx, sent.ID, bob.ID)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	second, err := env.messages.MarkMessageRead(ctx, sent.ID, bob.ID)
	require.NoError(t, err)

	assert.True(t, first.ReadAt.Equal(second.ReadAt), "re-marking must return the original receipt")

	var count int64
	require.NoError(t, env.db.Model(&dbmysql.MessageRead{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	_, err = env.messages.MarkMessageRead(ctx, "no-such-message", bob.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message")
}

func TestGetMessages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	channel, err := env.channels.CreateChannel(ctx, alice.ID, "general", "")
	require.NoError(t, err)
	_, err = env.channels.JoinChannel(ctx, channel.ID, bob.ID)
	require.NoError(t, err)

	for i, content := range []string{"first", "second", "third"} {
		env.seedMessage(t, &dbmysql.Message{
			UserID: alice.ID, ChannelID: &channel.ID, Content: content,
			CreatedAt: time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
	}

	// Newest first, with pagination.
	views, err := env.messages.GetMessages(ctx, MessageQuery{
		RequesterID: bob.ID, ChannelID: &channel.ID, Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "third", views[0].Content)
	assert.Equal(t, "second", views[1].Content)
	require.NotNil(t, views[0].Author)
	assert.Equal(t, "alice", views[0].Author.Username)
	assert.Empty(t, views[0].ReadBy)

	views, err = env.messages.GetMessages(ctx, MessageQuery{
		RequesterID: bob.ID, ChannelID: &channel.ID, Limit: 2, Offset: 2,
	})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "first", views[0].Content)

	// Read-by set fills in once someone marks a message.
	_, err = env.messages.MarkMessageRead(ctx, views[0].ID, bob.ID)
	require.NoError(t, err)
	views, err = env.messages.GetMessages(ctx, MessageQuery{
		RequesterID: bob.ID, ChannelID: &channel.ID,
	})
	require.NoError(t, err)
	require.Len(t, views, 3)
	readBy := views[2].ReadBy
	require.Len(t, readBy, 1)
	assert.Equal(t, bob.ID, readBy[0].ID)

	// The destination rule applies to reads too.
	_, err = env.messages.GetMessages(ctx, MessageQuery{RequesterID: bob.ID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one destination")
}

func TestSearchMessages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	outsider := env.createUser(t, "eve")

	channel, err := env.channels.CreateChannel(ctx, alice.ID, "general", "")
	require.NoError(t, err)
	_, err = env.channels.JoinChannel(ctx, channel.ID, bob.ID)
	require.NoError(t, err)

	env.seedMessage(t, &dbmysql.Message{
		UserID: alice.ID, ChannelID: &channel.ID, Content: "Deploy is DONE",
	})
	env.seedMessage(t, &dbmysql.Message{
		UserID: alice.ID, RecipientID: &bob.ID, Content: "deploy went fine",
	})

	// Case-insensitive, across everything bob can see.
	views, err := env.messages.SearchMessages(ctx, SearchInput{UserID: bob.ID, Query: "deploy"})
	require.NoError(t, err)
	assert.Len(t, views, 2)

	// Restricted to the channel.
	views, err = env.messages.SearchMessages(ctx, SearchInput{
		UserID: bob.ID, Query: "deploy", ChannelID: &channel.ID,
	})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Deploy is DONE", views[0].Content)

	// Membership gates results; eve sees nothing in that channel.
	views, err = env.messages.SearchMessages(ctx, SearchInput{
		UserID: outsider.ID, Query: "deploy", ChannelID: &channel.ID,
	})
	require.NoError(t, err)
	assert.Empty(t, views)

	_, err = env.messages.SearchMessages(ctx, SearchInput{UserID: bob.ID, Query: "   "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query")
}
