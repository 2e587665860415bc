package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"gigmarket/internal/model"
)

func groupMembers() []model.GroupMember {
	return []model.GroupMember{
		{UserID: 1, User: &model.User{ID: 1, Username: "alice"}},
		{UserID: 2, User: &model.User{ID: 2, Username: "bob"}},
		{UserID: 3, User: &model.User{ID: 3, Username: "Carol"}},
	}
}

func TestParseMentions(t *testing.T) {
	members := groupMembers()

	t.Run("matches member usernames", func(t *testing.T) {
		got := ParseMentions("hey @bob can you look at this", 1, members)
		assert.Len(t, got, 1)
		assert.Equal(t, uint64(2), got[0].ID)
	})

	t.Run("case sensitive", func(t *testing.T) {
		got := ParseMentions("ping @carol", 1, members)
		assert.Empty(t, got)

		got = ParseMentions("ping @Carol", 1, members)
		assert.Len(t, got, 1)
	})

	t.Run("author never mentions themselves", func(t *testing.T) {
		got := ParseMentions("@alice talking to myself", 1, members)
		assert.Empty(t, got)
	})

	t.Run("deduplicates repeated mentions", func(t *testing.T) {
		got := ParseMentions("@bob @bob @bob", 1, members)
		assert.Len(t, got, 1)
	})

	t.Run("ignores non-members and bare at signs", func(t *testing.T) {
		got := ParseMentions("@stranger meet me @ the cafe", 1, members)
		assert.Empty(t, got)
	})

	t.Run("mid-word at is not a mention", func(t *testing.T) {
		got := ParseMentions("mail me alice@bob.com", 2, members)
		assert.Empty(t, got)
	})
}
