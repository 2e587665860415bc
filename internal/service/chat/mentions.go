package chat

import (
	"strings"

	"gigmarket/internal/model"
)

// ParseMentions scans a message body for @username tokens and resolves them
// against the group's current members. Matching is exact and case sensitive;
// the author never mentions themselves. Each member is returned at most once
// however many times they are named.
func ParseMentions(body string, authorID uint64, members []model.GroupMember) []*model.User {
	byName := make(map[string]*model.User, len(members))
	for i := range members {
		m := &members[i]
		if m.User == nil || m.UserID == authorID {
			continue
		}
		byName[m.User.Username] = m.User
	}
	if len(byName) == 0 {
		return nil
	}

	var mentioned []*model.User
	seen := make(map[uint64]bool)

	for _, token := range strings.Fields(body) {
		if !strings.HasPrefix(token, "@") {
			continue
		}
		user, ok := byName[token[1:]]
		if !ok || seen[user.ID] {
			continue
		}
		seen[user.ID] = true
		mentioned = append(mentioned, user)
	}

	return mentioned
}
