package chat

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Namespace for deterministic single-chat ids.
var chatNamespace = uuid.MustParse("9f2c1a4e-5b8d-4c3f-a1e6-7d0b2f9c8e51")

// SingleChatID derives the chat id for an unordered participant pair. Both
// peers compute the same id, so concurrent find-or-create from either side
// is naturally idempotent: the second insert fails on _id and folds into a
// fetch of the existing document.
func SingleChatID(a, b string) string {
	pair := []string{a, b}
	sort.Strings(pair)
	return uuid.NewSHA1(chatNamespace, []byte(strings.Join(pair, ":"))).String()
}
