package watch

// Topic builders. One topic per query the clients can subscribe to.

func TopicAccount(accountID string) string { return "account:" + accountID }

func TopicChats(accountID string) string { return "chats:" + accountID }

func TopicMessages(chatID string) string { return "messages:" + chatID }

const TopicUpdates = "updates"
