package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL        = "error.internal"
	ERROR_INVALIDARGUMENT = "error.invalidargument"

	ERROR_CHAT_EMPTY_MESSAGES = "error.chat.empty.messages"
	ERROR_CHAT_UPSTREAM       = "error.chat.upstream"
)
