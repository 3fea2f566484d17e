package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/futig/docqa-backend/internal/entity"
)

// maxMessageLength is the Telegram limit for a single text message
const maxMessageLength = 4096

const (
	MsgWelcome = `👋 Hi! Send me documents (PDF, DOCX, text files) or photos and then ask questions about them.

Everything you send in this chat goes into one session.`

	MsgHelp = `🤖 Commands:

/start - Show the welcome message
/new - Start a new session (documents of the current one are removed)
/clear - Remove all documents of the current session
/session - Show the current session id
/help - Show this help

Send a file or a photo to add it, send a text message to ask a question.`

	MsgProcessingFile  = "⏳ Reading %s..."
	MsgFileIngested    = "✅ %s added (%d chunks). Ask me anything about it."
	MsgNothingIngested = "⚠️ I could not find any text in %s."
	MsgFileTooLarge    = "❌ %s is too large (%d MB max)."
	MsgSessionCleared  = "🧹 Session cleared, %d chunks removed."
	MsgNewSession      = "🆕 New session started: %s"
	MsgCurrentSession  = "🔑 Current session: %s"
	MsgUnsupported     = "I can only handle documents, photos and text questions."
	MsgUnknownCommand  = "Unknown command. See /help."
	MsgSourcesHeader   = "📚 Sources:"

	ErrGeneric       = "❌ Something went wrong. Please try again."
	ErrDownload      = "❌ Could not download the file from Telegram. Please try again."
	ErrRateLimited   = "⚠️ Too many requests. Please wait a little."
	ErrRateLimited2  = "⚠️ Rate limit exceeded. Wait about 30 seconds before trying again."
	ErrRateLimitedHi = "🛑 You are sending requests too often. Please wait a minute."
)

// FormatAnswer renders an answer and its sources as a chat message
func FormatAnswer(answer entity.Answer) string {
	var b strings.Builder
	b.WriteString(answer.Text)

	if len(answer.Sources) > 0 {
		b.WriteString("\n\n")
		b.WriteString(MsgSourcesHeader)
		for i, s := range answer.Sources {
			fmt.Fprintf(&b, "\n%d. %s, page %d", i+1, s.Filename, s.Page)
		}
	}

	return Truncate(b.String(), maxMessageLength)
}

// Truncate cuts text to at most limit characters
func Truncate(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit-1]) + "…"
}
