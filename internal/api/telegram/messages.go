package telegram

import (
	"fmt"
	"strings"

	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/internal/service/engine"
)

const (
	msgWelcome = "👋 Welcome!\n\n" +
		"This bot runs short self-assessment tests. Pick a test, answer each question, " +
		"and get your result right away."
	msgWelcomeShareContact = msgWelcome + "\n\nTo use the bot, please share your contact 👇🏻"

	msgContactSaved    = "✅ Your number has been saved!\n\nYou can start the tests now."
	msgForeignContact  = "❌ Please share your own contact using the button below."
	msgInvalidPhone    = "❌ This phone number could not be recognized. Please try again."
	msgShareContactBtn = "📱 Share phone number"
	msgNeedContact     = "📱 Please share your contact first using the button below."

	msgCategoriesHeader = "📋 Available tests:\n\nChoose a test:"
	msgNoCategories     = "❌ There are no tests yet.\nPlease try again later."
	msgCategoryNotFound = "❌ Category not found."
	msgDefaultCategory  = "You will be asked a few simple questions.\n\n" +
		"For each one, mark how often you noticed it during the last month."

	msgStartTestBtn = "✅ Start test"
	msgBackBtn      = "◀️ Back"

	msgNotRegistered = "Please press /start and share your contact before taking a test."
	msgStale         = "This question is no longer active."
	msgNoAttempt     = "You have no active test. Press /start to choose one."
	msgCancelled     = "❎ Test cancelled. Press /start to choose another one."
	msgDefaultResult = "Based on this result a doctor can give you suitable recommendations."
	msgRestartHint   = "Press /start to begin a new test."
	msgNoHistory     = "📋 You have no test history yet."
	msgUnknown       = "Unknown action."
	msgUseStart      = "Press /start to see the available tests."
	msgFailure       = "⚠️ Something went wrong. Please try again."
)

func categoryInfoText(info *engine.CategoryInfo) string {
	desc := info.Category.Description
	if strings.TrimSpace(desc) == "" {
		desc = msgDefaultCategory
	}
	return fmt.Sprintf("📝 %s\n\n%s\n\nQuestions: %d", info.Category.Name, desc, info.QuestionCount)
}

func emptyCategoryText(name string) string {
	if name == "" {
		return "❌ This test has no questions."
	}
	return fmt.Sprintf("❌ '%s' has no questions yet.", name)
}

func questionText(p *engine.Prompt) string {
	return fmt.Sprintf("❓ Question %d/%d\n\n%s", p.Position, p.Total, p.Question.Text)
}

func resultText(r *engine.Result) string {
	var b strings.Builder
	b.WriteString("✅ Test completed!\n\n")
	fmt.Fprintf(&b, "📊 Test: %s\n", r.CategoryName)
	fmt.Fprintf(&b, "Total score: %d\n\n", r.TotalScore)
	if r.Response != nil {
		fmt.Fprintf(&b, "%s\n\n%s\n\n", r.Response.Title, r.Response.ResponseText)
	} else {
		b.WriteString(msgDefaultResult + "\n\n")
	}
	b.WriteString(msgRestartHint)
	return b.String()
}

func historyText(entries []content.HistoryEntry) string {
	if len(entries) == 0 {
		return msgNoHistory
	}
	var b strings.Builder
	b.WriteString("📊 Your test history:\n\n")
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n   Score: %d\n   Date: %s\n\n",
			i+1, e.CategoryName, e.TotalScore, e.CompletedAt.Format("2006-01-02 15:04"))
	}
	return strings.TrimRight(b.String(), "\n")
}
