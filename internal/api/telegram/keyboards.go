package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/internal/session"
)

func contactKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonContact(msgShareContactBtn)))
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func categoriesKeyboard(cats []content.Category) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(c.Name, prefixSelectCategory+strconv.FormatInt(c.ID, 10)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func startTestKeyboard(categoryID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(msgStartTestBtn, prefixStartTest+strconv.FormatInt(categoryID, 10)),
		tgbotapi.NewInlineKeyboardButtonData(msgBackBtn, dataBackToCategories),
	))
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(msgBackBtn, dataBackToCategories),
	))
}

// answersKeyboard renders one button per answer, labelled "text - value".
func answersKeyboard(q session.SnapshotQuestion) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(q.Answers))
	for _, a := range q.Answers {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%s - %d", a.Text, a.Value), answerData(q.ID, a.ID, a.Value)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
