package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Alijeyrad/surveybot/internal/service/engine"
	"github.com/Alijeyrad/surveybot/internal/session"
	"github.com/Alijeyrad/surveybot/pkg/observability"
	"github.com/Alijeyrad/surveybot/pkg/reqctx"
)

// Sender is the subset of *tgbotapi.BotAPI the router needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Router maps bot updates to engine calls. Every update gets a reply; errors
// are logged and turned into a user-facing message.
type Router struct {
	eng          engine.Service
	bot          Sender
	log          *slog.Logger
	historyLimit int
}

func NewRouter(eng engine.Service, bot Sender, log *slog.Logger, historyLimit int) *Router {
	if historyLimit <= 0 {
		historyLimit = engine.DefaultHistoryLimit
	}
	return &Router{eng: eng, bot: bot, log: log.With("component", "telegram"), historyLimit: historyLimit}
}

func (r *Router) Handle(ctx context.Context, upd tgbotapi.Update) {
	var (
		kind   string
		chatID int64
	)
	switch {
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil:
		kind, chatID = "callback", upd.CallbackQuery.Message.Chat.ID
	case upd.Message != nil && upd.Message.Chat != nil:
		kind, chatID = "message", upd.Message.Chat.ID
	default:
		return
	}

	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{
		RequestID:  "tg-" + strconv.Itoa(upd.UpdateID),
		Source:     reqctx.SourceTelegram,
		ChatID:     chatID,
		ReceivedAt: time.Now(),
	})
	ctx, span := observability.StartUpdateSpan(ctx, kind, chatID)

	var err error
	if kind == "callback" {
		err = r.onCallback(ctx, upd.CallbackQuery)
	} else {
		err = r.onMessage(ctx, upd.Message)
	}
	if err != nil {
		reqctx.Logger(ctx, r.log).Error("update failed", "kind", kind, "error", err)
	}
	observability.EndSpan(span, err)
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

func (r *Router) onMessage(ctx context.Context, m *tgbotapi.Message) error {
	chatID := m.Chat.ID

	if m.Contact != nil {
		return r.onContact(ctx, m)
	}

	switch m.Command() {
	case "start":
		return r.onStart(ctx, chatID)
	case "history":
		return r.onHistory(ctx, chatID)
	case "cancel":
		return r.onCancel(ctx, chatID)
	}

	st, err := r.eng.State(ctx, chatID)
	if err != nil {
		return r.fail(ctx, chatID, err)
	}
	if st.Phase == session.PhaseAwaitingPhone {
		return r.sendWithMarkup(ctx, chatID, msgNeedContact, contactKeyboard())
	}
	return r.sendText(ctx, chatID, msgUseStart)
}

func (r *Router) onStart(ctx context.Context, chatID int64) error {
	w, err := r.eng.Welcome(ctx, chatID)
	if err != nil {
		return r.fail(ctx, chatID, err)
	}
	if !w.Registered {
		return r.sendWithMarkup(ctx, chatID, msgWelcomeShareContact, contactKeyboard())
	}
	if err := r.sendText(ctx, chatID, msgWelcome); err != nil {
		return err
	}
	return r.sendCategories(ctx, chatID)
}

func (r *Router) onContact(ctx context.Context, m *tgbotapi.Message) error {
	chatID := m.Chat.ID
	c := m.Contact
	if m.From != nil && c.UserID != 0 && c.UserID != m.From.ID {
		return r.sendWithMarkup(ctx, chatID, msgForeignContact, contactKeyboard())
	}

	contact := engine.Contact{Phone: c.PhoneNumber, DisplayName: strings.TrimSpace(c.FirstName + " " + c.LastName)}
	if m.From != nil {
		contact.Username = m.From.UserName
		if name := strings.TrimSpace(m.From.FirstName + " " + m.From.LastName); name != "" {
			contact.DisplayName = name
		}
	}

	_, err := r.eng.SharePhone(ctx, chatID, contact)
	if errors.Is(err, engine.ErrInvalidPhone) {
		return r.sendWithMarkup(ctx, chatID, msgInvalidPhone, contactKeyboard())
	}
	if err != nil {
		return r.fail(ctx, chatID, err)
	}

	if err := r.sendWithMarkup(ctx, chatID, msgContactSaved, tgbotapi.NewRemoveKeyboard(false)); err != nil {
		return err
	}
	return r.sendCategories(ctx, chatID)
}

func (r *Router) onHistory(ctx context.Context, chatID int64) error {
	entries, err := r.eng.History(ctx, chatID, r.historyLimit)
	if err != nil {
		return r.fail(ctx, chatID, err)
	}
	return r.sendText(ctx, chatID, historyText(entries))
}

func (r *Router) onCancel(ctx context.Context, chatID int64) error {
	err := r.eng.CancelAttempt(ctx, chatID)
	if errors.Is(err, engine.ErrNoActiveAttempt) {
		return r.sendText(ctx, chatID, msgNoAttempt)
	}
	if err != nil {
		return r.fail(ctx, chatID, err)
	}
	return r.sendText(ctx, chatID, msgCancelled)
}

// ---------------------------------------------------------------------------
// Callbacks
// ---------------------------------------------------------------------------

func (r *Router) onCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID

	cb, err := parseCallback(cq.Data)
	if err != nil {
		return r.ack(ctx, cq.ID, msgUnknown)
	}

	switch cb.kind {
	case cbBack:
		err = r.editCategories(ctx, chatID, msgID)
	case cbSelectCategory:
		err = r.onSelectCategory(ctx, chatID, msgID, cb.categoryID)
	case cbStartTest:
		err = r.onStartTest(ctx, chatID, msgID, cb.categoryID)
	case cbAnswer:
		var notice string
		notice, err = r.onAnswer(ctx, chatID, msgID, cb)
		if err == nil && notice != "" {
			return r.ack(ctx, cq.ID, notice)
		}
	}
	return errors.Join(err, r.ack(ctx, cq.ID, ""))
}

func (r *Router) onSelectCategory(ctx context.Context, chatID int64, msgID int, categoryID int64) error {
	info, err := r.eng.DescribeCategory(ctx, chatID, categoryID)
	switch {
	case errors.Is(err, engine.ErrNotFound):
		return r.edit(ctx, chatID, msgID, msgCategoryNotFound, backKeyboard())
	case errors.Is(err, engine.ErrCategoryEmpty):
		return r.edit(ctx, chatID, msgID, emptyCategoryText(r.categoryName(ctx, categoryID)), backKeyboard())
	case err != nil:
		return r.fail(ctx, chatID, err)
	}
	return r.edit(ctx, chatID, msgID, categoryInfoText(info), startTestKeyboard(categoryID))
}

func (r *Router) onStartTest(ctx context.Context, chatID int64, msgID int, categoryID int64) error {
	p, err := r.eng.StartAttempt(ctx, chatID, categoryID)
	switch {
	case errors.Is(err, engine.ErrNotRegistered):
		return r.sendWithMarkup(ctx, chatID, msgNotRegistered, contactKeyboard())
	case errors.Is(err, engine.ErrNotFound):
		return r.editCategories(ctx, chatID, msgID)
	case errors.Is(err, engine.ErrCategoryEmpty):
		return r.edit(ctx, chatID, msgID, emptyCategoryText(r.categoryName(ctx, categoryID)), backKeyboard())
	case err != nil:
		return r.fail(ctx, chatID, err)
	}
	return r.edit(ctx, chatID, msgID, questionText(p), answersKeyboard(p.Question))
}

// onAnswer returns a short notice for the callback acknowledgement when the
// tap could not be applied.
func (r *Router) onAnswer(ctx context.Context, chatID int64, msgID int, cb callback) (string, error) {
	step, err := r.eng.SubmitAnswer(ctx, chatID, cb.questionID, cb.answerID, cb.value)
	switch {
	case errors.Is(err, engine.ErrStaleSelection):
		return msgStale, nil
	case errors.Is(err, engine.ErrNoActiveAttempt):
		return msgNoAttempt, r.sendText(ctx, chatID, msgNoAttempt)
	case err != nil:
		return "", r.fail(ctx, chatID, err)
	}

	if step.Result != nil {
		return "", r.editPlain(ctx, chatID, msgID, resultText(step.Result))
	}
	return "", r.edit(ctx, chatID, msgID, questionText(step.Next), answersKeyboard(step.Next.Question))
}

func (r *Router) categoryName(ctx context.Context, categoryID int64) string {
	cats, err := r.eng.ListCategories(ctx)
	if err != nil {
		return ""
	}
	for _, c := range cats {
		if c.ID == categoryID {
			return c.Name
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Output
// ---------------------------------------------------------------------------

func (r *Router) sendCategories(ctx context.Context, chatID int64) error {
	cats, err := r.eng.ListCategories(ctx)
	if err != nil {
		return r.fail(ctx, chatID, err)
	}
	if len(cats) == 0 {
		return r.sendText(ctx, chatID, msgNoCategories)
	}
	return r.sendWithMarkup(ctx, chatID, msgCategoriesHeader, categoriesKeyboard(cats))
}

func (r *Router) editCategories(ctx context.Context, chatID int64, msgID int) error {
	cats, err := r.eng.ListCategories(ctx)
	if err != nil {
		return r.fail(ctx, chatID, err)
	}
	if len(cats) == 0 {
		return r.editPlain(ctx, chatID, msgID, msgNoCategories)
	}
	return r.edit(ctx, chatID, msgID, msgCategoriesHeader, categoriesKeyboard(cats))
}

// fail tells the user something went wrong and returns cause for logging.
func (r *Router) fail(ctx context.Context, chatID int64, cause error) error {
	return errors.Join(cause, r.sendText(ctx, chatID, msgFailure))
}

func (r *Router) sendText(ctx context.Context, chatID int64, text string) error {
	return r.sendWithMarkup(ctx, chatID, text, nil)
}

func (r *Router) sendWithMarkup(_ context.Context, chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	_, err := r.bot.Send(msg)
	return err
}

func (r *Router) edit(_ context.Context, chatID int64, msgID int, text string, markup tgbotapi.InlineKeyboardMarkup) error {
	_, err := r.bot.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, markup))
	return err
}

func (r *Router) editPlain(_ context.Context, chatID int64, msgID int, text string) error {
	_, err := r.bot.Send(tgbotapi.NewEditMessageText(chatID, msgID, text))
	return err
}

func (r *Router) ack(_ context.Context, callbackID, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}
