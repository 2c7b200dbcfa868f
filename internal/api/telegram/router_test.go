package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/surveybot/internal/content"
	"github.com/Alijeyrad/surveybot/internal/content/sqlstore"
	"github.com/Alijeyrad/surveybot/internal/service/engine"
	"github.com/Alijeyrad/surveybot/internal/service/notifier"
	"github.com/Alijeyrad/surveybot/internal/session"
	"github.com/Alijeyrad/surveybot/pkg/database"
)

const (
	userID int64 = 501
	msgID        = 77
)

type fakeBot struct {
	mu      sync.Mutex
	sent    []tgbotapi.Chattable
	acks    []tgbotapi.CallbackConfig
	sendErr error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{MessageID: len(f.sent)}, f.sendErr
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.acks = append(f.acks, cb)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent, f.acks = nil, nil
}

// texts returns the text of every sent or edited message.
func (f *fakeBot) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

func (f *fakeBot) last() tgbotapi.Chattable {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

type fixture struct {
	router *Router
	bot    *fakeBot
	store  *sqlstore.Store
	nextID int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	drv, err := database.OpenMemory("telegram_" + uuid.NewString())
	require.NoError(t, err)
	store := sqlstore.New(drv)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	eng := engine.New(store, session.NewMemoryStore(), session.NewLocker(), notifier.Discard{}, log,
		engine.Options{DefaultRegion: "UZ"})
	bot := &fakeBot{}
	return &fixture{router: NewRouter(eng, bot, log, 0), bot: bot, store: store}
}

func (f *fixture) message(text string) {
	f.nextID++
	m := &tgbotapi.Message{
		MessageID: f.nextID,
		Chat:      &tgbotapi.Chat{ID: userID},
		From:      &tgbotapi.User{ID: userID, FirstName: "Ann", UserName: "ann"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}}
	}
	f.router.Handle(context.Background(), tgbotapi.Update{UpdateID: f.nextID, Message: m})
}

func (f *fixture) contact(phone string, owner int64) {
	f.nextID++
	f.router.Handle(context.Background(), tgbotapi.Update{UpdateID: f.nextID, Message: &tgbotapi.Message{
		MessageID: f.nextID,
		Chat:      &tgbotapi.Chat{ID: userID},
		From:      &tgbotapi.User{ID: userID, FirstName: "Ann", UserName: "ann"},
		Contact:   &tgbotapi.Contact{PhoneNumber: phone, FirstName: "Ann", UserID: owner},
	}})
}

func (f *fixture) tap(data string) {
	f.nextID++
	f.router.Handle(context.Background(), tgbotapi.Update{UpdateID: f.nextID, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb" + data,
		From:    &tgbotapi.User{ID: userID},
		Message: &tgbotapi.Message{MessageID: msgID, Chat: &tgbotapi.Chat{ID: userID}},
		Data:    data,
	}})
}

func (f *fixture) register(t *testing.T) {
	t.Helper()
	f.message("/start")
	f.contact("+998912345678", userID)
	f.bot.reset()
}

func (f *fixture) seed(t *testing.T) (*content.Category, []*content.QuestionWithAnswers) {
	t.Helper()
	ctx := context.Background()
	cat, err := f.store.CreateCategory(ctx, "Stress", "")
	require.NoError(t, err)
	q1, err := f.store.CreateQuestionWithAnswers(ctx, content.Question{CategoryID: cat.ID, Text: "Sleep?", OrderNum: 1},
		[]content.NewAnswer{{Text: "Never", Value: 0}, {Text: "Often", Value: 3}})
	require.NoError(t, err)
	q2, err := f.store.CreateQuestionWithAnswers(ctx, content.Question{CategoryID: cat.ID, Text: "Focus?", OrderNum: 2},
		[]content.NewAnswer{{Text: "Never", Value: 0}, {Text: "Often", Value: 5}})
	require.NoError(t, err)
	_, err = f.store.CreateCategoryResponse(ctx, content.CategoryResponse{CategoryID: cat.ID, MinScore: 7, MaxScore: 10, Title: "High", ResponseText: "See a doctor."})
	require.NoError(t, err)
	return cat, []*content.QuestionWithAnswers{q1, q2}
}

func TestStart_UnregisteredAsksForContact(t *testing.T) {
	f := newFixture(t)
	f.message("/start")

	msg, ok := f.bot.last().(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, msgWelcomeShareContact, msg.Text)
	kb, ok := msg.ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.True(t, kb.Keyboard[0][0].RequestContact)
	assert.True(t, kb.OneTimeKeyboard)

	f.bot.reset()
	f.message("hello")
	assert.Equal(t, []string{msgNeedContact}, f.bot.texts())
}

func TestContactRegistration(t *testing.T) {
	f := newFixture(t)
	f.seed(t)
	f.message("/start")
	f.bot.reset()

	f.contact("+998912345678", 999)
	assert.Equal(t, []string{msgForeignContact}, f.bot.texts())

	f.bot.reset()
	f.contact("12", userID)
	assert.Equal(t, []string{msgInvalidPhone}, f.bot.texts())

	f.bot.reset()
	f.contact("998912345678", userID)
	texts := f.bot.texts()
	require.Len(t, texts, 2)
	assert.Equal(t, msgContactSaved, texts[0])
	assert.Equal(t, msgCategoriesHeader, texts[1])

	u, err := f.store.GetUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "+998912345678", u.PhoneNumber)
	assert.Equal(t, "ann", u.Username)
}

func TestFullAttemptFlow(t *testing.T) {
	f := newFixture(t)
	cat, qs := f.seed(t)
	f.register(t)

	f.tap(prefixSelectCategory + itoa(cat.ID))
	edit, ok := f.bot.last().(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Contains(t, edit.Text, "📝 Stress")
	assert.Contains(t, edit.Text, "Questions: 2")
	assert.Equal(t, prefixStartTest+itoa(cat.ID), *edit.ReplyMarkup.InlineKeyboard[0][0].CallbackData)

	f.tap(prefixStartTest + itoa(cat.ID))
	edit = f.bot.last().(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, msgID, edit.MessageID)
	assert.Equal(t, "❓ Question 1/2\n\nSleep?", edit.Text)
	require.Len(t, edit.ReplyMarkup.InlineKeyboard, 2)
	assert.Equal(t, "Often - 3", edit.ReplyMarkup.InlineKeyboard[1][0].Text)

	f.tap(answerData(qs[0].ID, qs[0].Answers[1].ID, 3))
	edit = f.bot.last().(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, "❓ Question 2/2\n\nFocus?", edit.Text)

	// A second tap on the first question's keyboard is stale.
	f.tap(answerData(qs[0].ID, qs[0].Answers[1].ID, 3))
	require.NotEmpty(t, f.bot.acks)
	assert.Equal(t, msgStale, f.bot.acks[len(f.bot.acks)-1].Text)

	f.tap(answerData(qs[1].ID, qs[1].Answers[1].ID, 5))
	edit = f.bot.last().(tgbotapi.EditMessageTextConfig)
	assert.Contains(t, edit.Text, "Total score: 8")
	assert.Contains(t, edit.Text, "High\n\nSee a doctor.")
	assert.Nil(t, edit.ReplyMarkup)

	assert.Len(t, f.bot.acks, 5, "every callback is acknowledged")

	f.bot.reset()
	f.message("/history")
	texts := f.bot.texts()
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "1. Stress")
	assert.Contains(t, texts[0], "Score: 8")
}

func TestCallbackEdgeCases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t)

	empty, err := f.store.CreateCategory(ctx, "Empty", "")
	require.NoError(t, err)

	f.tap(prefixSelectCategory + itoa(empty.ID))
	edit := f.bot.last().(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, "❌ 'Empty' has no questions yet.", edit.Text)
	assert.Equal(t, dataBackToCategories, *edit.ReplyMarkup.InlineKeyboard[0][0].CallbackData)

	f.tap(prefixSelectCategory + "404")
	edit = f.bot.last().(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, msgCategoryNotFound, edit.Text)

	f.tap(dataBackToCategories)
	edit = f.bot.last().(tgbotapi.EditMessageTextConfig)
	assert.Equal(t, msgCategoriesHeader, edit.Text)

	f.tap("garbage")
	assert.Equal(t, msgUnknown, f.bot.acks[len(f.bot.acks)-1].Text)

	f.bot.reset()
	f.tap(answerData(1, 1, 1))
	assert.Equal(t, []string{msgNoAttempt}, f.bot.texts())
	assert.Equal(t, msgNoAttempt, f.bot.acks[0].Text)
}

func TestStartTestRequiresRegistration(t *testing.T) {
	f := newFixture(t)
	cat, _ := f.seed(t)

	f.tap(prefixStartTest + itoa(cat.ID))
	assert.Equal(t, []string{msgNotRegistered}, f.bot.texts())
	assert.Len(t, f.bot.acks, 1)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	cat, _ := f.seed(t)
	f.register(t)

	f.message("/cancel")
	assert.Equal(t, []string{msgNoAttempt}, f.bot.texts())

	f.tap(prefixStartTest + itoa(cat.ID))
	f.bot.reset()
	f.message("/cancel")
	assert.Equal(t, []string{msgCancelled}, f.bot.texts())
}

func TestPollerDrainsInFlightUpdates(t *testing.T) {
	f := newFixture(t)
	p := NewPoller(f.router, slog.New(slog.NewTextHandler(io.Discard, nil)))

	updates := make(chan tgbotapi.Update, 4)
	p.Start(updates)
	for i := 1; i <= 3; i++ {
		updates <- tgbotapi.Update{UpdateID: i, Message: &tgbotapi.Message{
			MessageID: i,
			Chat:      &tgbotapi.Chat{ID: int64(1000 + i)},
			Text:      "hi",
		}}
	}
	close(updates)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	assert.Len(t, f.bot.texts(), 3)
}

// orderHandler records handled update ids; the first update of gateChat
// blocks until release is closed.
type orderHandler struct {
	mu       sync.Mutex
	seen     []int
	gateChat int64
	gated    chan struct{}
	release  chan struct{}
	once     sync.Once
}

func (h *orderHandler) Handle(_ context.Context, upd tgbotapi.Update) {
	if upd.FromChat().ID == h.gateChat {
		h.once.Do(func() {
			close(h.gated)
			<-h.release
		})
	}
	h.mu.Lock()
	h.seen = append(h.seen, upd.UpdateID)
	h.mu.Unlock()
}

func (h *orderHandler) ids() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.seen...)
}

func chatUpdate(id int, chat int64) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: id, Message: &tgbotapi.Message{
		MessageID: id,
		Chat:      &tgbotapi.Chat{ID: chat},
		Text:      "hi",
	}}
}

func TestPollerKeepsPerChatOrder(t *testing.T) {
	h := &orderHandler{gateChat: 1, gated: make(chan struct{}), release: make(chan struct{})}
	p := NewPoller(h, slog.New(slog.NewTextHandler(io.Discard, nil)))

	updates := make(chan tgbotapi.Update, 8)
	p.Start(updates)
	updates <- chatUpdate(1, 1)
	<-h.gated
	for i := 2; i <= 5; i++ {
		updates <- chatUpdate(i, 1)
	}
	updates <- chatUpdate(6, 2)

	// Chat 2 is not held up by chat 1's blocked handler.
	require.Eventually(t, func() bool {
		return len(h.ids()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []int{6}, h.ids())

	close(h.release)
	close(updates)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	assert.Equal(t, []int{6, 1, 2, 3, 4, 5}, h.ids())
}

func TestSendFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.bot.sendErr = errors.New("telegram down")

	// The router must not panic when replies fail; the failure is logged.
	f.message("/start")
	assert.Len(t, f.bot.texts(), 1)
}

func TestParseCallback(t *testing.T) {
	tests := []struct {
		data string
		want callback
		bad  bool
	}{
		{data: "back_to_categories", want: callback{kind: cbBack}},
		{data: "select_category_12", want: callback{kind: cbSelectCategory, categoryID: 12}},
		{data: "start_test_3", want: callback{kind: cbStartTest, categoryID: 3}},
		{data: "answer_4_9_-2", want: callback{kind: cbAnswer, questionID: 4, answerID: 9, value: -2}},
		{data: "answer_4_9", bad: true},
		{data: "answer_x_9_1", bad: true},
		{data: "select_category_0", bad: true},
		{data: "start_test_", bad: true},
		{data: "unknown", bad: true},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			got, err := parseCallback(tt.data)
			if tt.bad {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
