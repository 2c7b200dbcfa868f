package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/fx"

	"github.com/Alijeyrad/surveybot/config"
	"github.com/Alijeyrad/surveybot/internal/service/engine"
)

// Module provides the bot client and starts long polling when telegram is
// enabled.
var Module = fx.Module("telegram",
	fx.Provide(NewBotAPI),
	fx.Invoke(registerPoller),
)

// NewBotAPI returns nil when telegram is disabled. proxy_url accepts http,
// https and socks5 URLs.
func NewBotAPI(cfg *config.Config) (*tgbotapi.BotAPI, error) {
	tc := cfg.Telegram
	if !tc.Enabled {
		return nil, nil
	}

	client := &http.Client{Timeout: time.Duration(tc.PollTimeoutSec+10) * time.Second}
	if tc.ProxyURL != "" {
		u, err := url.Parse(tc.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse telegram.proxy_url: %w", err)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	}

	bot, err := tgbotapi.NewBotAPIWithClient(tc.Token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot api: %w", err)
	}
	bot.Debug = tc.Debug
	return bot, nil
}

type pollerParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Bot       *tgbotapi.BotAPI `optional:"true"`
	Engine    engine.Service
	Log       *slog.Logger
}

func registerPoller(p pollerParams) {
	if p.Bot == nil {
		p.Log.Info("telegram disabled")
		return
	}
	poller := NewPoller(NewRouter(p.Engine, p.Bot, p.Log, p.Cfg.Telegram.HistoryLimit), p.Log)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error {
			u := tgbotapi.NewUpdate(0)
			u.Timeout = p.Cfg.Telegram.PollTimeoutSec
			poller.Start(p.Bot.GetUpdatesChan(u))
			p.Log.Info("telegram polling started", "bot", p.Bot.Self.UserName)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Bot.StopReceivingUpdates()
			return poller.Stop(ctx)
		},
	})
}

// UpdateHandler is satisfied by *Router.
type UpdateHandler interface {
	Handle(ctx context.Context, upd tgbotapi.Update)
}

// Poller handles updates from different chats concurrently and updates from
// the same chat one at a time, in arrival order.
type Poller struct {
	handler UpdateHandler
	log     *slog.Logger

	// ctx is handed to handlers; it is cancelled only when Stop times out.
	ctx    context.Context
	cancel context.CancelFunc
	quit   chan struct{}
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	mu sync.Mutex
	// queues holds pending updates per chat; a key is present while that
	// chat's worker runs.
	queues map[int64][]tgbotapi.Update
}

func NewPoller(handler UpdateHandler, log *slog.Logger) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		handler: handler,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
		queues:  make(map[int64][]tgbotapi.Update),
	}
}

func (p *Poller) Start(updates <-chan tgbotapi.Update) {
	go func() {
		defer close(p.done)
		for {
			select {
			case <-p.quit:
				return
			case upd, ok := <-updates:
				if !ok {
					return
				}
				p.dispatch(upd)
			}
		}
	}()
}

func (p *Poller) dispatch(upd tgbotapi.Update) {
	var id int64
	if chat := upd.FromChat(); chat != nil {
		id = chat.ID
	}

	p.mu.Lock()
	q, running := p.queues[id]
	p.queues[id] = append(q, upd)
	p.mu.Unlock()
	if running {
		return
	}

	p.wg.Add(1)
	go p.drain(id)
}

func (p *Poller) drain(id int64) {
	defer p.wg.Done()
	for {
		p.mu.Lock()
		q := p.queues[id]
		if len(q) == 0 {
			delete(p.queues, id)
			p.mu.Unlock()
			return
		}
		upd := q[0]
		p.queues[id] = q[1:]
		p.mu.Unlock()

		p.handler.Handle(p.ctx, upd)
	}
}

// Stop stops reading updates and waits for queued and in-flight handlers.
// Handlers still running at the deadline are cancelled.
func (p *Poller) Stop(ctx context.Context) error {
	p.once.Do(func() { close(p.quit) })
	<-p.done

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()

	defer p.cancel()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		p.cancel()
		<-finished
		p.log.Warn("telegram handlers cancelled at shutdown")
		return ctx.Err()
	}
}
