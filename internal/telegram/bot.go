package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"gridbot/internal/auth"
	"gridbot/internal/dialogue"
	"gridbot/internal/duration"
	"gridbot/internal/nlu"
	"gridbot/internal/session"
)

const Channel = "telegram"

type Dispatcher interface {
	Dispatch(ctx context.Context, store session.Store, ev dialogue.Event) dialogue.Response
}

// slotIntents maps an elicited slot to the intent that fills it.
var slotIntents = map[string]string{
	dialogue.SlotUsername: dialogue.IntentSetUsername,
	dialogue.SlotSite:     dialogue.IntentSetSite,
	dialogue.SlotSystem:   dialogue.IntentSystemStatus,
}

type Bot struct {
	api        *tgbotapi.BotAPI
	s          sender
	dispatcher Dispatcher
	recognizer nlu.Recognizer
	authSvc    *auth.Service
	sessions   *session.MemoryStore
	log        zerolog.Logger

	mu      sync.Mutex
	pending map[int64]string
}

func New(botToken string, d Dispatcher, r nlu.Recognizer, authSvc *auth.Service, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	b := newBot(botAPISender{api: api}, d, r, authSvc, log)
	b.api = api
	return b, nil
}

func newBot(s sender, d Dispatcher, r nlu.Recognizer, authSvc *auth.Service, log zerolog.Logger) *Bot {
	if r == nil {
		r = nlu.Keywords{}
	}
	if authSvc == nil {
		authSvc = auth.New(nil, nil)
	}
	return &Bot{
		s:          s,
		dispatcher: d,
		recognizer: r,
		authSvc:    authSvc,
		sessions:   session.NewMemoryStore(),
		log:        log,
		pending:    make(map[int64]string),
	}
}

// Start long-polls until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info().Str("bot", b.api.Self.UserName).Msg("telegram polling started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				b.handleIncomingMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From != nil && !b.authSvc.IsAllowed(msg.From.ID) {
		b.log.Warn().Int64("user_id", msg.From.ID).Str("username", msg.From.UserName).Msg("unauthorized telegram user")
		b.sendMessage(msg.Chat.ID, "Sorry, this bot is restricted.")
		return
	}

	chatID := msg.Chat.ID
	ev := b.eventFor(ctx, msg)
	resp := b.dispatcher.Dispatch(ctx, b.sessions, ev)

	b.mu.Lock()
	if resp.ExpectingSlot != "" {
		b.pending[chatID] = resp.ExpectingSlot
	} else {
		delete(b.pending, chatID)
	}
	b.mu.Unlock()

	if resp.SpeechText != "" {
		b.sendMessage(chatID, resp.SpeechText)
	}
}

// eventFor builds the turn from a command, an answer to a pending slot, or
// free text.
func (b *Bot) eventFor(ctx context.Context, msg *tgbotapi.Message) dialogue.Event {
	ev := dialogue.Event{SessionID: strconv.FormatInt(msg.Chat.ID, 10), Channel: Channel}

	if msg.IsCommand() {
		ev.Intent, ev.Slots = parseCommand(msg.Command(), msg.CommandArguments())
		return ev
	}

	text := strings.TrimSpace(msg.Text)
	b.mu.Lock()
	slot, waiting := b.pending[msg.Chat.ID]
	b.mu.Unlock()
	if waiting && text != "" {
		ev.Intent = slotIntents[slot]
		ev.Slots = map[string]dialogue.Slot{slot: {Value: text}}
		return ev
	}

	res, err := b.recognizer.Recognize(ctx, text)
	if err != nil {
		b.log.Warn().Err(err).Msg("intent recognition failed")
	}
	ev.Intent, ev.Slots = res.Intent, res.Slots
	return ev
}

func parseCommand(cmd, args string) (string, map[string]dialogue.Slot) {
	args = strings.TrimSpace(args)
	withArg := func(intent, slot string) (string, map[string]dialogue.Slot) {
		if args == "" {
			return intent, nil
		}
		return intent, map[string]dialogue.Slot{slot: {Value: args}}
	}

	switch cmd {
	case "start":
		return dialogue.IntentWelcome, nil
	case "help":
		return dialogue.IntentHelp, nil
	case "username":
		return withArg(dialogue.IntentSetUsername, dialogue.SlotUsername)
	case "site":
		return withArg(dialogue.IntentSetSite, dialogue.SlotSite)
	case "jobs":
		return withArg(dialogue.IntentJobsStatus, dialogue.SlotDuration)
	case "tasks":
		return withArg(dialogue.IntentTasksStatus, dialogue.SlotDuration)
	case "sitestatus":
		return dialogue.IntentSiteStatus, siteStatusSlots(args)
	case "system":
		return withArg(dialogue.IntentSystemStatus, dialogue.SlotSystem)
	case "stop":
		return dialogue.IntentStop, nil
	default:
		return "", nil
	}
}

// siteStatusSlots splits "/sitestatus [site] [duration]".
func siteStatusSlots(args string) map[string]dialogue.Slot {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return nil
	}
	if _, err := duration.FromSlot(args, 0, ""); err == nil {
		return map[string]dialogue.Slot{dialogue.SlotDuration: {Value: args}}
	}
	slots := map[string]dialogue.Slot{dialogue.SlotSite: {Value: fields[0]}}
	if len(fields) > 1 {
		slots[dialogue.SlotDuration] = dialogue.Slot{Value: strings.Join(fields[1:], " ")}
	}
	return slots
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
	}
}
