package telegram

import (
	"context"
	"log/slog"
	"strings"

	"AutoPublisher/internal/domain"
	"AutoPublisher/internal/ports"
)

const notOwnerText = "Ты не мой хозяин"

type callbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

// DispatcherDeps wires the dispatcher.
type DispatcherDeps struct {
	OwnerID      int64
	Conversation ports.Conversation
	Messenger    ports.Messenger
	Answerer     callbackAnswerer
	Logger       *slog.Logger
}

// Dispatcher turns Bot API updates into operator input. Only the owner is
// served; everybody else gets a refusal.
type Dispatcher struct {
	ownerID      int64
	conversation ports.Conversation
	messenger    ports.Messenger
	answerer     callbackAnswerer
	logger       *slog.Logger
}

// NewDispatcher validates deps.
func NewDispatcher(deps DispatcherDeps) *Dispatcher {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		ownerID:      deps.OwnerID,
		conversation: deps.Conversation,
		messenger:    deps.Messenger,
		answerer:     deps.Answerer,
		logger:       logger.With("component", "telegram"),
	}
}

// Dispatch handles one update. Errors are logged; the conversation reports
// its own failures to the operator.
func (d *Dispatcher) Dispatch(ctx context.Context, upd Update) {
	input, ok := toInput(upd)
	if !ok {
		d.logger.DebugContext(ctx, "skip update", "update_id", upd.UpdateID)
		return
	}

	if upd.CallbackQuery != nil && d.answerer != nil {
		if err := d.answerer.AnswerCallback(ctx, upd.CallbackQuery.ID); err != nil {
			d.logger.WarnContext(ctx, "answer callback", "error", err)
		}
	}

	if input.UserID != d.ownerID {
		d.logger.WarnContext(ctx, "message from stranger", "user_id", input.UserID, "chat_id", input.ChatID)
		if err := d.messenger.Send(ctx, input.ChatID, domain.Reply{Text: notOwnerText}); err != nil {
			d.logger.WarnContext(ctx, "send refusal", "error", err)
		}
		return
	}

	if err := d.conversation.Handle(ctx, input); err != nil {
		d.logger.ErrorContext(ctx, "handle input", "kind", input.Kind, "error", err)
	}
}

func toInput(upd Update) (domain.Input, bool) {
	if cq := upd.CallbackQuery; cq != nil {
		if cq.Message == nil {
			return domain.Input{}, false
		}
		return domain.Input{
			ChatID: cq.Message.Chat.ID,
			UserID: cq.From.ID,
			Kind:   domain.InputChoice,
			Data:   cq.Data,
		}, true
	}

	msg := upd.Message
	if msg == nil || msg.From == nil {
		return domain.Input{}, false
	}
	input := domain.Input{ChatID: msg.Chat.ID, UserID: msg.From.ID}

	switch {
	case msg.Document != nil:
		input.Kind = domain.InputDocument
		input.Text = msg.Caption
		input.Document = &domain.Upload{
			FileID:   msg.Document.FileID,
			FileName: msg.Document.FileName,
			MimeType: msg.Document.MimeType,
			Size:     msg.Document.FileSize,
		}
	case strings.HasPrefix(msg.Text, "/"):
		input.Kind = domain.InputCommand
		input.Command = parseCommand(msg.Text)
		input.Text = msg.Text
	case msg.Text != "":
		input.Kind = domain.InputText
		input.Text = msg.Text
	default:
		return domain.Input{}, false
	}
	return input, true
}

// parseCommand returns "mail" for "/mail@SomeBot arg".
func parseCommand(text string) string {
	cmd, _, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd)
}
