package livechat

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "lending-backend/internal/domain/livechat"
	domainUser "lending-backend/internal/domain/user"
	"lending-backend/pkg/id"

	"github.com/sirupsen/logrus"
)

const (
	historyTurns = 20

	msgAssistantDown = "Our assistant is unavailable right now. A support agent will join shortly."
	msgAgentWanted   = "You asked for a human agent. Someone will join shortly."
	msgAgentJoined   = "A support agent joined the conversation."
	msgClosed        = "This conversation was closed."
)

var ErrEmptyMessage = errors.New("message body is required")

// Assistant answers a borrower given the recent conversation, oldest first.
type Assistant interface {
	Reply(ctx context.Context, history []Turn) (string, error)
}

// Publisher pushes events to live subscribers of a conversation.
type Publisher interface {
	Publish(topic, eventType string, payload any)
}

type Usecase struct {
	repo      domain.Repository
	assistant Assistant
	pub       Publisher
	log       *logrus.Logger
	now       func() time.Time
}

// NewUsecase: a nil assistant sends every conversation straight to the agent queue.
func NewUsecase(repo domain.Repository, a Assistant, pub Publisher, log *logrus.Logger) *Usecase {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Usecase{repo: repo, assistant: a, pub: pub, log: log, now: time.Now}
}

// Topic is the realtime topic of a conversation.
func Topic(conversationID string) string { return "chat." + conversationID }

func (u *Usecase) load(ctx context.Context, p domainUser.Principal, conversationID string) (*domain.Conversation, error) {
	c, err := u.repo.GetByConversationID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if c.UserID != p.ID && !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return c, nil
}

func (u *Usecase) append(ctx context.Context, c *domain.Conversation, sender domain.SenderType, senderID *uint64, body string) (*domain.Message, error) {
	m := &domain.Message{ConversationID: c.ID, SenderType: sender, SenderID: senderID, Body: body}
	if err := u.repo.AddMessage(ctx, m); err != nil {
		return nil, err
	}
	c.LastMessageAt = u.now().UTC()
	if err := u.repo.SaveConversation(ctx, c); err != nil {
		return nil, err
	}
	if u.pub != nil {
		u.pub.Publish(Topic(c.ConversationID), "message", toMessageDTO(m))
	}
	return m, nil
}

func (u *Usecase) setStatus(ctx context.Context, c *domain.Conversation, s domain.Status) error {
	c.Status = s
	if err := u.repo.SaveConversation(ctx, c); err != nil {
		return err
	}
	if u.pub != nil {
		u.pub.Publish(Topic(c.ConversationID), "status", toConversationDTO(c))
	}
	return nil
}

func thread(c *domain.Conversation, msgs ...*domain.Message) *ThreadDTO {
	out := &ThreadDTO{Conversation: toConversationDTO(c), Messages: make([]MessageDTO, 0, len(msgs))}
	for _, m := range msgs {
		out.Messages = append(out.Messages, toMessageDTO(m))
	}
	return out
}

// Start opens a conversation, optionally with a first message.
func (u *Usecase) Start(ctx context.Context, p domainUser.Principal, in StartInput) (*ThreadDTO, error) {
	c := &domain.Conversation{
		ConversationID: id.NewID32(),
		UserID:         p.ID,
		Subject:        strings.TrimSpace(in.Subject),
		Status:         domain.StatusAI,
		LastMessageAt:  u.now().UTC(),
	}
	if u.assistant == nil {
		c.Status = domain.StatusWaitingAgent
	}
	if err := u.repo.CreateConversation(ctx, c); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Message) == "" {
		return thread(c), nil
	}
	return u.post(ctx, p, c, in.Message)
}

func (u *Usecase) ListMine(ctx context.Context, userID uint64) ([]ConversationDTO, error) {
	items, err := u.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]ConversationDTO, 0, len(items))
	for i := range items {
		out = append(out, toConversationDTO(&items[i]))
	}
	return out, nil
}

// Queue lists conversations for staff, waiting_agent by default.
func (u *Usecase) Queue(ctx context.Context, status domain.Status, limit int) ([]ConversationDTO, error) {
	if status == "" {
		status = domain.StatusWaitingAgent
	}
	items, err := u.repo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ConversationDTO, 0, len(items))
	for i := range items {
		out = append(out, toConversationDTO(&items[i]))
	}
	return out, nil
}

func (u *Usecase) Messages(ctx context.Context, p domainUser.Principal, conversationID string, limit int) ([]MessageDTO, error) {
	c, err := u.load(ctx, p, conversationID)
	if err != nil {
		return nil, err
	}
	items, err := u.repo.ListMessages(ctx, c.ID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]MessageDTO, 0, len(items))
	for i := range items {
		out = append(out, toMessageDTO(&items[i]))
	}
	return out, nil
}

// Authorize checks that p may follow the conversation's live stream.
func (u *Usecase) Authorize(ctx context.Context, p domainUser.Principal, conversationID string) error {
	_, err := u.load(ctx, p, conversationID)
	return err
}

// PostUserMessage appends the borrower's message. While the conversation is
// with the assistant it answers too; an assistant failure hands the
// conversation to the agent queue.
func (u *Usecase) PostUserMessage(ctx context.Context, p domainUser.Principal, in PostInput) (*ThreadDTO, error) {
	c, err := u.load(ctx, p, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if c.UserID != p.ID {
		return nil, domain.ErrForbidden
	}
	return u.post(ctx, p, c, in.Body)
}

func (u *Usecase) post(ctx context.Context, p domainUser.Principal, c *domain.Conversation, body string) (*ThreadDTO, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if c.Status == domain.StatusClosed {
		return nil, domain.ErrClosed
	}
	sender := p.ID
	userMsg, err := u.append(ctx, c, domain.SenderUser, &sender, body)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.StatusAI {
		return thread(c, userMsg), nil
	}

	reply, err := u.ask(ctx, c)
	if err != nil {
		u.log.WithError(err).WithField("conversation", c.ConversationID).Warn("assistant failed, handing to agents")
		sys, err := u.append(ctx, c, domain.SenderSystem, nil, msgAssistantDown)
		if err != nil {
			return nil, err
		}
		if err := u.setStatus(ctx, c, domain.StatusWaitingAgent); err != nil {
			return nil, err
		}
		return thread(c, userMsg, sys), nil
	}
	aiMsg, err := u.append(ctx, c, domain.SenderAI, nil, reply)
	if err != nil {
		return nil, err
	}
	return thread(c, userMsg, aiMsg), nil
}

func (u *Usecase) ask(ctx context.Context, c *domain.Conversation) (string, error) {
	if u.assistant == nil {
		return "", errors.New("no assistant configured")
	}
	recent, err := u.repo.ListMessages(ctx, c.ID, historyTurns)
	if err != nil {
		return "", err
	}
	history := make([]Turn, 0, len(recent))
	for _, m := range recent {
		switch m.SenderType {
		case domain.SenderUser:
			history = append(history, Turn{FromUser: true, Content: m.Body})
		case domain.SenderAI, domain.SenderAgent:
			history = append(history, Turn{Content: m.Body})
		}
	}
	reply, err := u.assistant.Reply(ctx, history)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", domain.ErrEmptyResponse
	}
	return reply, nil
}

// RequestAgent moves an assistant conversation to the agent queue.
func (u *Usecase) RequestAgent(ctx context.Context, p domainUser.Principal, conversationID string) (*ThreadDTO, error) {
	c, err := u.load(ctx, p, conversationID)
	if err != nil {
		return nil, err
	}
	switch c.Status {
	case domain.StatusClosed:
		return nil, domain.ErrClosed
	case domain.StatusWaitingAgent, domain.StatusActive:
		return nil, domain.ErrAlreadyHuman
	}
	sys, err := u.append(ctx, c, domain.SenderSystem, nil, msgAgentWanted)
	if err != nil {
		return nil, err
	}
	if err := u.setStatus(ctx, c, domain.StatusWaitingAgent); err != nil {
		return nil, err
	}
	return thread(c, sys), nil
}

// AgentJoin assigns the calling agent. Joining a conversation another agent
// holds is refused.
func (u *Usecase) AgentJoin(ctx context.Context, p domainUser.Principal, conversationID string) (*ThreadDTO, error) {
	c, err := u.load(ctx, p, conversationID)
	if err != nil {
		return nil, err
	}
	if c.Status == domain.StatusClosed {
		return nil, domain.ErrClosed
	}
	if c.AssignedAgentID != nil && *c.AssignedAgentID != p.ID && c.Status == domain.StatusActive {
		return nil, domain.ErrNotAssigned
	}
	agent := p.ID
	c.AssignedAgentID = &agent
	sys, err := u.append(ctx, c, domain.SenderSystem, nil, msgAgentJoined)
	if err != nil {
		return nil, err
	}
	if err := u.setStatus(ctx, c, domain.StatusActive); err != nil {
		return nil, err
	}
	return thread(c, sys), nil
}

func (u *Usecase) AgentReply(ctx context.Context, p domainUser.Principal, in PostInput) (*ThreadDTO, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	c, err := u.load(ctx, p, in.ConversationID)
	if err != nil {
		return nil, err
	}
	if c.Status == domain.StatusClosed {
		return nil, domain.ErrClosed
	}
	if c.Status != domain.StatusActive || c.AssignedAgentID == nil || *c.AssignedAgentID != p.ID {
		return nil, domain.ErrNotAssigned
	}
	agent := p.ID
	m, err := u.append(ctx, c, domain.SenderAgent, &agent, body)
	if err != nil {
		return nil, err
	}
	return thread(c, m), nil
}

// Close ends the conversation for the owner or staff.
func (u *Usecase) Close(ctx context.Context, p domainUser.Principal, conversationID string) (*ThreadDTO, error) {
	c, err := u.load(ctx, p, conversationID)
	if err != nil {
		return nil, err
	}
	if c.Status == domain.StatusClosed {
		return nil, domain.ErrClosed
	}
	sys, err := u.append(ctx, c, domain.SenderSystem, nil, msgClosed)
	if err != nil {
		return nil, err
	}
	now := u.now().UTC()
	c.ClosedAt = &now
	if err := u.setStatus(ctx, c, domain.StatusClosed); err != nil {
		return nil, err
	}
	return thread(c, sys), nil
}
