// Package teletest provides an in-memory tele.Context for handler tests.
package teletest

import (
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"
)

// Call is one outbound Send or Edit captured by Context.
type Call struct {
	What any
	Opts []any
}

// Text returns the payload when it is a string.
func (c Call) Text() string {
	s, _ := c.What.(string)
	return s
}

// Markup returns the first reply markup among the options.
func (c Call) Markup() *tele.ReplyMarkup {
	for _, o := range c.Opts {
		switch v := o.(type) {
		case *tele.ReplyMarkup:
			return v
		case *tele.SendOptions:
			if v != nil {
				return v.ReplyMarkup
			}
		}
	}
	return nil
}

// Context records replies instead of calling the Bot API. Methods not
// overridden here panic through the nil embedded interface.
type Context struct {
	tele.Context

	mu        sync.Mutex
	update    tele.Update
	store     map[string]any
	Sent      []Call
	Edited    []Call
	Responded int
	SendErr   error
}

// New wraps an update.
func New(u tele.Update) *Context {
	return &Context{update: u, store: make(map[string]any)}
}

// Private builds a text message from user in their private chat.
func Private(user *tele.User, text string) *Context {
	return New(tele.Update{ID: 1, Message: message(user, &tele.Chat{ID: user.ID, Type: tele.ChatPrivate}, text)})
}

// Group builds a text message from user in a group chat.
func Group(user *tele.User, chatID int64, title, text string) *Context {
	return New(tele.Update{ID: 1, Message: message(user, &tele.Chat{ID: chatID, Type: tele.ChatSuperGroup, Title: title}, text)})
}

// Callback builds a callback press with raw data in the given chat.
func Callback(user *tele.User, chat *tele.Chat, data string) *Context {
	return New(tele.Update{ID: 1, Callback: &tele.Callback{
		ID:      "cb",
		Sender:  user,
		Data:    data,
		Message: &tele.Message{ID: 10, Chat: chat},
	}})
}

func message(user *tele.User, chat *tele.Chat, text string) *tele.Message {
	m := &tele.Message{ID: 10, Sender: user, Chat: chat, Text: text}
	if strings.HasPrefix(text, "/") {
		_, payload, _ := strings.Cut(text, " ")
		m.Payload = strings.TrimSpace(payload)
	}
	return m
}

func (c *Context) Update() tele.Update { return c.update }

func (c *Context) Message() *tele.Message {
	switch {
	case c.update.Message != nil:
		return c.update.Message
	case c.update.Callback != nil:
		return c.update.Callback.Message
	}
	return nil
}

func (c *Context) Callback() *tele.Callback { return c.update.Callback }

func (c *Context) Sender() *tele.User {
	switch {
	case c.update.Callback != nil:
		return c.update.Callback.Sender
	case c.update.Message != nil:
		return c.update.Message.Sender
	}
	return nil
}

func (c *Context) Chat() *tele.Chat {
	if m := c.Message(); m != nil {
		return m.Chat
	}
	return nil
}

func (c *Context) Text() string {
	if m := c.Message(); m != nil {
		return m.Text
	}
	return ""
}

func (c *Context) Data() string {
	if c.update.Callback != nil {
		return c.update.Callback.Data
	}
	if m := c.Message(); m != nil {
		return m.Payload
	}
	return ""
}

func (c *Context) Args() []string {
	if m := c.update.Message; m != nil && m.Payload != "" {
		return strings.Fields(m.Payload)
	}
	return nil
}

func (c *Context) Get(key string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store[key]
}

func (c *Context) Set(key string, val any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = val
}

func (c *Context) Send(what any, opts ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Sent = append(c.Sent, Call{What: what, Opts: opts})
	return nil
}

func (c *Context) Reply(what any, opts ...any) error { return c.Send(what, opts...) }

func (c *Context) Edit(what any, opts ...any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Edited = append(c.Edited, Call{What: what, Opts: opts})
	return nil
}

func (c *Context) EditOrSend(what any, opts ...any) error {
	if c.update.Callback != nil {
		return c.Edit(what, opts...)
	}
	return c.Send(what, opts...)
}

func (c *Context) Respond(...*tele.CallbackResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Responded++
	return nil
}

// LastText returns the text of the last sent message, or "".
func (c *Context) LastText() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.Sent) == 0 {
		return ""
	}
	return c.Sent[len(c.Sent)-1].Text()
}
