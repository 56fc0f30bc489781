package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Grupo-Cloud/frontend/internal/client/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

// now is swapped in tests.
var now = time.Now

func chatID(c models.Chat) uuid.UUID { return c.ID }
func chatName(c models.Chat) string  { return c.Name }

// Chats prints the chat history: date, message count and the last message.
func (a *App) Chats(ctx context.Context) error {
	me, err := a.userService.Me(ctx)
	if err != nil {
		return err
	}
	if len(me.Chats) == 0 {
		fmt.Fprintln(a.out, "No chats yet. Start one with: newchat [name]")
		return nil
	}

	history, err := a.chatService.History(ctx, me.Chats)
	if err != nil {
		return err
	}

	t := now()
	for i, c := range history {
		date := c.CreationDate
		if created, ok := c.Created(); ok {
			date = FormatDate(created, t)
		}
		mark := " "
		if a.selected != nil && a.selected.ID == c.ID {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s%2d. %s  (%s, %d messages)\n", mark, i+1, c.Name, date, c.MessageCount)
		if c.LastMessage != "" {
			fmt.Fprintf(a.out, "      %s\n", c.LastMessage)
		}
	}
	return nil
}

// NewChat creates a chat and selects it. Without a name it is called
// "Chat <date time>".
func (a *App) NewChat(ctx context.Context, name string) error {
	if name == "" {
		name = "Chat " + now().Format("2006-01-02 15:04:05")
	}
	me, err := a.userService.Me(ctx)
	if err != nil {
		return err
	}
	c, err := a.chatService.Create(ctx, me.ID, name)
	if err != nil {
		return err
	}
	a.selected = c
	fmt.Fprintf(a.out, "Created and opened %q\n", c.Name)
	return nil
}

// Open selects a chat and prints its messages.
func (a *App) Open(ctx context.Context, ref string) error {
	me, err := a.userService.Me(ctx)
	if err != nil {
		return err
	}
	c, err := lookup(me.Chats, ref, chatID, chatName)
	if err != nil {
		if errors.Is(err, errUsage) {
			return fmt.Errorf("%w: open <n|id|name>", errUsage)
		}
		return err
	}
	a.selected = &c
	fmt.Fprintf(a.out, "Opened %q\n", c.Name)
	return a.Messages(ctx)
}

// RemoveChat deletes a chat. Deleting the open chat closes it.
func (a *App) RemoveChat(ctx context.Context, ref string) error {
	me, err := a.userService.Me(ctx)
	if err != nil {
		return err
	}
	c, err := lookup(me.Chats, ref, chatID, chatName)
	if err != nil {
		if errors.Is(err, errUsage) {
			return fmt.Errorf("%w: rmchat <n|id|name>", errUsage)
		}
		return err
	}

	if err := a.chatService.Delete(ctx, me.ID, c.ID); err != nil {
		return err
	}
	if a.selected != nil && a.selected.ID == c.ID {
		a.selected = nil
	}
	fmt.Fprintf(a.out, "Deleted %q\n", c.Name)
	return nil
}

func (a *App) Messages(ctx context.Context) error {
	if a.selected == nil {
		return errNoChat
	}
	msgs, err := a.chatService.Messages(ctx, a.selected.ID)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		fmt.Fprintln(a.out, "No messages yet. Ask something with: ask <question>")
		return nil
	}
	for _, m := range msgs {
		printMessage(a, m.Message)
	}
	return nil
}

var (
	userLabel      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
)

// printMessage writes one chat line. On a terminal the labels are styled and
// assistant replies are rendered as markdown.
func printMessage(a *App, m models.Message) {
	who, style := "assistant", assistantLabel
	if m.FromUser {
		who, style = "you", userLabel
	}
	if !a.pretty {
		fmt.Fprintf(a.out, "[%s] %s\n", who, m.Content)
		return
	}

	content := m.Content
	if !m.FromUser && a.markdown != nil {
		if rendered, err := a.markdown.Render(content); err == nil {
			content = strings.Trim(rendered, "\n")
		}
	}
	fmt.Fprintf(a.out, "%s\n%s\n", style.Render(who), content)
}

// Ask sends a question in the open chat and prints the reply. It needs an
// open chat and at least one uploaded document. Without a question on the
// command line the question is read as multi-line input.
func (a *App) Ask(ctx context.Context, question string) error {
	if a.selected == nil {
		return errNoChat
	}
	me, err := a.userService.Me(ctx)
	if err != nil {
		return err
	}
	if len(me.Documents) == 0 {
		return errNoDocuments
	}

	if question == "" {
		question, err = GetMultiline(a.reader, "Enter your question", a.out)
		if err != nil {
			return err
		}
	}

	reply, err := a.chatService.Ask(ctx, a.selected.ID, question)
	if err != nil {
		return err
	}
	printMessage(a, reply.Message)
	return nil
}
