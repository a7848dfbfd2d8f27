package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

var errNotLoggedIn = errors.New("login first")

// Chat opens the live connection and relays lines between the terminal and
// the server. A line is "<recipient id> <text>"; "/quit" ends the session.
func (a *App) Chat(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	conn, err := a.api.DialChat(ctx, a.token)
	if err != nil {
		return err
	}
	defer conn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fmt.Println(string(data))
		}
	}()

	fmt.Println("Connected. Send messages as \"<recipient id> <text>\", /quit to leave.")

	for {
		line, err := a.reader.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" {
			break
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return err
		}
	}

	_ = conn.Close()
	<-done
	return nil
}

// History prints the conversation with another user, oldest first.
func (a *App) History(ctx context.Context) error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}

	raw, err := getSimpleText(a.reader, "Enter user id", os.Stdout)
	if err != nil {
		return err
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("user id must be numeric: %w", err)
	}

	history, err := a.api.History(ctx, a.token, userID)
	if err != nil {
		return err
	}

	if len(history) == 0 {
		fmt.Println("No messages yet")
		return nil
	}
	for _, msg := range history {
		fmt.Printf("[%s] %d -> %d: %s\n", msg.CreatedAt.Format("2006-01-02 15:04"), msg.SenderID, msg.RecipientID, msg.Content)
	}
	return nil
}
