package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/D-Abramoc/chatrelay/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for an email, a password twice and an optional Telegram
// chat id, then attempts to create a new account.
//
// The password byte slices are wiped before returning.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	repeat, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(repeat)

	var telegramID *int64
	raw, err := getSimpleText(a.reader, "Enter Telegram chat id (empty to skip)", os.Stdout)
	if err != nil {
		return err
	}
	if raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("telegram chat id must be numeric: %w", err)
		}
		telegramID = &id
	}

	if err := a.api.Register(ctx, email, string(password), string(repeat), telegramID); err != nil {
		return err
	}

	fmt.Println("Success!")
	return nil
}

// Login prompts for credentials and stores the session token on success.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	token, err := a.api.Login(ctx, email, string(password))
	if err != nil {
		return err
	}

	a.token = token
	fmt.Println("Login successful")
	return nil
}
