// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// login.go - Authentication command handlers for the unibot CLI.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// HandleLogin implements `unibot login`.
// SECURITY: the password is read with echo off and never written to
// disk; only the returned token is persisted, encrypted at rest.
func HandleLogin(args []string) {
	cfg := loadConfig()
	client, authCtx, err := newClient(cfg)
	if err != nil {
		fail(err)
	}
	if authCtx.Authenticated() {
		fmt.Printf("already signed in as %s, run `unibot logout` first to switch accounts\n", authCtx.Name())
		return
	}

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Student ID or email: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		fail(err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		fail(fmt.Errorf("a username is required"))
	}

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fail(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout())
	defer cancel()

	resp, err := client.Login(ctx, username, string(password))
	if err != nil {
		fail(err)
	}
	if err := authCtx.Login(resp.User.ID, resp.User.Name, resp.Token); err != nil {
		fail(fmt.Errorf("signed in but could not save the token: %w", err))
	}
	fmt.Printf("Signed in as %s\n", resp.User.Name)
}

// HandleLogout implements `unibot logout`.
func HandleLogout(args []string) {
	cfg := loadConfig()
	_, authCtx, err := newClient(cfg)
	if err != nil {
		fail(err)
	}
	if err := authCtx.Logout(); err != nil {
		fail(err)
	}
	fmt.Println("Signed out")
}
