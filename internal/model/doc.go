// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by the transport,
// turn controller and views: messages, sessions, tool progress,
// feedback, attachments and source citations.
package model
