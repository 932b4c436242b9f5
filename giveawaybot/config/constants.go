package config

import "time"

// Application-wide constants organized by domain

// UI and Display Constants
const (
	// Pagination
	EntriesPerPage  = 10
	DefaultHistory  = 100
	MaxHistoryLimit = 500
	MaxWinnersShown = 25

	// Colors
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00

	// Discord UI Colors
	EmbedDefaultColor = 0x2B2D31
)

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout = 30 * time.Second
	ClaimTimeout        = 15 * time.Second
)
