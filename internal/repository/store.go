// Package repository persists threads, turns and runs for the local
// assistant emulator.
package repository

import (
	"context"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

// Store defines the storage interface for the local emulator.
type Store interface {
	// Thread operations
	CreateThread(ctx context.Context, thread *domain.Thread) error
	GetThread(ctx context.Context, threadID string) (*domain.Thread, error)

	// Turn operations
	CreateTurn(ctx context.Context, turn *domain.Turn) error
	ListTurns(ctx context.Context, threadID string, order domain.ListOrder, limit int) ([]domain.Turn, error)

	// Run operations
	CreateRun(ctx context.Context, run *domain.Run) error
	GetRun(ctx context.Context, runID string) (*domain.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status domain.RunStatus, lastError string) error

	Close() error
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
