package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"botgpt-backend/internal/model"
)

// Store bundles the repositories over one gorm handle. Inside Transaction the
// handle is the transaction itself.
type Store struct {
	db            *gorm.DB
	Users         *UserRepository
	Conversations *ConversationRepository
	Messages      *MessageRepository
	Documents     *DocumentRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Users:         NewUserRepository(db),
		Conversations: NewConversationRepository(db),
		Messages:      NewMessageRepository(db),
		Documents:     NewDocumentRepository(db),
	}
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.Message{},
		&model.Document{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

// Transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db failed: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database failed: %w", err)
	}
	return nil
}

// DeleteConversation removes messages, then the document, then the
// conversation row.
func (s *Store) DeleteConversation(ctx context.Context, id uint) error {
	return s.Transaction(ctx, func(tx *Store) error {
		return tx.deleteConversation(ctx, id)
	})
}

// DeleteUser cascades over every conversation the user owns and returns the
// ids that were removed.
func (s *Store) DeleteUser(ctx context.Context, userID uint) ([]uint, error) {
	var removed []uint
	err := s.Transaction(ctx, func(tx *Store) error {
		ids, err := tx.Conversations.ListIDsByUserID(ctx, userID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if err := tx.deleteConversation(ctx, id); err != nil {
				return err
			}
		}
		if err := tx.Users.Delete(ctx, userID); err != nil {
			return err
		}
		removed = ids
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *Store) deleteConversation(ctx context.Context, id uint) error {
	if err := s.Messages.DeleteByConversationID(ctx, id); err != nil {
		return err
	}
	if err := s.Documents.DeleteByConversationID(ctx, id); err != nil {
		return err
	}
	return s.Conversations.Delete(ctx, id)
}
