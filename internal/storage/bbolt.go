package storage

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/ejamakovic/chat-app-FE/internal/models"

	"go.etcd.io/bbolt"
)

const GlobalChatID = "global"

var (
	bucketUsers    = []byte("users")
	bucketMessages = []byte("messages")
)

type BboltStorage struct {
	db  *bbolt.DB
	now func() time.Time
}

func NewBboltStorage(path string) (*BboltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketUsers); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketMessages); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &BboltStorage{db: db, now: time.Now}, nil
}

func (s *BboltStorage) Close() error {
	return s.db.Close()
}

// DMChatID returns the order-insensitive chat id of a private pair. The
// separators are outside the handle alphabet, so distinct pairs never share
// an id.
func DMChatID(u1, u2 string) string {
	ids := []string{u1, u2}
	sort.Strings(ids)
	return fmt.Sprintf("dm:%s|%s", ids[0], ids[1])
}

// ChatID returns the bucket a message belongs to.
func ChatID(m models.Message) string {
	if m.Receiver == nil {
		return GlobalChatID
	}
	return DMChatID(m.Sender.Username, m.Receiver.Username)
}

func put(b *bbolt.Bucket, item Storeable) error {
	data, err := item.MarshalBinary()
	if err != nil {
		return err
	}
	return b.Put(item.Key(), data)
}

func getUser(b *bbolt.Bucket, username string) (*DBUser, error) {
	data := b.Get([]byte(username))
	if data == nil {
		return nil, models.ErrNotFound
	}
	var u DBUser
	if err := u.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user %s: %w", username, err)
	}
	return &u, nil
}

// UpsertUser registers a participant in the directory. Existing entries are
// returned unchanged.
func (s *BboltStorage) UpsertUser(username string) (models.User, error) {
	var user models.User
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		u, err := getUser(b, username)
		if err == nil {
			user = models.User{Username: u.Username, Connected: u.Connected}
			return nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return err
		}
		user = models.User{Username: username}
		return put(b, &DBUser{Username: username, LastSeen: s.now().Unix()})
	})
	return user, err
}

// SetConnected updates the presence flag of a participant, creating the
// entry when missing. It reports whether the flag actually changed.
func (s *BboltStorage) SetConnected(username string, connected bool) (bool, error) {
	changed := false
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		u, err := getUser(b, username)
		switch {
		case errors.Is(err, models.ErrNotFound):
			u = &DBUser{Username: username}
		case err != nil:
			return err
		}
		changed = u.Connected != connected
		u.Connected = connected
		u.LastSeen = s.now().Unix()
		return put(b, u)
	})
	return changed, err
}

// ResetPresence marks every participant as disconnected. Called on startup
// since no push connection survives a restart.
func (s *BboltStorage) ResetPresence() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		var stale []*DBUser
		err := b.ForEach(func(k, v []byte) error {
			var u DBUser
			if err := u.UnmarshalBinary(v); err != nil {
				return err
			}
			if u.Connected {
				u.Connected = false
				stale = append(stale, &u)
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, u := range stale {
			if err := put(b, u); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListUsers returns the whole directory ordered by handle.
func (s *BboltStorage) ListUsers() ([]models.User, error) {
	users := []models.User{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		return b.ForEach(func(k, v []byte) error {
			var u DBUser
			if err := u.UnmarshalBinary(v); err != nil {
				return err
			}
			users = append(users, models.User{Username: u.Username, Connected: u.Connected})
			return nil
		})
	})
	return users, err
}

// AppendMessage stores the message at the end of its chat and returns it
// with the stored timestamp.
func (s *BboltStorage) AppendMessage(message models.Message) (models.Message, error) {
	if message.Timestamp.IsZero() {
		message.Timestamp = s.now()
	}
	message.Timestamp = message.Timestamp.UTC().Truncate(time.Millisecond)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		chatID := ChatID(message)
		chatBucket, err := tx.Bucket(bucketMessages).CreateBucketIfNotExists([]byte(chatID))
		if err != nil {
			return fmt.Errorf("failed to create chat bucket: %w", err)
		}

		seq, err := chatBucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate sequence: %w", err)
		}

		dbMessage := &DBMessage{
			Seq:       seq,
			Timestamp: message.Timestamp.UnixMilli(),
			ChatID:    chatID,
			Sender:    message.Sender.Username,
			Content:   message.Content,
		}
		if message.Receiver != nil {
			dbMessage.Receiver = message.Receiver.Username
		}

		if err := put(chatBucket, dbMessage); err != nil {
			return fmt.Errorf("failed to put message: %w", err)
		}
		return nil
	})
	return message, err
}

// ListPrivateMessages returns the messages exchanged between u1 and u2 in
// insertion order.
func (s *BboltStorage) ListPrivateMessages(u1, u2 string) ([]models.Message, error) {
	msgs, err := s.ListMessages(DMChatID(u1, u2))
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(msgs, func(m models.Message) bool {
		if m.Receiver == nil {
			return true
		}
		a, b := m.Sender.Username, m.Receiver.Username
		return (a != u1 || b != u2) && (a != u2 || b != u1)
	}), nil
}

// ListMessages returns the messages of a chat in insertion order.
func (s *BboltStorage) ListMessages(chatID string) ([]models.Message, error) {
	messages := []models.Message{}
	err := s.db.View(func(tx *bbolt.Tx) error {
		chatBucket := tx.Bucket(bucketMessages).Bucket([]byte(chatID))
		if chatBucket == nil {
			return nil // No messages for this chat
		}

		return chatBucket.ForEach(func(k, v []byte) error {
			var dbMsg DBMessage
			if err := dbMsg.UnmarshalBinary(v); err != nil {
				return err
			}
			msg := models.Message{
				Sender:    models.UserRef{Username: dbMsg.Sender},
				Content:   dbMsg.Content,
				Timestamp: time.UnixMilli(dbMsg.Timestamp).UTC(),
			}
			if dbMsg.Receiver != "" {
				msg.Receiver = &models.UserRef{Username: dbMsg.Receiver}
			}
			messages = append(messages, msg)
			return nil
		})
	})
	return messages, err
}
