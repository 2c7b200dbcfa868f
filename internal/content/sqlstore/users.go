package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"github.com/Alijeyrad/surveybot/internal/content"
)

var userColumns = []string{"chat_id", "phone_number", "display_name", "username", "created_at"}

func (s *Store) scanUser(rows *sql.Rows) (content.User, error) {
	var (
		u       content.User
		created int64
	)
	if err := rows.Scan(&u.ChatID, &u.PhoneNumber, &u.DisplayName, &u.Username, &created); err != nil {
		return u, err
	}
	phone, err := s.phones.Open(u.PhoneNumber)
	if err != nil {
		return u, fmt.Errorf("decrypt phone for %d: %w", u.ChatID, err)
	}
	u.PhoneNumber = phone
	u.CreatedAt = fromMillis(created)
	return u, nil
}

// UpsertUser inserts or refreshes the contact fields of u. created_at is
// kept from the first registration.
func (s *Store) UpsertUser(ctx context.Context, u content.User) (*content.User, error) {
	phone, err := s.phones.Seal(u.PhoneNumber)
	if err != nil {
		return nil, fmt.Errorf("encrypt phone: %w", err)
	}

	err = s.withTx(ctx, func(tx dialect.Tx) error {
		_, err := s.getUser(ctx, tx, u.ChatID)
		switch {
		case errors.Is(err, content.ErrNotFound):
			_, err = execB(ctx, tx, s.b().Insert(tableUsers).
				Columns(userColumns...).
				Values(u.ChatID, phone, u.DisplayName, u.Username, s.stamp()))
			return err
		case err != nil:
			return err
		}
		_, err = execB(ctx, tx, s.b().Update(tableUsers).
			Set("phone_number", phone).
			Set("display_name", u.DisplayName).
			Set("username", u.Username).
			Where(sql.EQ("chat_id", u.ChatID)))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("upsert user %d: %w", u.ChatID, err)
	}
	return s.GetUser(ctx, u.ChatID)
}

func (s *Store) GetUser(ctx context.Context, chatID int64) (*content.User, error) {
	return s.getUser(ctx, s.drv, chatID)
}

func (s *Store) getUser(ctx context.Context, q dialect.ExecQuerier, chatID int64) (*content.User, error) {
	return first(ctx, q, s.b().Select(userColumns...).
		From(s.b().Table(tableUsers)).
		Where(sql.EQ("chat_id", chatID)), s.scanUser)
}
