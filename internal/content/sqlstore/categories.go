package sqlstore

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"github.com/Alijeyrad/surveybot/internal/content"
)

var categoryColumns = []string{"id", "name", "description", "created_at"}

func scanCategory(rows *sql.Rows) (content.Category, error) {
	var (
		c       content.Category
		created int64
	)
	err := rows.Scan(&c.ID, &c.Name, &c.Description, &created)
	c.CreatedAt = fromMillis(created)
	return c, err
}

func (s *Store) CreateCategory(ctx context.Context, name, description string) (*content.Category, error) {
	id, err := s.insert(ctx, s.drv, s.b().Insert(tableCategories).
		Columns("name", "description", "created_at").
		Values(name, description, s.stamp()))
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return s.GetCategory(ctx, id)
}

func (s *Store) GetCategory(ctx context.Context, id int64) (*content.Category, error) {
	return s.getCategory(ctx, s.drv, id)
}

func (s *Store) getCategory(ctx context.Context, q dialect.ExecQuerier, id int64) (*content.Category, error) {
	return first(ctx, q, s.b().Select(categoryColumns...).
		From(s.b().Table(tableCategories)).
		Where(sql.EQ("id", id)), scanCategory)
}

// ListCategories returns categories in creation order.
func (s *Store) ListCategories(ctx context.Context) ([]content.Category, error) {
	cats, err := queryAll(ctx, s.drv, s.b().Select(categoryColumns...).
		From(s.b().Table(tableCategories)).
		OrderBy("created_at", "id"), scanCategory)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// DeleteCategory removes the category with its questions, answers and score
// rules. The cascade is explicit so it holds even where foreign keys are not
// enforced.
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx dialect.Tx) error {
		if _, err := s.getCategory(ctx, tx, id); err != nil {
			return err
		}

		questionIDs := s.b().Select("id").
			From(s.b().Table(tableQuestions)).
			Where(sql.EQ("category_id", id))
		if _, err := execB(ctx, tx, s.b().Delete(tableAnswers).
			Where(sql.In("question_id", questionIDs))); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		if _, err := execB(ctx, tx, s.b().Delete(tableQuestions).
			Where(sql.EQ("category_id", id))); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		if _, err := execB(ctx, tx, s.b().Delete(tableResponses).
			Where(sql.EQ("category_id", id))); err != nil {
			return fmt.Errorf("delete category responses: %w", err)
		}
		return s.deleteByID(ctx, tx, tableCategories, id)
	})
}
