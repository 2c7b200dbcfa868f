package sqlstore

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"github.com/Alijeyrad/surveybot/internal/content"
)

var (
	questionColumns = []string{"id", "category_id", "text", "order_num", "created_at"}
	answerColumns   = []string{"id", "question_id", "text", "value", "created_at"}
)

func scanQuestion(rows *sql.Rows) (content.Question, error) {
	var (
		q       content.Question
		created int64
	)
	err := rows.Scan(&q.ID, &q.CategoryID, &q.Text, &q.OrderNum, &created)
	q.CreatedAt = fromMillis(created)
	return q, err
}

func scanAnswer(rows *sql.Rows) (content.Answer, error) {
	var (
		a       content.Answer
		created int64
	)
	err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Value, &created)
	a.CreatedAt = fromMillis(created)
	return a, err
}

// CreateQuestionWithAnswers writes a question and all its answers in one
// transaction. Readers never observe the question without its answers.
func (s *Store) CreateQuestionWithAnswers(ctx context.Context, q content.Question, answers []content.NewAnswer) (*content.QuestionWithAnswers, error) {
	if len(answers) == 0 {
		return nil, content.ErrNoAnswers
	}

	var out content.QuestionWithAnswers
	err := s.withTx(ctx, func(tx dialect.Tx) error {
		if _, err := s.getCategory(ctx, tx, q.CategoryID); err != nil {
			return err
		}

		now := s.stamp()
		qid, err := s.insert(ctx, tx, s.b().Insert(tableQuestions).
			Columns("category_id", "text", "order_num", "created_at").
			Values(q.CategoryID, q.Text, q.OrderNum, now))
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}

		for _, a := range answers {
			if _, err := s.insert(ctx, tx, s.b().Insert(tableAnswers).
				Columns("question_id", "text", "value", "created_at").
				Values(qid, a.Text, a.Value, now)); err != nil {
				return fmt.Errorf("insert answer %q: %w", a.Text, err)
			}
		}

		stored, err := s.getQuestion(ctx, tx, qid)
		if err != nil {
			return err
		}
		out.Question = *stored
		out.Answers, err = s.answersForQuestion(ctx, tx, qid)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return &out, nil
}

func (s *Store) GetQuestion(ctx context.Context, id int64) (*content.Question, error) {
	return s.getQuestion(ctx, s.drv, id)
}

func (s *Store) getQuestion(ctx context.Context, q dialect.ExecQuerier, id int64) (*content.Question, error) {
	return first(ctx, q, s.b().Select(questionColumns...).
		From(s.b().Table(tableQuestions)).
		Where(sql.EQ("id", id)), scanQuestion)
}

func (s *Store) QuestionsForCategory(ctx context.Context, categoryID int64) ([]content.Question, error) {
	qs, err := queryAll(ctx, s.drv, s.b().Select(questionColumns...).
		From(s.b().Table(tableQuestions)).
		Where(sql.EQ("category_id", categoryID)).
		OrderBy("order_num", "id"), scanQuestion)
	if err != nil {
		return nil, fmt.Errorf("questions for category %d: %w", categoryID, err)
	}
	return qs, nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx dialect.Tx) error {
		if _, err := execB(ctx, tx, s.b().Delete(tableAnswers).
			Where(sql.EQ("question_id", id))); err != nil {
			return fmt.Errorf("delete answers: %w", err)
		}
		return s.deleteByID(ctx, tx, tableQuestions, id)
	})
}

func (s *Store) AnswersForQuestion(ctx context.Context, questionID int64) ([]content.Answer, error) {
	as, err := s.answersForQuestion(ctx, s.drv, questionID)
	if err != nil {
		return nil, fmt.Errorf("answers for question %d: %w", questionID, err)
	}
	return as, nil
}

func (s *Store) answersForQuestion(ctx context.Context, q dialect.ExecQuerier, questionID int64) ([]content.Answer, error) {
	return queryAll(ctx, q, s.b().Select(answerColumns...).
		From(s.b().Table(tableAnswers)).
		Where(sql.EQ("question_id", questionID)).
		OrderBy("value", "id"), scanAnswer)
}

func (s *Store) GetAnswer(ctx context.Context, id int64) (*content.Answer, error) {
	return first(ctx, s.drv, s.b().Select(answerColumns...).
		From(s.b().Table(tableAnswers)).
		Where(sql.EQ("id", id)), scanAnswer)
}

func (s *Store) DeleteAnswer(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, s.drv, tableAnswers, id)
}
