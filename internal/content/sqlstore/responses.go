package sqlstore

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"

	"github.com/Alijeyrad/surveybot/internal/content"
)

var responseColumns = []string{"id", "category_id", "min_score", "max_score", "title", "response_text", "created_at"}

func scanCategoryResponse(rows *sql.Rows) (content.CategoryResponse, error) {
	var (
		r       content.CategoryResponse
		created int64
	)
	err := rows.Scan(&r.ID, &r.CategoryID, &r.MinScore, &r.MaxScore, &r.Title, &r.ResponseText, &created)
	r.CreatedAt = fromMillis(created)
	return r, err
}

func (s *Store) CreateCategoryResponse(ctx context.Context, r content.CategoryResponse) (*content.CategoryResponse, error) {
	if _, err := s.GetCategory(ctx, r.CategoryID); err != nil {
		return nil, err
	}
	id, err := s.insert(ctx, s.drv, s.b().Insert(tableResponses).
		Columns("category_id", "min_score", "max_score", "title", "response_text", "created_at").
		Values(r.CategoryID, r.MinScore, r.MaxScore, r.Title, r.ResponseText, s.stamp()))
	if err != nil {
		return nil, fmt.Errorf("create category response: %w", err)
	}
	return first(ctx, s.drv, s.b().Select(responseColumns...).
		From(s.b().Table(tableResponses)).
		Where(sql.EQ("id", id)), scanCategoryResponse)
}

func (s *Store) CategoryResponses(ctx context.Context, categoryID int64) ([]content.CategoryResponse, error) {
	rs, err := queryAll(ctx, s.drv, s.b().Select(responseColumns...).
		From(s.b().Table(tableResponses)).
		Where(sql.EQ("category_id", categoryID)).
		OrderBy("min_score", "id"), scanCategoryResponse)
	if err != nil {
		return nil, fmt.Errorf("category responses for %d: %w", categoryID, err)
	}
	return rs, nil
}

func (s *Store) DeleteCategoryResponse(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, s.drv, tableResponses, id)
}
