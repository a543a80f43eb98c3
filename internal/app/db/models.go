package db

import (
	"context"

	"github.com/Aappo001/AI-Personal-Health-Assistant-sub000/internal/app/model"
)

// GetModel fetches a registered AI model by primary key.
func (q *Queries) GetModel(ctx context.Context, id int64) (model.AIModel, error) {
	const query = `
		SELECT id, name, provider_model
		FROM ai_models
		WHERE id = $1`

	var m model.AIModel
	err := q.pool.QueryRow(ctx, query, id).Scan(&m.ID, &m.Name, &m.ProviderModel)
	return m, err
}

// ListModels returns every registered AI model, ordered by id.
func (q *Queries) ListModels(ctx context.Context) ([]model.AIModel, error) {
	const query = `
		SELECT id, name, provider_model
		FROM ai_models
		ORDER BY id`

	rows, err := q.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []model.AIModel
	for rows.Next() {
		var m model.AIModel
		if err := rows.Scan(&m.ID, &m.Name, &m.ProviderModel); err != nil {
			return nil, err
		}
		models = append(models, m)
	}
	return models, rows.Err()
}
