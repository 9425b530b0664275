package search

import "github.com/hyperjump/kbase/internal/models"

// ProcessQuery validates and applies defaults to the retrieve query.
func ProcessQuery(query *models.RetrieveQuery) error {
	return query.Validate()
}
