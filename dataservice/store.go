package dataservice

import (
	"context"
	"errors"
	"net/http"

	"wellness-step-by-step/client-form/models"
)

// StoreService serves the data-access contract straight from the client
// table, for deployments where the form runs next to the database.
type StoreService struct {
	repo models.Repository
}

func NewStoreService(repo models.Repository) *StoreService {
	return &StoreService{repo: repo}
}

func (s *StoreService) Get(ctx context.Context, id int64, _ string) (models.Record, error) {
	if id <= models.NewRecordID {
		return models.Record{}, NewStatusError(http.StatusNotFound)
	}
	client, err := s.repo.GetClientByID(ctx, uint(id))
	if err != nil {
		return models.Record{}, storeError(err)
	}
	return client.ToRecord(), nil
}

func (s *StoreService) Create(ctx context.Context, _ string, record models.Record) (models.Record, error) {
	client := &models.Client{}
	client.Apply(record)
	if err := s.repo.CreateClient(ctx, client); err != nil {
		return models.Record{}, storeError(err)
	}
	return client.ToRecord(), nil
}

func (s *StoreService) Update(ctx context.Context, _ string, record models.Record) (models.Record, error) {
	if record.ID == nil {
		return models.Record{}, NewStatusError(http.StatusBadRequest)
	}
	client, err := s.repo.GetClientByID(ctx, uint(*record.ID))
	if err != nil {
		return models.Record{}, storeError(err)
	}
	client.Apply(record)
	if err := s.repo.UpdateClient(ctx, client); err != nil {
		return models.Record{}, storeError(err)
	}
	return client.ToRecord(), nil
}

func storeError(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return NewStatusError(http.StatusNotFound)
	}
	return NewStatusError(http.StatusInternalServerError)
}
