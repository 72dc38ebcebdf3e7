package service

import (
	"context"
	"sort"
	"strings"

	"ai-chat-be/internal/constant"
	"ai-chat-be/internal/dto"
)

type IModelService interface {
	GetAll(ctx context.Context, provider string) ([]*dto.ModelResponse, error)
}

type modelService struct {
	models []*dto.ModelResponse
}

// NewModelService flattens catalog once. defaultModel is flagged, and added
// under constant.ConfiguredModelProvider when the catalog does not list it.
func NewModelService(catalog map[string]map[string]string, defaultModel string) IModelService {
	models := make([]*dto.ModelResponse, 0)
	listed := false
	for provider, entries := range catalog {
		for id, name := range entries {
			isDefault := id == defaultModel
			listed = listed || isDefault
			models = append(models, &dto.ModelResponse{Id: id, Name: name, Provider: provider, Default: isDefault})
		}
	}
	if defaultModel != "" && !listed {
		models = append(models, &dto.ModelResponse{
			Id:       defaultModel,
			Name:     defaultModel,
			Provider: constant.ConfiguredModelProvider,
			Default:  true,
		})
	}

	sort.Slice(models, func(i, j int) bool {
		if models[i].Name != models[j].Name {
			return models[i].Name < models[j].Name
		}
		return models[i].Id < models[j].Id
	})

	return &modelService{models: models}
}

// GetAll returns the catalog sorted by display name, optionally limited to
// one provider (matched case-insensitively).
func (s *modelService) GetAll(ctx context.Context, provider string) ([]*dto.ModelResponse, error) {
	provider = strings.TrimSpace(provider)

	res := make([]*dto.ModelResponse, 0, len(s.models))
	for _, m := range s.models {
		if provider != "" && !strings.EqualFold(m.Provider, provider) {
			continue
		}
		copied := *m
		res = append(res, &copied)
	}
	return res, nil
}
