package service

import (
	"context"

	"incubator_monitor/internal/models"
	"incubator_monitor/internal/repository"
)

type AnimalService struct {
	animalRepo repository.AnimalRepo
}

func NewAnimalService(animalRepo repository.AnimalRepo) *AnimalService {
	return &AnimalService{animalRepo: animalRepo}
}

func (s *AnimalService) ListAnimals(ctx context.Context) ([]models.Animal, error) {
	animals, err := s.animalRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if animals == nil {
		animals = []models.Animal{}
	}
	return animals, nil
}
