package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/okian/alpine/internal/adapters/export"
	"github.com/okian/alpine/internal/domain/types"
	"github.com/okian/alpine/pkg/logger"
	"github.com/okian/alpine/pkg/metrics"
)

// IndividualCSV renders the individual leaderboard of a category as CSV.
func (s *Service) IndividualCSV(ctx context.Context, cat types.Category) ([]byte, error) {
	board, err := s.Individual(ctx, cat)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.WriteIndividual(&buf, board); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TeamCSV renders the team leaderboard of a gender and sport as CSV.
func (s *Service) TeamCSV(ctx context.Context, gender types.Gender, sport types.Sport) ([]byte, error) {
	rows, err := s.Team(ctx, gender, sport)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.WriteTeam(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PublishAll renders every individual and team export and hands them to the
// publisher. It returns the keys written.
func (s *Service) PublishAll(ctx context.Context) ([]string, error) {
	if s.publisher == nil {
		return nil, ErrNoPublisher
	}

	var keys []string
	publish := func(key string, body []byte) error {
		if err := s.publisher.Publish(ctx, key, export.ContentType, body); err != nil {
			metrics.RecordErrorByComponent("export", "publish_error")
			return fmt.Errorf("publish %s: %w", key, err)
		}
		metrics.RecordExportPublished()
		keys = append(keys, key)
		return nil
	}

	for _, cat := range types.AllCategories() {
		body, err := s.IndividualCSV(ctx, cat)
		if err != nil {
			return keys, err
		}
		if err := publish(export.IndividualFilename(cat), body); err != nil {
			return keys, err
		}
	}
	for _, gender := range types.Genders {
		for _, sport := range types.Sports {
			body, err := s.TeamCSV(ctx, gender, sport)
			if err != nil {
				return keys, err
			}
			if err := publish(export.TeamFilename(gender, sport), body); err != nil {
				return keys, err
			}
		}
	}

	s.logger.Info(ctx, "exports published", logger.Int("count", len(keys)))
	return keys, nil
}
