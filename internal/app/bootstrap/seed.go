// internal/app/bootstrap/seed.go
package bootstrap

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/researchhub/internal/app/features/shared/accounts"
	"github.com/dalemusser/researchhub/internal/app/system/timeouts"
	"github.com/dalemusser/researchhub/internal/domain/models"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SeedFile is the layout of the startup seed file.
//
//	students:
//	  - name: Ada Park
//	    student_id: S1001
//	    email: ada@research.edu
//	    password: correct-horse
//	    gpa: 3.8
//	    skills: [python, nlp]
//	professors:
//	  - name: Dr. Kim
//	    professor_id: P2001
//	    research_areas: [machine learning]
//	    total_slots: 3
type SeedFile struct {
	Students   []models.StudentAccount   `yaml:"students"`
	Professors []models.ProfessorAccount `yaml:"professors"`
}

// ParseSeed decodes a seed file, rejecting unknown keys.
func ParseSeed(data []byte) (SeedFile, error) {
	var sf SeedFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		return SeedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	return sf, nil
}

// seedFromFile creates every account in path. Rows that already exist fail
// individually and are logged; the seed is safe to rerun.
func seedFromFile(ctx context.Context, deps DBDeps, path string, logger *zap.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	sf, err := ParseSeed(data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Batch())
	defer cancel()

	p := accounts.New(deps.MongoDatabase, logger)
	for kind, res := range map[string]models.BulkResult{
		"students":   p.Students(ctx, sf.Students),
		"professors": p.Professors(ctx, sf.Professors),
	} {
		logger.Info("seeded accounts",
			zap.String("kind", kind),
			zap.Int("created", res.Success),
			zap.Int("skipped", res.Failed))
		for _, e := range res.Errors {
			logger.Debug("seed row skipped", zap.String("kind", kind), zap.String("error", e))
		}
	}
	return nil
}
