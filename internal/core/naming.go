package core

import (
	"context"
	"fmt"
	"strings"
)

// NameGenerator produces a descriptive batch name from validated creation
// input. Implementations may call out to external services.
type NameGenerator interface {
	GenerateName(ctx context.Context, in BatchInput) (string, error)
}

// NameGeneratorFunc adapts a function into a NameGenerator.
type NameGeneratorFunc func(ctx context.Context, in BatchInput) (string, error)

// GenerateName implements NameGenerator.
func (f NameGeneratorFunc) GenerateName(ctx context.Context, in BatchInput) (string, error) {
	return f(ctx, in)
}

// TemplateName is the deterministic fallback name,
// "<grade> <product> from <location> (<harvest date>)".
func TemplateName(in BatchInput) string {
	return fmt.Sprintf("%s %s from %s (%s)", in.QualityGrade, in.ProductType, in.Location, in.HarvestDate)
}

// TemplateNameGenerator returns a generator that always uses TemplateName.
func TemplateNameGenerator() NameGenerator {
	return NameGeneratorFunc(func(_ context.Context, in BatchInput) (string, error) {
		return TemplateName(in), nil
	})
}

// batchName prefers an explicit name, then the generator, then the template.
// A failing generator never blocks creation.
func (s *Service) batchName(ctx context.Context, in BatchInput) string {
	if in.Name != "" {
		return in.Name
	}
	name, err := s.namer.GenerateName(ctx, in)
	if err != nil {
		s.logger.Warn("name generator failed, using template", "product_type", in.ProductType, "error", err)
		return TemplateName(in)
	}
	if name = strings.TrimSpace(name); name == "" {
		return TemplateName(in)
	}
	return name
}
