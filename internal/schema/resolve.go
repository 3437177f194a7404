package schema

import (
	"context"
	"fmt"

	"github.com/fieldline/fieldline/pkg/logger"
	"github.com/fieldline/fieldline/pkg/metrics"
)

// ApplyPopulates replaces stored reference identities in doc with full
// documents fetched from their target models, one descriptor at a
// time, in registration order. Fetches are strictly sequential, both
// across array elements and across descriptors: array output order
// matches input identity order, and a later descriptor observes
// mutations made by an earlier one. An unregistered target name skips
// the descriptor; the field is left untouched.
//
// Fetched documents are requested with nested resolution, so reference
// chains resolve recursively.
func (s *Schema) ApplyPopulates(ctx context.Context, doc Document) (Document, error) {
	for _, p := range s.populates {
		target, ok := s.lookupModel(p.Model)
		if !ok {
			logger.Debugf("populate %s.%s: target model %q not registered", s.modelName(), p.Path, p.Model)
			continue
		}
		def, declared := s.fields[p.Path]
		if !declared {
			logger.Debugf("populate %s.%s: field not declared", s.modelName(), p.Path)
			continue
		}
		switch def.kind {
		case defRefArray:
			resolved := make([]any, 0)
			if vs, ok := asSlice(doc[p.Path]); ok {
				for _, el := range vs {
					if el == nil {
						continue
					}
					fetched, err := target.FindByID(ctx, refID(el), true)
					if err != nil {
						return nil, fmt.Errorf("populate %s.%s: %w", s.modelName(), p.Path, err)
					}
					metrics.PopulateFetches.WithLabelValues(s.modelName()).Inc()
					resolved = append(resolved, fetched)
				}
			}
			doc[p.Path] = resolved
		case defRef:
			v := doc[p.Path]
			if v == nil {
				continue
			}
			fetched, err := target.FindByID(ctx, refID(v), true)
			if err != nil {
				return nil, fmt.Errorf("populate %s.%s: %w", s.modelName(), p.Path, err)
			}
			metrics.PopulateFetches.WithLabelValues(s.modelName()).Inc()
			doc[p.Path] = fetched
		}
	}
	return doc, nil
}

// ApplyVirtuals computes each registered reverse-relationship field:
// one filtered query per descriptor, sequential, in registration
// order. Results are requested with nested resolution. An unregistered
// target name skips the descriptor.
func (s *Schema) ApplyVirtuals(ctx context.Context, doc Document) (Document, error) {
	for _, v := range s.virtuals {
		target, ok := s.lookupModel(v.Ref)
		if !ok {
			logger.Debugf("virtual %s.%s: target model %q not registered", s.modelName(), v.Field, v.Ref)
			continue
		}
		results, err := target.Find(ctx, v.ForeignField, "==", doc[v.LocalField], true)
		if err != nil {
			return nil, fmt.Errorf("virtual %s.%s: %w", s.modelName(), v.Field, err)
		}
		metrics.VirtualQueries.WithLabelValues(s.modelName()).Inc()
		doc[v.Field] = results
	}
	return doc, nil
}

func (s *Schema) lookupModel(name string) (Model, bool) {
	if s.models == nil {
		return nil, false
	}
	return s.models.Lookup(name)
}
