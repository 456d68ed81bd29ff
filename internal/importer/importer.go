package importer

import (
	"context"
	"errors"
	"fmt"

	"gitlab.com/dirk.krummacker/surf-contacts/internal/logger"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/metrics"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/model"
	"gitlab.com/dirk.krummacker/surf-contacts/internal/store"
)

// ContactStore is the part of the store the importer writes through.
type ContactStore interface {
	FindByPhone(ctx context.Context, phone string) (*model.Contact, error)
	Create(ctx context.Context, fields model.ContactFields) (*model.Contact, error)
	Update(ctx context.Context, contact *model.Contact) error
}

// Importer upserts CSV rows into the contact store, keyed by phone number.
type Importer struct {
	store   ContactStore
	logg    *logger.Logger
	metrics *metrics.Metrics
}

func New(contactStore ContactStore, logg *logger.Logger, m *metrics.Metrics) *Importer {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Importer{store: contactStore, logg: logg, metrics: m}
}

// Import extracts, normalizes and upserts all uploaded files. Rows are applied one after the
// other in upload order, so a later row with the same phone number overwrites an earlier one.
// Rows that reached the store before a failure stay persisted.
func (i *Importer) Import(ctx context.Context, uploads []Upload) (model.ImportSummary, error) {
	var summary model.ImportSummary

	documents, err := Extract(uploads)
	if err != nil {
		return summary, err
	}

	for _, document := range documents {
		rows, skipped, err := Normalize(document)
		if err != nil {
			return summary, err
		}
		for range skipped {
			i.metrics.IncImportRow(metrics.RowSkipped)
		}
		for _, row := range rows {
			created, err := i.upsert(ctx, row)
			if err != nil {
				return summary, err
			}
			summary.TotalProcessed++
			if created {
				summary.NewContacts++
				i.metrics.IncImportRow(metrics.RowCreated)
			} else {
				summary.UpdatedContacts++
				i.metrics.IncImportRow(metrics.RowUpdated)
			}
		}
	}

	i.logg.Info(i.logg.WithFields(ctx, map[string]any{
		"files":     len(uploads),
		"documents": len(documents),
		"processed": summary.TotalProcessed,
		"created":   summary.NewContacts,
		"updated":   summary.UpdatedContacts,
	}), "contacts imported")
	return summary, nil
}

// upsert writes one row and reports whether a new contact was created.
func (i *Importer) upsert(ctx context.Context, row model.ContactFields) (bool, error) {
	existing, err := i.store.FindByPhone(ctx, row.Phone)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if _, err := i.store.Create(ctx, row); err != nil {
			return false, fmt.Errorf("import %s: %w", row.Phone, err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("import %s: %w", row.Phone, err)
	}

	existing.Apply(row)
	if err := i.store.Update(ctx, existing); err != nil {
		return false, fmt.Errorf("import %s: %w", row.Phone, err)
	}
	return false, nil
}
