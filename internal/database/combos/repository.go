// Package combos stores saved combos: named, ordered sequences of move names.
//
// A combo keeps the names it was saved with. Renaming or deleting a move does
// not touch any combo.
package combos

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/cypher/internal/changes"
	"github.com/mrlokans/cypher/internal/database"
	"github.com/mrlokans/cypher/internal/entities"
)

// Repository handles saved combo database operations.
type Repository struct {
	db        *gorm.DB
	broker    *changes.Broker
	publisher changes.Publisher
}

// NewRepository creates a new combos repository.
func NewRepository(db *gorm.DB, broker *changes.Broker) *Repository {
	var publisher changes.Publisher = changes.NoopPublisher{}
	if broker != nil {
		publisher = broker
	}
	return &Repository{db: db, broker: broker, publisher: publisher}
}

// WithTx returns a non-publishing repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, broker: r.broker, publisher: changes.NoopPublisher{}}
}

func (r *Repository) CreateCombo(ctx context.Context, name string, moves []string) (*entities.SavedCombo, error) {
	combo := &entities.SavedCombo{Name: name, Moves: entities.MoveSequence(moves)}
	if err := r.db.WithContext(ctx).Create(combo).Error; err != nil {
		return nil, database.Classify(err)
	}
	r.publisher.Publish(changes.SavedCombos)
	return combo, nil
}

// GetCombo returns the combo or nil when it does not exist.
func (r *Repository) GetCombo(ctx context.Context, id string) (*entities.SavedCombo, error) {
	var combo entities.SavedCombo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&combo).Error; err != nil {
		return nil, database.IgnoreNotFound(err)
	}
	return &combo, nil
}

// ListCombos returns combos, most recently modified first.
func (r *Repository) ListCombos(ctx context.Context) ([]entities.SavedCombo, error) {
	combos := []entities.SavedCombo{}
	err := r.db.WithContext(ctx).Order("modified_at DESC").Find(&combos).Error
	return combos, err
}

// UpdateCombo replaces a combo's name and move sequence.
func (r *Repository) UpdateCombo(ctx context.Context, id, name string, moves []string) error {
	seq := entities.MoveSequence(moves)
	if seq == nil {
		seq = entities.MoveSequence{}
	}
	result := r.db.WithContext(ctx).Model(&entities.SavedCombo{}).Where("id = ?", id).
		Updates(map[string]any{"name": name, "moves": seq})
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.SavedCombos)
	return nil
}

func (r *Repository) DeleteCombo(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.SavedCombo{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.SavedCombos)
	return nil
}

// ObserveCombos streams the combo list after every combo write.
func (r *Repository) ObserveCombos(ctx context.Context) <-chan []entities.SavedCombo {
	return changes.Observe(ctx, r.broker, r.ListCombos, changes.SavedCombos)
}

// InsertCombos inserts combos as given, keeping ids and timestamps.
func (r *Repository) InsertCombos(ctx context.Context, combos []entities.SavedCombo) error {
	if len(combos) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&combos, 100).Error; err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.SavedCombos)
	return nil
}
