// Package battle stores battle combos, battle tags and the links between
// them.
//
// # Usage
//
//	repo := battle.NewRepository(db.DB, db.Changes)
//	combo, err := repo.CreateCombo(ctx, "toprock > flare > freeze", entities.EnergyHigh, entities.StatusReady)
//	err = repo.ReplaceComboTags(ctx, combo.ID, []string{openerID})
//	err = repo.SetUsed(ctx, combo.ID, true)
//
// Battle tags are independent of move tags.
package battle

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/cypher/internal/changes"
	"github.com/mrlokans/cypher/internal/database"
	"github.com/mrlokans/cypher/internal/entities"
)

var (
	ErrInvalidEnergy = errors.New("invalid energy level")
	ErrInvalidStatus = errors.New("invalid training status")
)

// ComboFilter narrows ListCombosWithTags. Zero fields match everything.
type ComboFilter struct {
	Energy     entities.EnergyLevel
	Status     entities.TrainingStatus
	UnusedOnly bool
}

// ComboUpdate holds the editable battle combo fields.
type ComboUpdate struct {
	Description string
	Energy      entities.EnergyLevel
	Status      entities.TrainingStatus
}

// Repository handles battle combo and battle tag database operations.
type Repository struct {
	db        *gorm.DB
	broker    *changes.Broker
	publisher changes.Publisher
}

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

func checkLevels(energy entities.EnergyLevel, status entities.TrainingStatus) error {
	if energy != "" && !energy.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEnergy, energy)
	}
	if status != "" && !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return nil
}

// --- Combos ---

// CreateCombo inserts a battle combo. Empty energy defaults to NONE and empty
// status to TRAINING.
func (r *Repository) CreateCombo(ctx context.Context, description string, energy entities.EnergyLevel, status entities.TrainingStatus) (*entities.BattleCombo, error) {
	if err := checkLevels(energy, status); err != nil {
		return nil, err
	}
	combo := &entities.BattleCombo{Description: description, Energy: energy, Status: status}
	if err := r.db.WithContext(ctx).Create(combo).Error; err != nil {
		return nil, database.Classify(err)
	}
	r.publisher.Publish(changes.BattleCombos)
	return combo, nil
}

// GetCombo returns the combo with its tags, or nil when it does not exist.
func (r *Repository) GetCombo(ctx context.Context, id string) (*entities.BattleComboWithTags, error) {
	var combo entities.BattleCombo
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&combo).Error; err != nil {
		return nil, database.IgnoreNotFound(err)
	}
	tags, err := r.TagsForCombo(ctx, id)
	if err != nil {
		return nil, err
	}
	return &entities.BattleComboWithTags{BattleCombo: combo, Tags: tags}, nil
}

// UpdateCombo rewrites description, energy and status. IsUsed is left alone.
func (r *Repository) UpdateCombo(ctx context.Context, id string, update ComboUpdate) error {
	if update.Energy == "" {
		update.Energy = entities.EnergyNone
	}
	if update.Status == "" {
		update.Status = entities.StatusTraining
	}
	if err := checkLevels(update.Energy, update.Status); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&entities.BattleCombo{}).Where("id = ?", id).
		Updates(map[string]any{
			"description": update.Description,
			"energy":      update.Energy,
			"status":      update.Status,
		})
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.BattleCombos)
	return nil
}

// SetUsed marks a combo as used or unused in the current battle.
func (r *Repository) SetUsed(ctx context.Context, id string, used bool) error {
	result := r.db.WithContext(ctx).Model(&entities.BattleCombo{}).Where("id = ?", id).Update("is_used", used)
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.BattleCombos)
	return nil
}

// ResetUsed marks every combo unused and returns how many changed.
func (r *Repository) ResetUsed(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entities.BattleCombo{}).Where("is_used = ?", true).Update("is_used", false)
	if result.Error != nil {
		return 0, database.Classify(result.Error)
	}
	if result.RowsAffected > 0 {
		r.publisher.Publish(changes.BattleCombos)
	}
	return result.RowsAffected, nil
}

// DeleteCombo removes a combo and its tag links.
func (r *Repository) DeleteCombo(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.BattleCombo{})
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.BattleCombos, changes.BattleComboTagLinks)
	return nil
}

// ListCombos returns combos matching filter, newest first.
func (r *Repository) ListCombos(ctx context.Context, filter ComboFilter) ([]entities.BattleCombo, error) {
	query := r.db.WithContext(ctx).Model(&entities.BattleCombo{})
	if filter.Energy != "" {
		query = query.Where("energy = ?", filter.Energy)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UnusedOnly {
		query = query.Where("is_used = ?", false)
	}

	combos := []entities.BattleCombo{}
	err := query.Order("created_at DESC").Find(&combos).Error
	return combos, err
}

// ListCombosWithTags returns combos matching filter joined with their tags.
func (r *Repository) ListCombosWithTags(ctx context.Context, filter ComboFilter) ([]entities.BattleComboWithTags, error) {
	combos, err := r.ListCombos(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list battle combos: %w", err)
	}
	tags, err := r.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list battle tags: %w", err)
	}
	links, err := r.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list battle links: %w", err)
	}

	tagByID := make(map[string]entities.BattleTag, len(tags))
	for _, t := range tags {
		tagByID[t.ID] = t
	}
	byCombo := make(map[string][]entities.BattleTag)
	for _, l := range links {
		if t, ok := tagByID[l.BattleTagID]; ok {
			byCombo[l.BattleComboID] = append(byCombo[l.BattleComboID], t)
		}
	}

	result := make([]entities.BattleComboWithTags, 0, len(combos))
	for _, c := range combos {
		comboTags := byCombo[c.ID]
		if comboTags == nil {
			comboTags = []entities.BattleTag{}
		}
		sort.Slice(comboTags, func(i, j int) bool { return comboTags[i].Name < comboTags[j].Name })
		result = append(result, entities.BattleComboWithTags{BattleCombo: c, Tags: comboTags})
	}
	return result, nil
}

// ObserveCombosWithTags streams ListCombosWithTags(filter) after any write to
// combos, tags or links.
func (r *Repository) ObserveCombosWithTags(ctx context.Context, filter ComboFilter) <-chan []entities.BattleComboWithTags {
	load := func(ctx context.Context) ([]entities.BattleComboWithTags, error) {
		return r.ListCombosWithTags(ctx, filter)
	}
	return changes.Observe(ctx, r.broker, load,
		changes.BattleCombos, changes.BattleTags, changes.BattleComboTagLinks)
}

// --- Tags ---

func (r *Repository) CreateTag(ctx context.Context, name string) (*entities.BattleTag, error) {
	tag := &entities.BattleTag{Name: name}
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, database.Classify(err)
	}
	r.publisher.Publish(changes.BattleTags)
	return tag, nil
}

// GetOrCreateTag retrieves or creates a battle tag (case-insensitive).
func (r *Repository) GetOrCreateTag(ctx context.Context, name string) (*entities.BattleTag, error) {
	var tag entities.BattleTag
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.CreateTag(ctx, name)
	}
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

func (r *Repository) ListTags(ctx context.Context) ([]entities.BattleTag, error) {
	tags := []entities.BattleTag{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *Repository) RenameTag(ctx context.Context, id, name string) error {
	result := r.db.WithContext(ctx).Model(&entities.BattleTag{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.BattleTags)
	return nil
}

// DeleteTag removes a battle tag and its combo links.
func (r *Repository) DeleteTag(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.BattleTag{})
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.BattleTags, changes.BattleComboTagLinks)
	return nil
}

// --- Links ---

// ReplaceComboTags sets the combo's tags to exactly tagIDs. Either every link
// is written or none is.
func (r *Repository) ReplaceComboTags(ctx context.Context, comboID string, tagIDs []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.BattleCombo{}).Where("id = ?", comboID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("battle_combo_id = ?", comboID).Delete(&entities.BattleComboTagCrossRef{}).Error; err != nil {
			return err
		}

		seen := make(map[string]struct{}, len(tagIDs))
		links := make([]entities.BattleComboTagCrossRef, 0, len(tagIDs))
		for _, id := range tagIDs {
			if _, dup := seen[id]; dup || id == "" {
				continue
			}
			seen[id] = struct{}{}
			links = append(links, entities.BattleComboTagCrossRef{BattleComboID: comboID, BattleTagID: id})
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&links).Error
	})
	if err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.BattleComboTagLinks)
	return nil
}

// TagsForCombo returns the tags linked to a combo, ordered by name.
func (r *Repository) TagsForCombo(ctx context.Context, comboID string) ([]entities.BattleTag, error) {
	tags := []entities.BattleTag{}
	err := r.db.WithContext(ctx).
		Joins("JOIN battle_combo_tag_cross_refs ON battle_combo_tag_cross_refs.battle_tag_id = battle_tags.id").
		Where("battle_combo_tag_cross_refs.battle_combo_id = ?", comboID).
		Order("battle_tags.name ASC").
		Find(&tags).Error
	return tags, err
}

func (r *Repository) ListLinks(ctx context.Context) ([]entities.BattleComboTagCrossRef, error) {
	links := []entities.BattleComboTagCrossRef{}
	err := r.db.WithContext(ctx).Order("battle_combo_id ASC, battle_tag_id ASC").Find(&links).Error
	return links, err
}

// --- Batch inserts ---

func (r *Repository) InsertCombos(ctx context.Context, combos []entities.BattleCombo) error {
	if len(combos) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&combos, 100).Error; err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.BattleCombos)
	return nil
}

func (r *Repository) InsertTags(ctx context.Context, tags []entities.BattleTag) error {
	if len(tags) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&tags, 100).Error; err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.BattleTags)
	return nil
}

func (r *Repository) InsertLinks(ctx context.Context, links []entities.BattleComboTagCrossRef) error {
	if len(links) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&links, 100).Error; err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.BattleComboTagLinks)
	return nil
}
