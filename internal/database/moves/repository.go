// Package moves provides database operations for moves, move tags and the
// links between them.
//
// # Usage
//
//	repo := moves.NewRepository(db.DB, db.Changes)
//	move, err := repo.CreateMove(ctx, "windmill")
//	tag, err := repo.GetOrCreateTag(ctx, "power")
//	err = repo.AddTagToMove(ctx, move.ID, tag.ID)
//
//	for list := range repo.ObserveMovesWithTags(ctx) {
//	    // re-render
//	}
package moves

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

// Repository handles all move and move tag database operations.
type Repository struct {
	db        *gorm.DB
	broker    *changes.Broker
	publisher changes.Publisher
}

// NewRepository creates a new moves repository. Writes are published to
// broker, which may be nil; observations then emit once and never refresh.
func NewRepository(db *gorm.DB, broker *changes.Broker) *Repository {
	var publisher changes.Publisher = changes.NoopPublisher{}
	if broker != nil {
		publisher = broker
	}
	return &Repository{db: db, broker: broker, publisher: publisher}
}

// WithTx returns a repository bound to tx. It does not publish; the owner of
// the transaction publishes after commit.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx, broker: r.broker, publisher: changes.NoopPublisher{}}
}

// --- Moves ---

// CreateMove inserts a new move.
func (r *Repository) CreateMove(ctx context.Context, name string) (*entities.Move, error) {
	move := &entities.Move{Name: name}
	if err := r.db.WithContext(ctx).Create(move).Error; err != nil {
		return nil, database.Classify(err)
	}
	r.publisher.Publish(changes.Moves)
	return move, nil
}

// GetMove returns the move or nil when it does not exist.
func (r *Repository) GetMove(ctx context.Context, id string) (*entities.Move, error) {
	var move entities.Move
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&move).Error
	if err != nil {
		return nil, database.IgnoreNotFound(err)
	}
	return &move, nil
}

// ListMoves returns every move ordered by name.
func (r *Repository) ListMoves(ctx context.Context) ([]entities.Move, error) {
	moves := []entities.Move{}
	err := r.db.WithContext(ctx).Order("name ASC, created_at ASC").Find(&moves).Error
	return moves, err
}

// RenameMove changes a move's name. Combos that captured the old name are
// left as they are.
func (r *Repository) RenameMove(ctx context.Context, id, name string) error {
	result := r.db.WithContext(ctx).Model(&entities.Move{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.Moves)
	return nil
}

// DeleteMove removes a move. Its tag links go with it; tags and combos stay.
func (r *Repository) DeleteMove(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Move{})
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.Moves, changes.MoveTagLinks)
	return nil
}

// --- Tags ---

// CreateTag inserts a new tag.
func (r *Repository) CreateTag(ctx context.Context, name string) (*entities.MoveTag, error) {
	tag := &entities.MoveTag{Name: name}
	if err := r.db.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, database.Classify(err)
	}
	r.publisher.Publish(changes.MoveTags)
	return tag, nil
}

// GetOrCreateTag retrieves or creates a tag (case-insensitive).
func (r *Repository) GetOrCreateTag(ctx context.Context, name string) (*entities.MoveTag, error) {
	var tag entities.MoveTag
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&tag).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.CreateTag(ctx, name)
	}
	if err != nil {
		return nil, database.Classify(err)
	}
	return &tag, nil
}

// GetTag returns the tag or nil when it does not exist.
func (r *Repository) GetTag(ctx context.Context, id string) (*entities.MoveTag, error) {
	var tag entities.MoveTag
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tag).Error
	if err != nil {
		return nil, database.IgnoreNotFound(err)
	}
	return &tag, nil
}

// ListTags returns every tag ordered by name.
func (r *Repository) ListTags(ctx context.Context) ([]entities.MoveTag, error) {
	tags := []entities.MoveTag{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error
	return tags, err
}

// RenameTag changes a tag's name.
func (r *Repository) RenameTag(ctx context.Context, id, name string) error {
	result := r.db.WithContext(ctx).Model(&entities.MoveTag{}).Where("id = ?", id).Update("name", name)
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.MoveTags)
	return nil
}

// DeleteTag removes a tag and, through the cascade, its move links.
func (r *Repository) DeleteTag(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.MoveTag{})
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	r.publisher.Publish(changes.MoveTags, changes.MoveTagLinks)
	return nil
}

// --- Links ---

// AddTagToMove links a tag to a move. Linking twice is a no-op; linking a
// missing move or tag fails with database.ErrConstraintViolation.
func (r *Repository) AddTagToMove(ctx context.Context, moveID, tagID string) error {
	link := entities.MoveTagCrossRef{MoveID: moveID, TagID: tagID}
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&link).Error
	if err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.MoveTagLinks)
	return nil
}

// RemoveTagFromMove unlinks a tag from a move.
func (r *Repository) RemoveTagFromMove(ctx context.Context, moveID, tagID string) error {
	err := r.db.WithContext(ctx).
		Where("move_id = ? AND tag_id = ?", moveID, tagID).
		Delete(&entities.MoveTagCrossRef{}).Error
	if err != nil {
		return err
	}
	r.publisher.Publish(changes.MoveTagLinks)
	return nil
}

// SetMoveTags replaces the move's tag set in one transaction.
func (r *Repository) SetMoveTags(ctx context.Context, moveID string, tagIDs []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Move{}).Where("id = ?", moveID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("move_id = ?", moveID).Delete(&entities.MoveTagCrossRef{}).Error; err != nil {
			return err
		}

		links := make([]entities.MoveTagCrossRef, 0, len(tagIDs))
		seen := make(map[string]struct{}, len(tagIDs))
		for _, id := range tagIDs {
			if _, ok := seen[id]; ok || id == "" {
				continue
			}
			seen[id] = struct{}{}
			links = append(links, entities.MoveTagCrossRef{MoveID: moveID, TagID: id})
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&links).Error
	})
	if err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.MoveTagLinks)
	return nil
}

// TagsForMove returns the tags linked to a move, ordered by name.
func (r *Repository) TagsForMove(ctx context.Context, moveID string) ([]entities.MoveTag, error) {
	tags := []entities.MoveTag{}
	err := r.db.WithContext(ctx).
		Joins("JOIN move_tag_cross_refs ON move_tag_cross_refs.tag_id = move_tags.id").
		Where("move_tag_cross_refs.move_id = ?", moveID).
		Order("move_tags.name ASC").
		Find(&tags).Error
	return tags, err
}

// ListLinks returns every move-tag link.
func (r *Repository) ListLinks(ctx context.Context) ([]entities.MoveTagCrossRef, error) {
	links := []entities.MoveTagCrossRef{}
	err := r.db.WithContext(ctx).Order("move_id ASC, tag_id ASC").Find(&links).Error
	return links, err
}

// ListMovesWithTags returns every move with its tags.
func (r *Repository) ListMovesWithTags(ctx context.Context) ([]entities.MoveWithTags, error) {
	moves, err := r.ListMoves(ctx)
	if err != nil {
		return nil, fmt.Errorf("list moves: %w", err)
	}
	tags, err := r.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	links, err := r.ListLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	return joinMovesWithTags(moves, tags, links), nil
}

func joinMovesWithTags(moves []entities.Move, tags []entities.MoveTag, links []entities.MoveTagCrossRef) []entities.MoveWithTags {
	tagByID := make(map[string]entities.MoveTag, len(tags))
	for _, t := range tags {
		tagByID[t.ID] = t
	}
	tagsByMove := make(map[string][]entities.MoveTag)
	for _, l := range links {
		if t, ok := tagByID[l.TagID]; ok {
			tagsByMove[l.MoveID] = append(tagsByMove[l.MoveID], t)
		}
	}

	result := make([]entities.MoveWithTags, 0, len(moves))
	for _, m := range moves {
		moveTags := tagsByMove[m.ID]
		sort.Slice(moveTags, func(i, j int) bool { return moveTags[i].Name < moveTags[j].Name })
		if moveTags == nil {
			moveTags = []entities.MoveTag{}
		}
		result = append(result, entities.MoveWithTags{Move: m, Tags: moveTags})
	}
	return result
}

// --- Observation ---

// ObserveMoves streams the full move list, re-emitting after every move write.
func (r *Repository) ObserveMoves(ctx context.Context) <-chan []entities.Move {
	return changes.Observe(ctx, r.broker, r.ListMoves, changes.Moves)
}

// ObserveTags streams the full tag list.
func (r *Repository) ObserveTags(ctx context.Context) <-chan []entities.MoveTag {
	return changes.Observe(ctx, r.broker, r.ListTags, changes.MoveTags)
}

// ObserveMovesWithTags streams moves joined with tags, re-emitting after any
// write to moves, tags or links.
func (r *Repository) ObserveMovesWithTags(ctx context.Context) <-chan []entities.MoveWithTags {
	return changes.Observe(ctx, r.broker, r.ListMovesWithTags,
		changes.Moves, changes.MoveTags, changes.MoveTagLinks)
}

// --- Batch inserts ---

// InsertMoves inserts moves as given, keeping their ids and timestamps.
func (r *Repository) InsertMoves(ctx context.Context, moves []entities.Move) error {
	if len(moves) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&moves, 100).Error; err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.Moves)
	return nil
}

// InsertTags inserts tags as given.
func (r *Repository) InsertTags(ctx context.Context, tags []entities.MoveTag) error {
	if len(tags) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(&tags, 100).Error; err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.MoveTags)
	return nil
}

// InsertLinks inserts links as given. Any link to a missing parent fails the
// whole batch.
func (r *Repository) InsertLinks(ctx context.Context, links []entities.MoveTagCrossRef) error {
	if len(links) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&links, 100).Error; err != nil {
		return database.Classify(err)
	}
	r.publisher.Publish(changes.MoveTagLinks)
	return nil
}
