// Package filter narrows move lists by tag name in memory.
//
// # Usage
//
//	selection := make(chan []string)
//	out := filter.Moves(ctx, movesRepo.ObserveMovesWithTags(ctx), selection)
//
//	selection <- []string{"power", "freeze"}
//	visible := <-out
//
// Changing the selection recomputes from the last observed list without a
// new store read.
package filter

import (
	"context"

	"github.com/mrlokans/cypher/internal/entities"
)

// Selection is a set of tag names. An empty selection matches every move.
type Selection map[string]struct{}

func NewSelection(names ...string) Selection {
	s := make(Selection, len(names))
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
	return s
}

// FilterMoves keeps moves linked to at least one selected tag. Order is
// preserved. An empty selection returns moves unchanged.
func FilterMoves(moves []entities.MoveWithTags, selected Selection) []entities.MoveWithTags {
	if len(selected) == 0 {
		return moves
	}
	out := make([]entities.MoveWithTags, 0, len(moves))
	for _, m := range moves {
		if m.HasAnyTag(selected) {
			out = append(out, m)
		}
	}
	return out
}

// Moves emits FilterMoves(latest list, latest selection) whenever either
// input changes, starting from the initial selection. Nothing is emitted
// until the first list arrives. The output closes when ctx is done or the
// list channel closes. selections may be nil.
func Moves(ctx context.Context, lists <-chan []entities.MoveWithTags, selections <-chan []string, initial ...string) <-chan []entities.MoveWithTags {
	out := make(chan []entities.MoveWithTags, 1)

	go func() {
		defer close(out)

		var (
			current  []entities.MoveWithTags
			selected = NewSelection(initial...)
			haveList bool
		)

		for {
			select {
			case <-ctx.Done():
				return
			case list, ok := <-lists:
				if !ok {
					return
				}
				current, haveList = list, true
			case names, ok := <-selections:
				if !ok {
					selections = nil
					continue
				}
				selected = NewSelection(names...)
			}

			if !haveList {
				continue
			}
			select {
			case out <- FilterMoves(current, selected):
			case <-ctx.Done():
				return
			}
		}
	}()

	return out
}
