package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cypher/internal/entities"
	"github.com/mrlokans/cypher/internal/validation"
)

type stageRequest struct {
	Name        string `json:"name" validate:"required,max=20"`
	TargetCount int    `json:"targetCount" validate:"gte=0"`
	Energy      string `json:"energy,omitempty" validate:"omitempty,oneof=NONE LOW MEDIUM HIGH"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	err := v.Validate(stageRequest{Name: "drills", TargetCount: 10, Energy: "LOW"})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name      string
		req       stageRequest
		wantField string
	}{
		{"missing name", stageRequest{TargetCount: 1}, "name"},
		{"name too long", stageRequest{Name: "abcdefghijklmnopqrstuvwxyz"}, "name"},
		{"negative target", stageRequest{Name: "x", TargetCount: -1}, "targetCount"},
		{"unknown energy", stageRequest{Name: "x", Energy: "EXTREME"}, "energy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, validation.ErrInvalid)

			var vErr *validation.Error
			require.True(t, errors.As(err, &vErr))
			assert.Contains(t, vErr.Fields, tt.wantField)
		})
	}
}

func TestValidator_Entities(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(entities.GoalStage{GoalID: "g", Name: "a", TargetCount: 3}))
	assert.Error(t, v.Validate(entities.GoalStage{GoalID: "g", Name: "a", CurrentCount: -1}))
	assert.Error(t, v.Validate(entities.BattleCombo{Description: "x", Energy: "LOUD"}))
	assert.NoError(t, v.Validate(entities.BattleCombo{Description: "x"}))
}

func TestValidateEach(t *testing.T) {
	v := validation.New()

	err := validation.ValidateEach(v, "moves", []entities.Move{{Name: "Flare"}, {Name: ""}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "moves[1]")
	assert.ErrorIs(t, err, validation.ErrInvalid)
}
