package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shuma-massage/shuma-backend/internal/shuma/service"
	"github.com/shuma-massage/shuma-backend/internal/shuma/types"
)

func TestAnyTransition_AllowsEverything(t *testing.T) {
	for _, from := range types.Statuses() {
		for _, to := range types.Statuses() {
			assert.NoError(t, service.AnyTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestStrictTransitions(t *testing.T) {
	allowed := map[[2]types.Status]bool{
		{types.StatusPending, types.StatusConfirmed}:   true,
		{types.StatusPending, types.StatusCancelled}:   true,
		{types.StatusConfirmed, types.StatusCompleted}: true,
		{types.StatusConfirmed, types.StatusCancelled}: true,
	}
	for _, from := range types.Statuses() {
		for _, to := range types.Statuses() {
			err := service.StrictTransitions(from, to)
			if from == to || allowed[[2]types.Status{from, to}] {
				assert.NoError(t, err, "%s -> %s", from, to)
			} else {
				assert.ErrorIs(t, err, service.ErrInvalidTransition, "%s -> %s", from, to)
			}
		}
	}
}
