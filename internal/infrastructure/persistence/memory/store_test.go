package memory

import (
	"testing"

	"github.com/cropadvisor/backend/internal/domain"
	"github.com/cropadvisor/backend/internal/infrastructure/persistence/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) domain.Store {
		return NewStore()
	})
}
