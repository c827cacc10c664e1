package lifecycle

import (
	"testing"

	"github.com/LavaJover/marketplace-order-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(seq int64, from, to domain.OrderStatus) domain.AuditRecord {
	return domain.AuditRecord{ID: "r", Seq: seq, FromStatus: from, ToStatus: to}
}

func TestReplay(t *testing.T) {
	status, err := Replay(nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, status)

	// out of order input is sorted by sequence
	status, err = Replay([]domain.AuditRecord{
		record(4, domain.StatusShipped, domain.StatusDisputed),
		record(2, domain.StatusPending, domain.StatusConfirmed),
		record(3, domain.StatusConfirmed, domain.StatusShipped),
		record(5, domain.StatusDisputed, domain.StatusShipped),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, status)
}

func TestReplay_Mismatch(t *testing.T) {
	tests := []struct {
		name 	string
		trail 	[]domain.AuditRecord
	}{
		{"gap", []domain.AuditRecord{
			record(2, domain.StatusPending, domain.StatusConfirmed),
			record(4, domain.StatusConfirmed, domain.StatusShipped),
		}},
		{"broken chain", []domain.AuditRecord{
			record(2, domain.StatusPending, domain.StatusConfirmed),
			record(3, domain.StatusShipped, domain.StatusDelivered),
		}},
		{"not an edge", []domain.AuditRecord{
			record(2, domain.StatusPending, domain.StatusShipped),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Replay(tt.trail)
			assert.ErrorIs(t, err, ErrReplayMismatch)
		})
	}
}
