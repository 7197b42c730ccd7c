package response

import (
	"time"

	"voucherpos/internal/sync/queue"
)

type SyncStatusResponse struct {
	IsOnline       bool                  `json:"isOnline"`
	LastSyncTime   *time.Time            `json:"lastSyncTime,omitempty"`
	PendingCount   int                   `json:"pendingCount"`
	PendingActions []queue.OfflineAction `json:"pendingActions"`
	SyncInProgress bool                  `json:"syncInProgress"`
}

func FromSyncState(state queue.SyncState) SyncStatusResponse {
	return SyncStatusResponse{
		IsOnline:       state.IsOnline,
		LastSyncTime:   state.LastSyncTime,
		PendingCount:   len(state.PendingActions),
		PendingActions: state.PendingActions,
		SyncInProgress: state.SyncInProgress,
	}
}
