package store

import (
	"context"
	"time"

	"github.com/jtalmeidaAdvir/WhatsappTimeTrackerV2/internal/timetracker/types"
)

// LocationTTL is how long a shared location stays attachable to the next
// command from the same phone.
const LocationTTL = 5 * time.Minute

// LocationCache holds the last location each phone shared. Entries expire
// LocationTTL after Put. Contents do not survive a restart.
type LocationCache interface {
	Put(ctx context.Context, phone string, loc types.Location) error
	Get(ctx context.Context, phone string) (types.Location, bool, error)
	Clear(ctx context.Context, phone string) error
}
