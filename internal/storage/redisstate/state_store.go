package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/papersync/papersync/internal/domain"
)

const (
	stateKeyPrefix = "oauth_state:"

	// StateTTL caps how long an issued nonce stays consumable. Redis
	// expiry is authoritative; no secondary check happens on consume.
	StateTTL = 600 * time.Second
)

// StateStore keeps single-use OAuth handshake nonces in Redis.
type StateStore struct {
	client redis.UniversalClient
	clock  domain.Clock
	nonces domain.NonceSource
}

type StateStoreDependencies struct {
	Client redis.UniversalClient
	Clock  domain.Clock
	Nonces domain.NonceSource
}

func NewStateStore(deps StateStoreDependencies) *StateStore {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	nonces := deps.Nonces
	if nonces == nil {
		nonces = uuid.NewString
	}

	return &StateStore{
		client: deps.Client,
		clock:  clock,
		nonces: nonces,
	}
}

var _ domain.OAuthStateStore = (*StateStore)(nil)

// Issue generates a random nonce and persists its record with the
// handshake TTL.
func (s *StateStore) Issue(ctx context.Context) (string, error) {
	nonce := s.nonces()

	payload, err := json.Marshal(domain.OAuthState{CreatedAt: s.clock().UTC()})
	if err != nil {
		return "", domain.NewDatabaseError("failed to encode oauth state: %v", err)
	}

	if err := s.client.Set(ctx, stateKeyPrefix+nonce, payload, StateTTL).Err(); err != nil {
		return "", domain.NewDatabaseError("failed to persist oauth state: %v", err)
	}

	return nonce, nil
}

// Consume atomically reads and deletes the nonce record. A nonce that
// was never issued, already consumed, or expired fails identically, so
// a duplicated browser callback can never replay the handshake.
func (s *StateStore) Consume(ctx context.Context, nonce string) (domain.OAuthState, error) {
	payload, err := s.client.GetDel(ctx, stateKeyPrefix+nonce).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.OAuthState{}, domain.NewAuthorizationError("invalid or expired state")
		}
		return domain.OAuthState{}, domain.NewDatabaseError("failed to load oauth state: %v", err)
	}

	var state domain.OAuthState
	if err := json.Unmarshal(payload, &state); err != nil {
		return domain.OAuthState{}, domain.NewDatabaseError("failed to decode oauth state: %v", err)
	}

	return state, nil
}
