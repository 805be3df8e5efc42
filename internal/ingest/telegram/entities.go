package telegram

import (
	"context"
	"fmt"
	"sync"

	"github.com/gotd/td/tg"

	"github.com/lueurxax/telegram-feed-connector/internal/core/domain"
	apperrors "github.com/lueurxax/telegram-feed-connector/internal/core/errors"
)

// entityCache remembers every user and chat seen in dialog and history responses,
// together with the access hashes needed to address them later.
type entityCache struct {
	mu       sync.RWMutex
	entities map[domain.PeerRef]domain.Entity
	hashes   map[domain.PeerRef]int64
}

func newEntityCache() *entityCache {
	return &entityCache{
		entities: make(map[domain.PeerRef]domain.Entity),
		hashes:   make(map[domain.PeerRef]int64),
	}
}

func (c *entityCache) get(ref domain.PeerRef) (domain.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entities[ref]

	return e, ok
}

func (c *entityCache) accessHash(ref domain.PeerRef) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.hashes[ref]
}

func (c *entityCache) put(e domain.Entity, accessHash int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entities[e.Ref] = e
	if accessHash != 0 {
		c.hashes[e.Ref] = accessHash
	}
}

// remember stores the users and chats of one response.
func (c *entityCache) remember(users []tg.UserClass, chats []tg.ChatClass) {
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			c.put(userEntity(user), user.AccessHash)
		}
	}

	for _, ch := range chats {
		if e, hash, ok := chatEntity(ch); ok {
			c.put(e, hash)
		}
	}
}

// ResolveEntity returns the author behind ref. Users missing from the cache
// are requested from the platform; other unknown peers are not found.
func (c *Client) ResolveEntity(ctx context.Context, ref domain.PeerRef) (domain.Entity, error) {
	if e, ok := c.entities.get(ref); ok {
		return e, nil
	}

	if ref.Kind != domain.PeerUser {
		return domain.Entity{}, fmt.Errorf("%w: %s %d", apperrors.ErrEntityNotFound, ref.Kind, ref.ID)
	}

	users, err := c.api.UsersGetUsers(ctx, []tg.InputUserClass{
		&tg.InputUser{UserID: ref.ID, AccessHash: c.entities.accessHash(ref)},
	})
	if err != nil {
		return domain.Entity{}, fmt.Errorf("get user %d: %w", ref.ID, err)
	}

	c.entities.remember(users, nil)

	if e, ok := c.entities.get(ref); ok {
		return e, nil
	}

	return domain.Entity{}, fmt.Errorf("%w: user %d", apperrors.ErrEntityNotFound, ref.ID)
}
