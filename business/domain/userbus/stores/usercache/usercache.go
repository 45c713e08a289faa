// Package usercache contains user related CRUD functionality with caching.
package usercache

import (
	"context"
	"net/mail"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jcpaschoal/tenantcrm/business/domain/userbus"
	"github.com/jcpaschoal/tenantcrm/business/sdk/order"
	"github.com/jcpaschoal/tenantcrm/business/sdk/page"
	"github.com/jcpaschoal/tenantcrm/business/sdk/sqldb"
	"github.com/jcpaschoal/tenantcrm/foundation/logger"
	"github.com/viccon/sturdyc"
)

// Store manages the set of APIs for user data and caching.
type Store struct {
	log    *logger.Logger
	storer userbus.Storer
	cache  *sturdyc.Client[userbus.User]
	tx     sqldb.CommitRollbacker
}

// NewStore constructs the api for data and caching access.
func NewStore(log *logger.Logger, storer userbus.Storer, ttl time.Duration) *Store {
	const capacity = 10000
	const numShards = 10
	const evictionPercentage = 10

	return &Store{
		log:    log,
		storer: storer,
		cache:  sturdyc.New[userbus.User](capacity, numShards, ttl, evictionPercentage),
	}
}

// NewWithTx constructs a new Store value replacing the sqlx DB
// value with a sqlx DB value that is currently inside a transaction.
// The cache is shared. Entries touched inside the transaction are evicted
// again after the commit, since a reader outside the transaction can cache
// the old row until then.
func (s *Store) NewWithTx(tx sqldb.CommitRollbacker) (userbus.Storer, error) {
	storer, err := s.storer.NewWithTx(tx)
	if err != nil {
		return nil, err
	}

	store := Store{
		log:    s.log,
		storer: storer,
		cache:  s.cache,
		tx:     tx,
	}

	return &store, nil
}

// Create inserts a new user into the database.
func (s *Store) Create(ctx context.Context, usr userbus.User) error {
	return s.storer.Create(ctx, usr)
}

// Update replaces a user document in the database. The cache entry is
// dropped rather than refreshed so an uncommitted write is never served.
func (s *Store) Update(ctx context.Context, usr userbus.User) error {
	old, cached := s.readCache(usr.ID.String())

	if err := s.storer.Update(ctx, usr); err != nil {
		return err
	}

	if cached {
		s.evict(old)
	}
	s.evict(usr)

	return nil
}

// DeleteByTenant removes the tenant's users and evicts them from the cache.
func (s *Store) DeleteByTenant(ctx context.Context, tenantID uuid.UUID) (int, error) {
	filter := userbus.QueryFilter{TenantID: &tenantID}

	total, err := s.storer.Count(ctx, filter)
	if err != nil {
		return 0, err
	}

	if total > 0 {
		users, err := s.storer.Query(ctx, filter, userbus.DefaultOrderBy, page.MustParse("1", "100"))
		if err != nil {
			return 0, err
		}

		for pg := 2; len(users) < total; pg++ {
			more, err := s.storer.Query(ctx, filter, userbus.DefaultOrderBy, page.MustParse(strconv.Itoa(pg), "100"))
			if err != nil {
				return 0, err
			}
			if len(more) == 0 {
				break
			}
			users = append(users, more...)
		}

		for _, usr := range users {
			s.evict(usr)
		}
	}

	return s.storer.DeleteByTenant(ctx, tenantID)
}

// Query retrieves a list of existing users from the database.
func (s *Store) Query(ctx context.Context, filter userbus.QueryFilter, orderBy order.By, page page.Page) ([]userbus.User, error) {
	return s.storer.Query(ctx, filter, orderBy, page)
}

// Count returns the total number of users in the DB.
func (s *Store) Count(ctx context.Context, filter userbus.QueryFilter) (int, error) {
	return s.storer.Count(ctx, filter)
}

// QueryByID gets the specified user from the cache or database.
func (s *Store) QueryByID(ctx context.Context, userID uuid.UUID) (userbus.User, error) {
	cachedUsr, ok := s.readCache(userID.String())
	if ok {
		return cachedUsr, nil
	}

	usr, err := s.storer.QueryByID(ctx, userID)
	if err != nil {
		return userbus.User{}, err
	}

	s.writeCache(usr)

	return usr, nil
}

// QueryByEmail gets the specified user from the cache or database by email.
func (s *Store) QueryByEmail(ctx context.Context, email mail.Address) (userbus.User, error) {
	cachedUsr, ok := s.readCache(email.Address)
	if ok {
		return cachedUsr, nil
	}

	usr, err := s.storer.QueryByEmail(ctx, email)
	if err != nil {
		return userbus.User{}, err
	}

	s.writeCache(usr)

	return usr, nil
}

// =============================================================================

// readCache performs a safe search in the cache for the specified key.
func (s *Store) readCache(key string) (userbus.User, bool) {
	usr, exists := s.cache.Get(key)
	if !exists {
		return userbus.User{}, false
	}

	return usr, true
}

// writeCache performs a safe write to the cache for the specified user.
func (s *Store) writeCache(bus userbus.User) {
	s.cache.Set(bus.ID.String(), bus)
	s.cache.Set(bus.Email.Address, bus)
}

// evict drops the user now and, inside a transaction, once more after the
// commit.
func (s *Store) evict(bus userbus.User) {
	s.deleteCache(bus)

	if s.tx != nil {
		sqldb.AfterCommit(s.tx, func() { s.deleteCache(bus) })
	}
}

// deleteCache performs a safe removal from the cache for the specified user.
func (s *Store) deleteCache(bus userbus.User) {
	s.cache.Delete(bus.ID.String())
	s.cache.Delete(bus.Email.Address)
}
