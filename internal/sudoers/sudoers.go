package sudoers

import (
	"context"
	"fmt"
	"slices"
	"strconv"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Store is the persisted sudoer document. FindSudoers returns nil when the
// document does not exist.
type Store interface {
	FindSudoers(ctx context.Context) ([]int64, error)
	UpsertSudoers(ctx context.Context, ids []int64) error
}

// Registry is a flat allow-list: the owner plus every persisted id.
// Ids are only ever added.
type Registry struct {
	owner int64
	store Store
	set   *cache.Cache
	log   *logrus.Entry
}

// New seeds the in-memory set with the owner only.
func New(owner int64, store Store, log *logrus.Entry) *Registry {
	r := &Registry{
		owner: owner,
		store: store,
		set:   cache.New(cache.NoExpiration, 0),
		log:   log,
	}
	r.add(owner)
	return r
}

// Load reads the persisted document, appends the owner if it is missing and
// mirrors the result in memory.
func (r *Registry) Load(ctx context.Context) error {
	const op = "sudoers.Load"

	ids, err := r.store.FindSudoers(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !slices.Contains(ids, r.owner) {
		ids = append(ids, r.owner)
		if err := r.store.UpsertSudoers(ctx, ids); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	for _, id := range ids {
		r.add(id)
	}
	r.log.WithField("count", len(ids)).Info("Sudoers loaded.")
	return nil
}

func (r *Registry) IsSudoer(id int64) bool {
	_, ok := r.set.Get(key(id))
	return ok
}

func (r *Registry) Owner() int64 { return r.owner }

// List returns the in-memory ids in ascending order.
func (r *Registry) List() []int64 {
	items := r.set.Items()
	ids := make([]int64, 0, len(items))
	for k := range items {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (r *Registry) add(id int64) {
	r.set.Set(key(id), struct{}{}, cache.NoExpiration)
}

func key(id int64) string {
	return strconv.FormatInt(id, 10)
}
